package ctl

import (
	"fmt"
	"strings"
)

// ComputeFOVs triggers a full field-of-view precompute across the running
// scenario, optionally persisting it to outputPath for a later LoadFOVs.
func ComputeFOVs(baseURL string, numWorkers int, outputPath string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var result struct {
		OK bool `json:"ok"`
	}
	body := map[string]any{"num_workers": numWorkers}
	if outputPath != "" {
		body["output_path"] = outputPath
	}
	if err := postJSON(baseURL, "/api/fov/compute", body, &result); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}
	fmt.Printf("\n  %s  FOV index computed\n\n", colorize(green, "DONE"))
	return nil
}

// LoadFOVs loads a previously persisted FOV index from inputPath, skipping
// the precompute step.
func LoadFOVs(baseURL string, inputPath string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var result struct {
		OK bool `json:"ok"`
	}
	if err := postJSON(baseURL, "/api/fov/load", map[string]string{"input_path": inputPath}, &result); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}
	fmt.Printf("\n  %s  FOV index loaded from %s\n\n", colorize(green, "DONE"), inputPath)
	return nil
}
