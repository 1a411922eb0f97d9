package ctl

import (
	"fmt"
	"strings"
)

// Pause arms a pause at the given simulation step.
func Pause(baseURL string, timestep int, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var result struct {
		Armed bool `json:"armed"`
	}
	if err := postJSON(baseURL, "/api/pause", map[string]int{"timestep": timestep}, &result); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}

	if result.Armed {
		fmt.Printf("\n  %s  will pause at step %d\n\n", colorize(green, "ARMED"), timestep)
	} else {
		fmt.Printf("\n  %s  step %d has already passed\n\n", colorize(red, "REJECTED"), timestep)
	}
	return nil
}

// Resume unblocks a paused run.
func Resume(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var result struct {
		OK bool `json:"ok"`
	}
	if err := postJSON(baseURL, "/api/resume", nil, &result); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}
	fmt.Printf("\n  %s\n\n", colorize(green, "RESUMED"))
	return nil
}

// Step executes a single simulation step immediately.
func Step(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var result struct {
		Step int `json:"step"`
	}
	if err := postJSON(baseURL, "/api/step", nil, &result); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}
	fmt.Printf("\n  %s  now at step %d\n\n", colorize(green, "STEPPED"), result.Step)
	return nil
}
