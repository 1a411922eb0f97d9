package ctl

import (
	"fmt"
	"strings"
)

// Health checks daemon liveness via GET /healthz.
func Health(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	status, _, err := getRaw(baseURL, "/healthz")
	healthy := err == nil && status == 200

	if jsonOutput {
		result := map[string]any{"healthy": healthy, "url": baseURL}
		if err != nil {
			result["error"] = err.Error()
		} else {
			result["status"] = status
		}
		return printJSON(result)
	}

	if err != nil {
		return err
	}

	fmt.Println()
	if healthy {
		fmt.Printf("  %s  simd is reachable at %s\n", colorize(green, "HEALTHY"), colorize(dim, baseURL))
	} else {
		fmt.Printf("  %s  simd returned HTTP %d at %s\n", colorize(red, "UNHEALTHY"), status, colorize(dim, baseURL))
	}
	fmt.Println()
	return nil
}
