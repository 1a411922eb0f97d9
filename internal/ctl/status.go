package ctl

import (
	"fmt"
	"strings"
	"time"
)

// StatusResponse mirrors the JSON returned by GET /api/status.
type StatusResponse struct {
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	CurrentStep   int    `json:"current_step"`
	NumSteps      int    `json:"num_steps"`
	Topologies    int    `json:"topologies"`
}

// Status fetches the daemon status and prints a formatted summary.
func Status(baseURL string) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var s StatusResponse
	if err := getJSON(baseURL, "/api/status", &s); err != nil {
		return err
	}

	uptime := formatDuration(time.Duration(s.UptimeSeconds) * time.Second)
	stateStr := colorize(stateColor(s.State), s.State)

	fmt.Println()
	fmt.Println(header("  SIMD STATUS"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))
	fmt.Printf("  %-12s %s\n", colorize(dim, "State:"), stateStr)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Uptime:"), uptime)
	fmt.Printf("  %-12s %d / %d\n", colorize(dim, "Step:"), s.CurrentStep, s.NumSteps)
	fmt.Printf("  %-12s %d\n", colorize(dim, "Topologies:"), s.Topologies)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Host:"), baseURL)
	fmt.Println()

	return nil
}
