package ctl

import (
	"fmt"
	"strings"
)

type topologiesResponse struct {
	Topologies []struct {
		ID    int    `json:"id"`
		Name  string `json:"name"`
		Nodes []struct {
			ID     int      `json:"id"`
			Name   string   `json:"name"`
			Kind   string   `json:"kind"`
			Models []string `json:"models"`
		} `json:"nodes"`
	} `json:"topologies"`
}

// Topologies fetches and prints every topology/node/model in the running scenario.
func Topologies(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var resp topologiesResponse
	if err := getJSON(baseURL, "/api/topologies", &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  TOPOLOGIES"))
	for _, topo := range resp.Topologies {
		fmt.Printf("\n  %s %s\n", colorize(bold, fmt.Sprintf("[%d]", topo.ID)), topo.Name)
		for _, n := range topo.Nodes {
			fmt.Printf("    %-6s node %-4d %s\n", colorize(dim, n.Kind), n.ID, n.Name)
			for _, m := range n.Models {
				fmt.Printf("      %s %s\n", colorize(dim, "-"), m)
			}
		}
	}
	fmt.Println()

	return nil
}
