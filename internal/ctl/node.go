package ctl

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// NodeInfoOptions configures the node-info command.
type NodeInfoOptions struct {
	TopologyID int
	NodeID     int
	InfoType   string // "position" or "time"
	JSON       bool
}

// NodeInfo fetches a single node's current simulated time or position.
func NodeInfo(baseURL string, opts NodeInfoOptions) error {
	baseURL = strings.TrimRight(baseURL, "/")

	q := url.Values{}
	q.Set("topology_id", strconv.Itoa(opts.TopologyID))
	q.Set("node_id", strconv.Itoa(opts.NodeID))
	if opts.InfoType != "" {
		q.Set("info_type", opts.InfoType)
	}

	var result map[string]any
	if err := getJSON(baseURL, "/api/node?"+q.Encode(), &result); err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(result)
	}

	fmt.Println()
	fmt.Printf("  %s node %d\n", header("NODE"), opts.NodeID)
	for k, v := range result {
		fmt.Printf("    %-16s %v\n", colorize(dim, k+":"), v)
	}
	fmt.Println()
	return nil
}
