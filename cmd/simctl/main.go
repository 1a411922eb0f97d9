// Simctl is the command-line client for monitoring and controlling a
// running simd instance. It connects over HTTP and WebSocket to query
// status and stream live events from the daemon.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/orbitfold/constellation-sim/internal/ctl"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "http://127.0.0.1:8080", "simd daemon URL (e.g. http://192.168.8.1:8080)")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
		filter  = pflag.StringSlice("filter", nil, "Event types to show in watch (e.g. --filter state,log)")
	)

	// Stop parsing global flags at the first non-flag argument (the command
	// name), so subcommand-specific flags like --timestep are not rejected.
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if pflag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd := pflag.Arg(0)
	subArgs := pflag.Args()[1:]

	var err error
	switch cmd {
	// ── Query commands ────────────────────────────────────────────
	case "status":
		err = ctl.Status(*host)

	case "health":
		err = ctl.Health(*host, *jsonOut)

	case "version":
		err = ctl.VersionInfo(*host, *jsonOut)

	case "topologies":
		err = ctl.Topologies(*host, *jsonOut)

	case "node":
		opts := ctl.NodeInfoOptions{JSON: *jsonOut, InfoType: "position"}
		nodeFlags := pflag.NewFlagSet("node", pflag.ContinueOnError)
		nodeFlags.IntVar(&opts.TopologyID, "topology", 0, "Topology id")
		nodeFlags.IntVar(&opts.NodeID, "id", 0, "Node id")
		nodeFlags.StringVar(&opts.InfoType, "info", "position", "Info type: position or time")
		_ = nodeFlags.Parse(subArgs)
		err = ctl.NodeInfo(*host, opts)

	// ── Control commands ──────────────────────────────────────────
	case "pause":
		timestep := 0
		pauseFlags := pflag.NewFlagSet("pause", pflag.ContinueOnError)
		pauseFlags.IntVar(&timestep, "timestep", 0, "Simulation step to pause at")
		_ = pauseFlags.Parse(subArgs)
		err = ctl.Pause(*host, timestep, *jsonOut)

	case "resume":
		err = ctl.Resume(*host, *jsonOut)

	case "step":
		err = ctl.Step(*host, *jsonOut)

	case "fov-compute":
		opts := struct {
			NumWorkers int
			Output     string
		}{}
		fovFlags := pflag.NewFlagSet("fov-compute", pflag.ContinueOnError)
		fovFlags.IntVar(&opts.NumWorkers, "workers", 0, "Worker count (0 = daemon default)")
		fovFlags.StringVar(&opts.Output, "output", "", "Persist the computed index to this path")
		_ = fovFlags.Parse(subArgs)
		err = ctl.ComputeFOVs(*host, opts.NumWorkers, opts.Output, *jsonOut)

	case "fov-load":
		if len(subArgs) < 1 {
			fmt.Fprintln(os.Stderr, "error: fov-load requires a path argument")
			os.Exit(2)
		}
		err = ctl.LoadFOVs(*host, subArgs[0], *jsonOut)

	// ── Live streaming ────────────────────────────────────────────
	case "watch":
		err = ctl.Watch(*host, ctl.WatchOptions{
			Filter: *filter,
			JSON:   *jsonOut,
		})

	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Print(`
  simctl — constellation-sim control CLI

  USAGE
    simctl [flags] <command> [command-flags]

  COMMANDS (query)
    status          Show daemon state, uptime, and current step
    health          Check daemon reachability
    version         Show CLI and daemon version information
    topologies      List topologies, nodes, and their models
    node            Show a node's current position or simulated time

  COMMANDS (control)
    pause           Arm a pause at a given simulation step
    resume          Resume a paused run
    step            Execute a single simulation step immediately
    fov-compute     Precompute the field-of-view index
    fov-load        Load a previously persisted field-of-view index

  COMMANDS (live)
    watch           Stream live events from the daemon (Ctrl-C to stop)

  GLOBAL FLAGS
    -H, --host URL      Daemon base URL (default: http://127.0.0.1:8080)
        --json          Output raw JSON instead of formatted text
        --filter TYPE   Event types to show in watch (comma-separated)

  COMMAND FLAGS
    node:
        --topology ID   Topology id (default 0)
        --id ID         Node id
        --info TYPE     position or time (default position)

    pause:
        --timestep N    Simulation step to pause at

    fov-compute:
        --workers N     Worker count (0 = daemon default)
        --output PATH   Persist the computed index to this path

  EXAMPLES
    simctl status
    simctl --json status
    simctl --host http://192.168.8.1:8080 watch
    simctl topologies
    simctl node --id 1 --info position
    simctl pause --timestep 120
    simctl resume
    simctl step
    simctl fov-compute --output /var/lib/simd/fov/run1.sqlite
    simctl fov-load /var/lib/simd/fov/run1.sqlite
    simctl watch --filter state,log,step

`)
}
