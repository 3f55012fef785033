// WalkPoints: step tracking and rewards in the terminal.
//
// Usage:
//
//	walkpoints [command] [flags]
//
// Without a command the interactive TUI starts. Commands:
//
//	report      Print the step analytics report
//	import      Import daily step samples (JSON lines)
//	milestones  List or add milestones
//	rewards     List rewards
//	redeem      Redeem a reward
//	config      Show the configuration or its schema
//	version     Print version information
package main

import (
	"context"
	"fmt"
	"os"
)

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	root, a := newRootCmd()
	err := root.ExecuteContext(context.Background())
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
