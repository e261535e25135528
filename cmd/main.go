package main

import (
	"fmt"
	"os"

	"github.com/ripsline/mesh-subnet-node/internal/config"
	"github.com/ripsline/mesh-subnet-node/internal/installer"
	"github.com/ripsline/mesh-subnet-node/internal/logging"
	"github.com/ripsline/mesh-subnet-node/internal/welcome"
)

const version = "0.1.0"

func main() {
	if err := logging.Init(logging.DefaultPath()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open log file: %v\n", err)
	}
	defer logging.Close()

	// If the node is already set up, show the status dashboard.
	if !installer.NeedsSetup() {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load config: %v\n", err)
			cfg = config.Default()
		}
		welcome.Show(cfg, version)
		return
	}

	// First run — start the setup wizard. The tool refuses to run
	// as root; individual operations escalate through sudo.
	if err := installer.CheckRunningUser(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: Run rlmesh as a regular user, not root.")
		fmt.Fprintln(os.Stderr, "It will ask for sudo when it needs it.")
		os.Exit(1)
	}

	fmt.Printf("\n  ╔══════════════════════════════════════════╗\n")
	fmt.Printf("  ║  Mesh Subnet Node v%-21s ║\n", version)
	fmt.Printf("  ╚══════════════════════════════════════════╝\n\n")

	if err := installer.Run(version); err != nil {
		logging.Errorf("setup failed: %v", err)
		fmt.Fprintf(os.Stderr, "\n  Setup failed: %v\n", err)
		os.Exit(1)
	}
}
