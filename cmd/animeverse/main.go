package main

import (
	"github.com/animeverse/animeverse/internal/cmd"
	"github.com/animeverse/animeverse/internal/server/handlers"
)

// Version information set via ldflags during build
// Example: go build -ldflags="-X main.version=3.0.0 -X main.commit=abc123 -X main.buildDate=2026-10-15"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	handlers.SetVersionInfo(version, commit, buildDate)

	if err := cmd.Execute(); err != nil {
		cmd.ExitWithCodeStderr(cmd.ExitCodeFor(err), "Command failed", err)
	}
}
