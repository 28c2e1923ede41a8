// Command av1top is the terminal monitor for the re-encoding daemon: a
// read-only view of the job state directory, plus a requeue key that
// drops command files for the daemon to pick up.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yourname/av1qsvd/internal/config"
	"github.com/yourname/av1qsvd/internal/tui"
)

func main() {
	configPath := flag.String("config", "/etc/av1qsvd/config.json", "path to daemon config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	m := tui.NewModel(cfg.JobStateDir, cfg.CommandDir)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
