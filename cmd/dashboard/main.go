package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"wwtpDashboard/internal/config"
	"wwtpDashboard/internal/dashboard"
	"wwtpDashboard/internal/logger"
	"wwtpDashboard/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	apiURL := flag.String("api", "", "REST service base URL, overrides the config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.Dashboard.APIBaseURL = *apiURL
	}

	// stdout belongs to the terminal UI
	if err := logger.InitFile(cfg.Logging.Level, "dashboard.log"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	client := dashboard.NewClient(cfg.Dashboard.APIBaseURL, dashboard.NewDefaultHTTPClient(cfg.Dashboard.RequestTimeout))
	data := dashboard.NewDataLayer(client, cfg.Dashboard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go data.Run(ctx)

	notes := dashboard.NewNoteStore(cfg.Dashboard.NotesPath)
	model := tui.NewModel(data, client, notes, tui.Options{
		Timeout:   cfg.Dashboard.RequestTimeout,
		ExportDir: cfg.Dashboard.ExportDir,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
