package main

import (
	"errors"
	"fmt"
	"os"

	"taskboard/internal/client"
	"taskboard/internal/domain"
	"taskboard/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"
)

const defaultServer = "http://localhost:8080"

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "taskboard-tui: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("taskboard-tui", pflag.ContinueOnError)
	server := fs.String("server", "", "task API base URL (default $TASKBOARD_SERVER or "+defaultServer+")")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	baseURL := *server
	if baseURL == "" {
		baseURL = os.Getenv("TASKBOARD_SERVER")
	}
	if baseURL == "" {
		baseURL = defaultServer
	}

	c, err := client.New(baseURL, nil)
	if err != nil {
		return err
	}

	model := tui.New(c, domain.NewCalendar(clockwork.NewRealClock(), nil))
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
