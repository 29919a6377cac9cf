package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/musicbox/internal/shared"
	"github.com/desertthunder/musicbox/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive library and player.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	logPath := cmd.String("log-file")
	if logPath == "" {
		logPath = r.config.Log.File
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(shared.ExpandHome(logPath))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := r.newPlayer()
	defer p.Close()
	defer r.bus.Close()

	model := ui.NewModel(ctx, ui.Deps{
		Auth:     r.session,
		Library:  r.client,
		Player:   p,
		Bus:      r.bus,
		Uploader: r.engine,
	})
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
