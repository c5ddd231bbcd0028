package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/typing-racer/internal/domain"
	"github.com/typing-racer/internal/liveboard"
	"github.com/typing-racer/internal/race"
	"github.com/typing-racer/internal/tui"
)

func main() {
	serverURL := flag.String("server", "ws://localhost:3000/ws", "Leaderboard WebSocket URL (empty for offline play)")
	difficulty := flag.String("difficulty", "medium", "Race difficulty: easy, medium, hard, expert, nightmare")
	flag.Parse()

	d := domain.Difficulty(*difficulty)
	if !d.Known() {
		fmt.Fprintf(os.Stderr, "unknown difficulty %q\n", *difficulty)
		os.Exit(1)
	}

	// The TUI owns the terminal; logs go to stderr where they surface after
	// exit instead of corrupting the view.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	// A nil *liveboard.Client must never reach the interface-typed board,
	// or the offline checks in the UI stop working.
	var board tui.Board
	if *serverURL != "" {
		client, err := liveboard.Dial(*serverURL, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "leaderboard unavailable, playing offline: %v\n", err)
		} else {
			board = client
			defer client.Close()
		}
	}

	engine := race.NewEngine(race.Config{Difficulty: d})
	model := tui.NewModel(engine, board)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running race: %v\n", err)
		os.Exit(1)
	}
}
