// Package tui provides the Bubble Tea race interface.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/typing-racer/internal/domain"
	"github.com/typing-racer/internal/race"
	"github.com/typing-racer/internal/websocket"
)

// Board is the leaderboard connection the UI drives. Satisfied by
// *liveboard.Client.
type Board interface {
	SubmitScore(sub domain.Submission) error
	RequestLeaderboard(filter domain.Filter) error
	Updates() <-chan []domain.RankedRecord
	Replies() <-chan websocket.SubmitReply
	Done() <-chan struct{}
}

const toastDuration = 3 * time.Second

type tickMsg time.Time

type boardMsg []domain.RankedRecord

type replyMsg websocket.SubmitReply

type connLostMsg struct{}

type toast struct {
	title       string
	description string
	until       time.Time
}

// Model implements the Bubble Tea race UI. The engine holds all game state;
// the model only drives it and renders.
type Model struct {
	engine *race.Engine
	board  Board // nil when running offline

	width  int
	height int

	flashUntil time.Time
	toasts     []toast

	entries []domain.RankedRecord

	naming    bool
	nameInput textinput.Model
	submitted bool
	reply     *websocket.SubmitReply
}

// NewModel constructs the race TUI model. board may be nil; the race then
// runs without a leaderboard.
func NewModel(engine *race.Engine, board Board) *Model {
	ti := textinput.New()
	ti.Placeholder = "your name"
	ti.CharLimit = 20
	ti.Width = 24
	return &Model{
		engine:    engine,
		board:     board,
		nameInput: ti,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick()}
	if m.board != nil {
		m.board.RequestLeaderboard(domain.FilterDaily)
		cmds = append(cmds, waitForUpdate(m.board), waitForReply(m.board))
	}
	return tea.Batch(cmds...)
}

func tick() tea.Cmd {
	return tea.Tick(race.TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForUpdate(board Board) tea.Cmd {
	return func() tea.Msg {
		select {
		case entries, ok := <-board.Updates():
			if !ok {
				return connLostMsg{}
			}
			return boardMsg(entries)
		case <-board.Done():
			return connLostMsg{}
		}
	}
}

func waitForReply(board Board) tea.Cmd {
	return func() tea.Msg {
		select {
		case reply, ok := <-board.Replies():
			if !ok {
				return connLostMsg{}
			}
			return replyMsg(reply)
		case <-board.Done():
			return connLostMsg{}
		}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.engine.Tick()
		now := time.Time(msg)
		for _, n := range m.engine.Notifications() {
			m.toasts = append(m.toasts, toast{
				title:       n.Title,
				description: n.Description,
				until:       now.Add(toastDuration),
			})
		}
		live := m.toasts[:0]
		for _, t := range m.toasts {
			if now.Before(t.until) {
				live = append(live, t)
			}
		}
		m.toasts = live
		return m, tick()

	case boardMsg:
		// A message buffered before the connection dropped may still land
		// after connLostMsg cleared the board.
		if m.board == nil {
			return m, nil
		}
		m.entries = msg
		return m, waitForUpdate(m.board)

	case replyMsg:
		if m.board == nil {
			return m, nil
		}
		reply := websocket.SubmitReply(msg)
		m.reply = &reply
		return m, waitForReply(m.board)

	case connLostMsg:
		m.board = nil
		m.entries = nil
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyF1:
		m.engine.Activate(race.SpeedBoost)
		return m, nil
	case tea.KeyF2:
		m.engine.Activate(race.AccuracyShield)
		return m, nil
	case tea.KeyF3:
		m.engine.Activate(race.TimeFreeze)
		return m, nil
	case tea.KeyTab:
		m.resetRace()
		return m, nil
	}

	if m.naming {
		return m.handleNamingKey(msg)
	}

	switch m.engine.State() {
	case race.Idle:
		switch msg.Type {
		case tea.KeyLeft:
			m.cycleDifficulty(-1)
			return m, nil
		case tea.KeyRight:
			m.cycleDifficulty(1)
			return m, nil
		}
	case race.Finished:
		if msg.Type == tea.KeyEnter && m.board != nil && !m.submitted {
			m.naming = true
			m.nameInput.Focus()
			return m, textinput.Blink
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeySpace:
		m.typeRunes([]rune{' '})
	case tea.KeyRunes:
		m.typeRunes(msg.Runes)
	}
	return m, nil
}

func (m *Model) handleNamingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			return m, nil
		}
		m.naming = false
		m.submitted = true
		if result := m.engine.Result(); result != nil && m.board != nil {
			err := m.board.SubmitScore(domain.Submission{
				Name:       name,
				WPM:        result.WPM,
				Accuracy:   result.Accuracy,
				Time:       result.Time,
				Difficulty: m.engine.Difficulty(),
			})
			if err != nil {
				// The reply will never arrive; show the failure instead of
				// a stuck "submitted" state.
				m.reply = &websocket.SubmitReply{Success: false, Error: err.Error()}
			}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *Model) typeRunes(runes []rune) {
	for _, r := range runes {
		res := m.engine.Type(r)
		if res.ErrorFlash > 0 {
			m.flashUntil = time.Now().Add(res.ErrorFlash)
		}
		if res.Finished {
			break
		}
	}
}

func (m *Model) resetRace() {
	m.engine.Reset()
	m.naming = false
	m.submitted = false
	m.reply = nil
	m.nameInput.Reset()
	m.nameInput.Blur()
}

var difficultyOrder = []domain.Difficulty{
	domain.DifficultyEasy,
	domain.DifficultyMedium,
	domain.DifficultyHard,
	domain.DifficultyExpert,
	domain.DifficultyNightmare,
}

func (m *Model) cycleDifficulty(step int) {
	current := 0
	for i, d := range difficultyOrder {
		if d == m.engine.Difficulty() {
			current = i
			break
		}
	}
	next := (current + step + len(difficultyOrder)) % len(difficultyOrder)
	m.engine.SetDifficulty(difficultyOrder[next])
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Typing Race"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  [%s]", m.engine.Difficulty())))
	b.WriteString("\n\n")

	b.WriteString(m.renderText())
	b.WriteString("\n\n")
	b.WriteString(m.renderTrack())
	b.WriteString("\n")
	b.WriteString(m.renderStats())
	b.WriteString("\n")
	b.WriteString(m.renderPowerUps())
	b.WriteString("\n")

	if m.engine.State() == race.Finished {
		b.WriteString("\n")
		b.WriteString(m.renderFinish())
	}

	for _, t := range m.toasts {
		b.WriteString("\n")
		b.WriteString(toastStyle.Render(t.title + " " + dimStyle.Render(t.description)))
	}

	if len(m.entries) > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.renderBoard())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m *Model) renderText() string {
	text := []rune(m.engine.Text())
	cursor := m.engine.Cursor()
	flashing := time.Now().Before(m.flashUntil)

	var b strings.Builder
	for i, r := range text {
		switch {
		case i < cursor:
			b.WriteString(typedStyle.Render(string(r)))
		case i == cursor:
			if flashing {
				b.WriteString(flashStyle.Render(string(r)))
			} else {
				b.WriteString(cursorStyle.Render(string(r)))
			}
		default:
			b.WriteString(pendingStyle.Render(string(r)))
		}
	}
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	return lipgloss.NewStyle().Width(width).Render(b.String())
}

// renderTrack draws one progress lane per racer.
func (m *Model) renderTrack() string {
	const lane = 30
	var b strings.Builder
	stats := m.engine.Stats()

	writeLane := func(name string, progress float64) {
		filled := int(progress * lane)
		if filled > lane {
			filled = lane
		}
		b.WriteString(trackStyle.Render(fmt.Sprintf("%-12s", name)))
		b.WriteString(strings.Repeat("=", filled))
		b.WriteString(">")
		b.WriteString(strings.Repeat(" ", lane-filled))
		b.WriteString(trackStyle.Render("|"))
		b.WriteString("\n")
	}

	writeLane("You", stats.Progress)
	for _, o := range m.engine.Opponents() {
		writeLane(o.Name, o.Progress)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderStats() string {
	stats := m.engine.Stats()
	line := fmt.Sprintf("WPM %d   Accuracy %d%%   Time %.1fs   Rank %d",
		stats.WPM, stats.Accuracy, stats.Elapsed, stats.Rank)
	return statStyle.Render(line)
}

func (m *Model) renderPowerUps() string {
	labels := map[race.PowerUpKind]string{
		race.SpeedBoost:     "F1 Boost",
		race.AccuracyShield: "F2 Shield",
		race.TimeFreeze:     "F3 Freeze",
	}
	parts := make([]string, 0, 3)
	for _, p := range m.engine.PowerUps() {
		label := fmt.Sprintf("%s x%d", labels[p.Kind], p.Count)
		if p.Active {
			parts = append(parts, activeStyle.Render(label))
		} else {
			parts = append(parts, dimStyle.Render(label))
		}
	}
	return strings.Join(parts, "   ")
}

func (m *Model) renderFinish() string {
	result := m.engine.Result()
	if result == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Finished #%d!", result.Position)))
	b.WriteString(statStyle.Render(fmt.Sprintf("  %d WPM, %d%% accuracy in %.1fs",
		result.WPM, result.Accuracy, result.Time)))

	switch {
	case m.naming:
		b.WriteString("\n")
		b.WriteString(m.nameInput.View())
	case m.reply != nil:
		b.WriteString("\n")
		if m.reply.Success {
			b.WriteString(statStyle.Render(fmt.Sprintf("Score %.1f submitted", m.reply.Score)))
		} else {
			b.WriteString(flashStyle.Render("Submission failed: " + m.reply.Error))
		}
	case m.board != nil && !m.submitted:
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("enter to submit your score, tab for a new race"))
	}
	return b.String()
}

func (m *Model) renderBoard() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Today's Leaderboard"))
	b.WriteString("\n")
	limit := len(m.entries)
	if limit > 10 {
		limit = 10
	}
	for _, e := range m.entries[:limit] {
		b.WriteString(fmt.Sprintf("%2d. %-20s %6.1f  %3d wpm  %3d%%\n",
			e.Rank, e.Name, e.Score, e.WPM, e.Accuracy))
	}
	return boardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderHelp() string {
	segments := []string{"esc quit", "tab new race", "F1-F3 power-ups"}
	if m.engine.State() == race.Idle {
		segments = append(segments, "←/→ difficulty", "type to start")
	}
	if m.board == nil {
		segments = append(segments, "offline")
	}
	return dimStyle.Render(strings.Join(segments, "  ·  "))
}
