package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/typing-racer/internal/domain"
	"github.com/typing-racer/internal/race"
	"github.com/typing-racer/internal/websocket"
)

type fakeBoard struct {
	submitErr error
	submitted []domain.Submission
	updates   chan []domain.RankedRecord
	replies   chan websocket.SubmitReply
	done      chan struct{}
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{
		updates: make(chan []domain.RankedRecord, 1),
		replies: make(chan websocket.SubmitReply, 1),
		done:    make(chan struct{}),
	}
}

func (f *fakeBoard) SubmitScore(sub domain.Submission) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, sub)
	return nil
}

func (f *fakeBoard) RequestLeaderboard(domain.Filter) error { return nil }

func (f *fakeBoard) Updates() <-chan []domain.RankedRecord { return f.updates }

func (f *fakeBoard) Replies() <-chan websocket.SubmitReply { return f.replies }

func (f *fakeBoard) Done() <-chan struct{} { return f.done }

// finishRace types the whole text so the model has a result to submit.
func finishRace(t *testing.T, m *Model) {
	t.Helper()
	for _, r := range []rune(m.engine.Text()) {
		m.engine.Type(r)
	}
	if m.engine.State() != race.Finished {
		t.Fatal("race did not finish")
	}
}

func TestBoardMessagesAfterDisconnect(t *testing.T) {
	// Messages buffered before the connection dropped still arrive after
	// connLostMsg; they must not re-arm a wait on the cleared board.
	m := NewModel(race.NewEngine(race.Config{}), newFakeBoard())
	m.Update(connLostMsg{})

	_, cmd := m.Update(boardMsg{})
	if cmd != nil {
		t.Fatal("boardMsg after disconnect must not re-arm the update wait")
	}
	_, cmd = m.Update(replyMsg{})
	if cmd != nil {
		t.Fatal("replyMsg after disconnect must not re-arm the reply wait")
	}
}

func TestBoardMessagesOffline(t *testing.T) {
	m := NewModel(race.NewEngine(race.Config{}), nil)

	_, cmd := m.Update(boardMsg{{Rank: 1}})
	if cmd != nil {
		t.Fatal("offline model must not wait on a nil board")
	}
	_, cmd = m.Update(replyMsg{Success: true})
	if cmd != nil {
		t.Fatal("offline model must not wait on a nil board")
	}
}

func TestSubmitFailureSurfaced(t *testing.T) {
	board := newFakeBoard()
	board.submitErr = errors.New("connection reset")
	m := NewModel(race.NewEngine(race.Config{}), board)
	finishRace(t, m)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.naming {
		t.Fatal("enter after finish should open name entry")
	}
	m.nameInput.SetValue("alice")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.reply == nil || m.reply.Success {
		t.Fatal("failed send must surface as a failed reply")
	}
	if !strings.Contains(m.View(), "Submission failed") {
		t.Fatal("failure not shown in the finish view")
	}
}

func TestSubmitSendsResult(t *testing.T) {
	board := newFakeBoard()
	m := NewModel(race.NewEngine(race.Config{}), board)
	finishRace(t, m)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.nameInput.SetValue("alice")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(board.submitted) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(board.submitted))
	}
	if board.submitted[0].Name != "alice" {
		t.Fatalf("unexpected name: %q", board.submitted[0].Name)
	}
	if m.reply != nil {
		t.Fatal("no failure reply expected on a successful send")
	}
}
