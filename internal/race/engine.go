// Package race implements the per-player race session engine: text
// selection, keystroke validation, timing, power-up effects, simulated
// opponents and achievement evaluation. The engine is owned by a single
// caller which drives it through keystrokes and periodic ticks; it starts no
// goroutines and keeps no timers of its own.
package race

import (
	"math/rand"
	"time"

	"github.com/typing-racer/internal/domain"
)

// State is the race lifecycle phase.
type State int

const (
	Idle State = iota
	Racing
	Finished
)

// TickInterval is the cadence the owning loop is expected to call Tick at.
const TickInterval = 50 * time.Millisecond

// errorFlashDuration is how long the caller should show the mistyped-key
// indication. Presentation only.
const errorFlashDuration = 200 * time.Millisecond

// Config parameterizes a new engine. Zero values select system clock,
// time-seeded randomness, medium difficulty and the stock opponents.
type Config struct {
	Difficulty domain.Difficulty
	Clock      Clock
	Rand       *rand.Rand
	Opponents  []Opponent
}

// Engine holds the full state of one race session. Inventories and
// achievement unlocks survive resets; everything else is per-race.
type Engine struct {
	clock      Clock
	rng        *rand.Rand
	difficulty domain.Difficulty

	state     State
	text      []rune
	cursor    int
	errors    int
	startedAt time.Time
	endedAt   time.Time

	powerups     map[PowerUpKind]*powerUp
	opponents    []Opponent
	achievements []Achievement
	notices      noticeQueue
	result       *Result
}

// KeyResult reports the outcome of a single keystroke.
type KeyResult struct {
	Advanced   bool
	Finished   bool
	ErrorFlash time.Duration
}

// Result holds the finalized stats of a completed race. WPM and accuracy are
// recomputed from the full text length and total elapsed time, not from the
// boosted in-flight display values.
type Result struct {
	WPM      int
	Accuracy int
	Time     float64
	Position int
}

// LiveStats is the idempotent, side-effect-free view recomputed after every
// keystroke and tick.
type LiveStats struct {
	WPM      int
	Accuracy int
	Elapsed  float64
	Rank     int
	Progress float64
}

// NewEngine creates an engine with a freshly selected text and a randomized
// starting power-up inventory.
func NewEngine(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = domain.DifficultyMedium
	}
	if cfg.Opponents == nil {
		cfg.Opponents = defaultOpponents()
	}
	e := &Engine{
		clock:      cfg.Clock,
		rng:        cfg.Rand,
		difficulty: cfg.Difficulty,
		opponents:  cfg.Opponents,
		powerups: map[PowerUpKind]*powerUp{
			SpeedBoost:     {count: cfg.Rand.Intn(3) + 1},
			AccuracyShield: {count: cfg.Rand.Intn(2) + 1},
			TimeFreeze:     {count: cfg.Rand.Intn(2) + 1},
		},
		achievements: achievementCatalog(),
	}
	e.generateText()
	return e
}

// Difficulty returns the current difficulty level.
func (e *Engine) Difficulty() domain.Difficulty { return e.difficulty }

// SetDifficulty switches level and regenerates the text, resetting cursor
// and error count.
func (e *Engine) SetDifficulty(d domain.Difficulty) {
	if !d.Known() {
		return
	}
	e.difficulty = d
	e.generateText()
}

func (e *Engine) generateText() {
	e.text = []rune(pickText(e.rng, e.difficulty))
	e.cursor = 0
	e.errors = 0
}

// State returns the lifecycle phase.
func (e *Engine) State() State { return e.state }

// Text returns the race text.
func (e *Engine) Text() string { return string(e.text) }

// Cursor returns the index of the next character to type.
func (e *Engine) Cursor() int { return e.cursor }

// Errors returns the mismatched-keystroke count for this race.
func (e *Engine) Errors() int { return e.errors }

// Start begins the race. A no-op while already racing.
func (e *Engine) Start() {
	if e.state == Racing {
		return
	}
	e.state = Racing
	e.startedAt = e.clock.Now()
	e.endedAt = time.Time{}
	e.cursor = 0
	e.errors = 0
	e.result = nil
	for i := range e.opponents {
		e.opponents[i].Progress = 0
	}
}

// Type processes one typed character. The first keystroke of an idle session
// starts the race. Outside Idle/Racing it is ignored.
func (e *Engine) Type(ch rune) KeyResult {
	if e.state == Idle {
		e.Start()
	}
	if e.state != Racing {
		return KeyResult{}
	}
	if e.cursor < len(e.text) && ch == e.text[e.cursor] {
		e.cursor++
		if e.cursor >= len(e.text) {
			e.finish()
			return KeyResult{Advanced: true, Finished: true}
		}
		return KeyResult{Advanced: true}
	}
	if e.powerups[AccuracyShield].active {
		// Shielded mistakes neither advance nor count.
		return KeyResult{}
	}
	e.errors++
	return KeyResult{ErrorFlash: errorFlashDuration}
}

// Tick advances time-driven state: opponent progress and power-up expiry.
// The owning loop calls it every TickInterval while a race is on screen.
func (e *Engine) Tick() {
	now := e.clock.Now()
	for _, kind := range PowerUpKinds {
		e.powerups[kind].expire(now)
	}
	if e.state != Racing {
		return
	}
	if !e.powerups[TimeFreeze].active {
		for i := range e.opponents {
			e.opponents[i].advance(e.rng)
		}
	}
}

// Activate consumes one charge of the given power-up. Returns false when the
// race is not running, the inventory is empty or the effect is already
// active.
func (e *Engine) Activate(kind PowerUpKind) bool {
	p, ok := e.powerups[kind]
	if !ok || e.state != Racing {
		return false
	}
	now := e.clock.Now()
	if !p.activate(kind, now) {
		return false
	}
	switch kind {
	case SpeedBoost:
		e.notices.push("Speed Boost!", "+20% WPM for 10 seconds", now)
	case AccuracyShield:
		e.notices.push("Accuracy Shield!", "No typing penalties for 5 seconds", now)
	case TimeFreeze:
		e.notices.push("Time Freeze!", "Opponents frozen for 3 seconds", now)
	}
	return true
}

// PowerUps returns inventory snapshots in fixed order.
func (e *Engine) PowerUps() []PowerUpState {
	states := make([]PowerUpState, 0, len(PowerUpKinds))
	for _, kind := range PowerUpKinds {
		p := e.powerups[kind]
		states = append(states, PowerUpState{Kind: kind, Count: p.count, Active: p.active})
	}
	return states
}

// PowerUpActive reports whether the kind's effect is currently running.
func (e *Engine) PowerUpActive(kind PowerUpKind) bool {
	p, ok := e.powerups[kind]
	return ok && p.active
}

// Opponents returns a copy of the opponent lineup.
func (e *Engine) Opponents() []Opponent {
	out := make([]Opponent, len(e.opponents))
	copy(out, e.opponents)
	return out
}

// Achievements returns a copy of the catalog with unlock flags.
func (e *Engine) Achievements() []Achievement {
	out := make([]Achievement, len(e.achievements))
	copy(out, e.achievements)
	return out
}

// Notifications returns every queued notification now due, in queue order.
func (e *Engine) Notifications() []Notification {
	return e.notices.pop(e.clock.Now())
}

// Stats recomputes the live display values. It mutates nothing and may be
// called at any cadence.
func (e *Engine) Stats() LiveStats {
	stats := LiveStats{Accuracy: 100}
	if len(e.text) > 0 {
		stats.Progress = float64(e.cursor) / float64(len(e.text))
	}
	if e.startedAt.IsZero() {
		return stats
	}
	end := e.clock.Now()
	if e.state == Finished {
		end = e.endedAt
	}
	elapsed := end.Sub(e.startedAt).Seconds()
	stats.Elapsed = elapsed
	if minutes := elapsed / 60; minutes > 0 {
		wpm := float64(e.cursor) / 5 / minutes
		if e.powerups[SpeedBoost].active {
			wpm *= speedBoostFactor
		}
		stats.WPM = int(wpm + 0.5)
	}
	if e.cursor > 0 {
		stats.Accuracy = int(float64(e.cursor-e.errors)/float64(e.cursor)*100 + 0.5)
		if stats.Accuracy < 0 {
			stats.Accuracy = 0
		}
	}
	stats.Rank = 1
	for i := range e.opponents {
		if e.opponents[i].Progress > stats.Progress {
			stats.Rank++
		}
	}
	return stats
}

// Result returns the finalized stats, or nil while no race has finished.
func (e *Engine) Result() *Result {
	return e.result
}

// finish runs the completion procedure: final stats from total counts,
// finishing position, achievement unlocks, power-up awards and the staggered
// notification schedule.
func (e *Engine) finish() {
	now := e.clock.Now()
	e.state = Finished
	e.endedAt = now

	totalTime := now.Sub(e.startedAt).Seconds()
	wpm := 0
	if totalTime > 0 {
		wpm = int(float64(len(e.text))/5/(totalTime/60) + 0.5)
	}
	accuracy := 0
	if len(e.text) > 0 {
		accuracy = int(float64(len(e.text)-e.errors)/float64(len(e.text))*100 + 0.5)
		if accuracy < 0 {
			accuracy = 0
		}
	}
	position := 1
	for i := range e.opponents {
		if e.opponents[i].Finished() {
			position++
		}
	}
	e.result = &Result{WPM: wpm, Accuracy: accuracy, Time: totalTime, Position: position}

	// Achievements unlock one-way, queued with spacing so toasts never
	// overlap. Catalog order puts session milestones first.
	unlocked := 0
	for i := range e.achievements {
		a := &e.achievements[i]
		if a.Unlocked || !achievementEarned(a.ID, wpm, accuracy) {
			continue
		}
		a.Unlocked = true
		e.notices.push(a.Name, a.Description, now.Add(time.Second+time.Duration(unlocked)*2*time.Second))
		unlocked++
	}

	awarded := 0
	if wpm >= 50 {
		e.powerups[SpeedBoost].count++
		awarded++
	}
	if accuracy >= 90 {
		e.powerups[AccuracyShield].count++
		awarded++
	}
	if wpm >= 40 && accuracy >= 85 {
		e.powerups[TimeFreeze].count++
		awarded++
	}
	if awarded > 0 {
		e.notices.push("Power-ups Earned!", "Bonus inventory for a strong finish", now.Add(2*time.Second))
	}
}

// Reset returns to Idle with fresh text. Pending power-up deactivations and
// undelivered notifications are cancelled so nothing mutates state after the
// reset. Inventories and achievement unlocks persist.
func (e *Engine) Reset() {
	e.state = Idle
	e.startedAt = time.Time{}
	e.endedAt = time.Time{}
	e.result = nil
	for _, kind := range PowerUpKinds {
		e.powerups[kind].cancel()
	}
	for i := range e.opponents {
		e.opponents[i].Progress = 0
	}
	e.notices.clear()
	e.generateText()
}
