package race

import "math/rand"

// Opponent is a simulated competitor. Its progress advances on engine ticks,
// independent of player input.
type Opponent struct {
	Name     string
	Speed    float64
	Progress float64
}

// defaultOpponents mirrors the stock lineup: two rivals with fixed base
// speeds.
func defaultOpponents() []Opponent {
	return []Opponent{
		{Name: "Speed Demon", Speed: 0.8},
		{Name: "Turbo Type", Speed: 0.9},
	}
}

// advance moves the opponent by one tick: base speed jittered by a uniform
// factor in [0.8, 1.2], capped at the finish line.
func (o *Opponent) advance(rng *rand.Rand) {
	factor := 0.8 + rng.Float64()*0.4
	o.Progress += o.Speed * factor / 100
	if o.Progress > 1 {
		o.Progress = 1
	}
}

// Finished reports whether the opponent has crossed the finish line.
func (o *Opponent) Finished() bool {
	return o.Progress >= 1
}
