package race

import "time"

// PowerUpKind identifies one of the consumable race modifiers.
type PowerUpKind string

const (
	SpeedBoost     PowerUpKind = "speed_boost"
	AccuracyShield PowerUpKind = "accuracy_shield"
	TimeFreeze     PowerUpKind = "time_freeze"
)

// PowerUpKinds lists all kinds in activation-key order.
var PowerUpKinds = []PowerUpKind{SpeedBoost, AccuracyShield, TimeFreeze}

// Duration returns the fixed active window for the kind.
func (k PowerUpKind) Duration() time.Duration {
	switch k {
	case SpeedBoost:
		return 10 * time.Second
	case AccuracyShield:
		return 5 * time.Second
	case TimeFreeze:
		return 3 * time.Second
	default:
		return 0
	}
}

// speedBoostFactor is the display WPM multiplier while a speed boost runs.
const speedBoostFactor = 1.2

// powerUp tracks one kind's inventory and active window. Expiry is a
// deadline checked on tick rather than a timer callback, so resetting the
// race cancels every pending deactivation atomically.
type powerUp struct {
	count     int
	active    bool
	expiresAt time.Time
}

// activate consumes one charge if the gate allows it. Activation while
// already active or with an empty inventory is a no-op.
func (p *powerUp) activate(kind PowerUpKind, now time.Time) bool {
	if p.count <= 0 || p.active {
		return false
	}
	p.count--
	p.active = true
	p.expiresAt = now.Add(kind.Duration())
	return true
}

// expire deactivates once the deadline passes. Idempotent.
func (p *powerUp) expire(now time.Time) bool {
	if p.active && !now.Before(p.expiresAt) {
		p.active = false
		return true
	}
	return false
}

// cancel clears any active window without refunding the charge.
func (p *powerUp) cancel() {
	p.active = false
	p.expiresAt = time.Time{}
}

// PowerUpState is a read-only snapshot of one kind's inventory.
type PowerUpState struct {
	Kind   PowerUpKind
	Count  int
	Active bool
}
