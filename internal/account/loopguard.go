package account

import "time"

// Defaults for subscription flood detection. They are empirical; both are
// configurable through core.subscription_loop_threshold/window.
const (
	DefaultLoopThreshold = 6
	DefaultLoopWindow    = 5 * time.Second
)

// LoopGuard keeps a per-contact log of subscribed/unsubscribed notification
// times and flags contacts whose notifications arrive in a burst.
type LoopGuard struct {
	threshold  int
	window     time.Duration
	log        map[string][]time.Time
	suppressed map[string]bool
}

func NewLoopGuard(threshold int, window time.Duration) *LoopGuard {
	if threshold <= 1 {
		threshold = DefaultLoopThreshold
	}
	if window <= 0 {
		window = DefaultLoopWindow
	}
	return &LoopGuard{
		threshold:  threshold,
		window:     window,
		log:        map[string][]time.Time{},
		suppressed: map[string]bool{},
	}
}

// Record appends a notification for jid and reports whether it completes a
// burst: threshold entries whose oldest is less than window before now. When
// the log reaches the threshold the oldest entry is dropped, so it never
// grows beyond threshold-1 entries between calls.
func (g *LoopGuard) Record(jid string, now time.Time) bool {
	entries := append(g.log[jid], now)
	block := false
	if len(entries) >= g.threshold {
		if now.Sub(entries[0]) < g.window {
			block = true
		}
		entries = entries[1:]
	}
	g.log[jid] = entries
	if block {
		g.suppressed[jid] = true
	}
	return block
}

// Suppressed reports whether automatic acknowledgement is disabled for jid.
func (g *LoopGuard) Suppressed(jid string) bool {
	return g.suppressed[jid]
}

func (g *LoopGuard) Entries(jid string) int {
	return len(g.log[jid])
}
