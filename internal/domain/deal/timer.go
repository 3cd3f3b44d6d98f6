package deal

import (
	"context"
	"time"
)

// Timer policy day bounds. Configured dwell durations are clamped to this
// range before they reach the policy.
const (
	MinTimerDays = 7
	MaxTimerDays = 60
)

// Settings keys consulted by the timer policy provider.
const (
	SettingDiscoveryDays   = "deal.timer.discovery_days"
	SettingNegotiationDays = "deal.timer.negotiation_days"
)

// Default dwell durations in days when no setting is stored.
const (
	DefaultDiscoveryDays   = 14
	DefaultNegotiationDays = 30
)

// TimerPolicy maps stage groups to maximum dwell durations. Groups absent
// from Dwell are open-ended: the closing group never carries a deadline.
type TimerPolicy struct {
	Dwell map[StageGroup]time.Duration
}

// DwellFor returns the maximum dwell for a stage, and whether the stage is
// timer-tracked at all.
func (p TimerPolicy) DwellFor(stage Stage) (time.Duration, bool) {
	group, ok := stage.Group()
	if !ok {
		return 0, false
	}
	dwell, tracked := p.Dwell[group]
	return dwell, tracked
}

// TimerPolicyProvider fetches the active timer policy. It is consulted once
// per operation; nothing is cached across the settings boundary.
type TimerPolicyProvider interface {
	TimerPolicy(ctx context.Context) (TimerPolicy, error)
}
