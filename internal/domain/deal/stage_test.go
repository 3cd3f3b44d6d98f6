package deal

import (
	"testing"
	"time"
)

func TestStageOrdinals(t *testing.T) {
	ordered := []Stage{
		StageInterest, StageContact, StageInfoExchange, StageAnalysis,
		StageAlignment, StageNegotiation, StageLetterOfIntent, StageAudits,
		StageFinancing, StageSigned,
	}

	for i, stage := range ordered {
		ord, ok := stage.Ordinal()
		if !ok {
			t.Fatalf("stage %s has no ordinal", stage)
		}
		if ord != i {
			t.Errorf("stage %s: ordinal = %d, want %d", stage, ord, i)
		}
	}

	for _, stage := range []Stage{StageReleased, StageAbandoned} {
		if _, ok := stage.Ordinal(); ok {
			t.Errorf("absorbing stage %s should have no ordinal", stage)
		}
		if !stage.Absorbing() {
			t.Errorf("stage %s should be absorbing", stage)
		}
	}
}

func TestStageGroups(t *testing.T) {
	tests := []struct {
		stage Stage
		group StageGroup
	}{
		{StageInterest, GroupDiscovery},
		{StageContact, GroupDiscovery},
		{StageInfoExchange, GroupDiscovery},
		{StageAnalysis, GroupDiscovery},
		{StageAlignment, GroupNegotiation},
		{StageNegotiation, GroupNegotiation},
		{StageLetterOfIntent, GroupNegotiation},
		{StageAudits, GroupClosing},
		{StageFinancing, GroupClosing},
		{StageSigned, GroupClosing},
	}

	for _, tt := range tests {
		group, ok := tt.stage.Group()
		if !ok {
			t.Fatalf("stage %s has no group", tt.stage)
		}
		if group != tt.group {
			t.Errorf("stage %s: group = %s, want %s", tt.stage, group, tt.group)
		}
	}

	if _, ok := StageReleased.Group(); ok {
		t.Error("released should have no group")
	}
}

func TestParseStage(t *testing.T) {
	if _, err := ParseStage("negotiation"); err != nil {
		t.Errorf("negotiation should parse: %v", err)
	}
	if _, err := ParseStage("released"); err != nil {
		t.Errorf("released should parse: %v", err)
	}
	if _, err := ParseStage("due_diligence"); err == nil {
		t.Error("due_diligence should not parse")
	}
	if _, err := ParseStage(""); err == nil {
		t.Error("empty stage should not parse")
	}
}

func TestTimerPolicyDwellFor(t *testing.T) {
	policy := TimerPolicy{Dwell: map[StageGroup]time.Duration{
		GroupDiscovery:   14 * 24 * time.Hour,
		GroupNegotiation: 30 * 24 * time.Hour,
	}}

	if dwell, tracked := policy.DwellFor(StageContact); !tracked || dwell != 14*24*time.Hour {
		t.Errorf("contact: dwell = %v tracked = %v", dwell, tracked)
	}
	if dwell, tracked := policy.DwellFor(StageNegotiation); !tracked || dwell != 30*24*time.Hour {
		t.Errorf("negotiation: dwell = %v tracked = %v", dwell, tracked)
	}

	// Closing stages are open-ended regardless of configuration
	if _, tracked := policy.DwellFor(StageFinancing); tracked {
		t.Error("financing should be untracked")
	}
	if _, tracked := policy.DwellFor(StageReleased); tracked {
		t.Error("released should be untracked")
	}
}
