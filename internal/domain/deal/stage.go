package deal

import "fmt"

// Stage represents a deal pipeline stage
type Stage string

const (
	StageInterest       Stage = "interest"
	StageContact        Stage = "contact"
	StageInfoExchange   Stage = "info_exchange"
	StageAnalysis       Stage = "analysis"
	StageAlignment      Stage = "alignment"
	StageNegotiation    Stage = "negotiation"
	StageLetterOfIntent Stage = "letter_of_intent"
	StageAudits         Stage = "audits"
	StageFinancing      Stage = "financing"
	StageSigned         Stage = "signed"

	// Absorbing states. Reachable only through Release/Abandon, never Move.
	StageReleased  Stage = "released"
	StageAbandoned Stage = "abandoned"
)

// stageOrdinals is the business rank of each ordinary stage. It is
// maintained here, separately from any storage ordering, so adding a stage
// later cannot silently corrupt forward-only comparisons.
var stageOrdinals = map[Stage]int{
	StageInterest:       0,
	StageContact:        1,
	StageInfoExchange:   2,
	StageAnalysis:       3,
	StageAlignment:      4,
	StageNegotiation:    5,
	StageLetterOfIntent: 6,
	StageAudits:         7,
	StageFinancing:      8,
	StageSigned:         9,
}

// Ordinal returns the stage rank. Absorbing states have no ordinal.
func (s Stage) Ordinal() (int, bool) {
	ord, ok := stageOrdinals[s]
	return ord, ok
}

// Absorbing reports whether the stage is terminal
func (s Stage) Absorbing() bool {
	return s == StageReleased || s == StageAbandoned
}

// ParseStage validates a raw stage name from a request
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if _, ok := stageOrdinals[s]; ok {
		return s, nil
	}
	if s.Absorbing() {
		return s, nil
	}
	return "", fmt.Errorf("unknown stage: %s", raw)
}

// StageGroup buckets stages for timer policy purposes
type StageGroup string

const (
	GroupDiscovery   StageGroup = "discovery"
	GroupNegotiation StageGroup = "negotiation"
	GroupClosing     StageGroup = "closing"
)

// Group returns the timer group a stage belongs to. Absorbing states have
// no group.
func (s Stage) Group() (StageGroup, bool) {
	ord, ok := stageOrdinals[s]
	if !ok {
		return "", false
	}
	switch {
	case ord <= 3:
		return GroupDiscovery, true
	case ord <= 6:
		return GroupNegotiation, true
	default:
		return GroupClosing, true
	}
}
