package settings

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Service reads configuration values live; values are never cached here,
// every call goes back to the store.
type Service struct {
	repo Repository
}

// NewService creates settings service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Int returns an integer setting, falling back to def when the key is
// missing or malformed.
func (s *Service) Int(ctx context.Context, key string, def int) int {
	raw, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to read setting")
		return def
	}
	if !ok {
		return def
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("Malformed integer setting")
		return def
	}
	return value
}

// IntInRange returns an integer setting clamped to [min, max]. Out-of-range
// stored values are clamped, not rejected, so a bad admin edit cannot push a
// policy outside its bounds.
func (s *Service) IntInRange(ctx context.Context, key string, def, min, max int) int {
	value := s.Int(ctx, key, def)
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
