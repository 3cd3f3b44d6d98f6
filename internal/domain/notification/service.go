package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// channelPrefix is the redis pub/sub namespace for per-account delivery
const channelPrefix = "notifications:"

// Channel returns the redis channel carrying one account's notifications
func Channel(accountID uuid.UUID) string {
	return channelPrefix + accountID.String()
}

// Service stores notifications and fans them out over redis for connected
// websocket clients. It satisfies the ledger's Notifier interface.
type Service struct {
	repo  Repository
	redis *redis.Client
}

// NewService creates notification service. The redis client may be nil, in
// which case notifications are stored but not pushed live.
func NewService(db *sqlx.DB, redisClient *redis.Client) *Service {
	return &Service{repo: NewRepository(db), redis: redisClient}
}

// Notify persists a notification and publishes it to the account's channel
func (s *Service) Notify(ctx context.Context, accountID uuid.UUID, kind, title, message, link string) error {
	n := &Notification{
		ID:        uuid.New(),
		AccountID: accountID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	s.publish(ctx, n)
	return nil
}

func (s *Service) publish(ctx context.Context, n *Notification) {
	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return
	}
	if err := s.redis.Publish(ctx, Channel(n.AccountID), payload).Err(); err != nil {
		log.Warn().Err(err).Str("account_id", n.AccountID.String()).Msg("notification publish failed")
	}
}

func (s *Service) List(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Notification, error) {
	return s.repo.ListByAccount(ctx, accountID, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, accountID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, accountID)
}

func (s *Service) MarkRead(ctx context.Context, id, accountID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, accountID)
}

func (s *Service) MarkAllRead(ctx context.Context, accountID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, accountID)
}
