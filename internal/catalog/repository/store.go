package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

const (
	projectKeyPrefix   = "tztw:project:"        // Project record: tztw:project:{id}
	projectOrderKey    = "tztw:projects:order"  // LIST of project ids in display order
	projectIDSetKey    = "tztw:projects:ids"    // SET of project ids, guards against duplicate order entries
	typeHashKey        = "tztw:types"           // HASH type key -> ProjectTypeDef
	typeOrderKey       = "tztw:types:order"     // LIST of type keys in creation order
	userHashKey        = "tztw:users"           // HASH user id -> User
	userOrderKey       = "tztw:users:order"     // LIST of user ids in creation order
	usernameIndexKey   = "tztw:usernames"       // HASH username -> user id
	sessionKeyPrefix   = "tztw:session:"        // Session: tztw:session:{token}
	selectionKeyPrefix = "tztw:selection:"      // Selected ids of a client session: tztw:selection:{session_id}
	settingsKey        = "tztw:settings"        // HASH of global settings
	eventsChannel      = "tztw:events"          // Pub/Sub channel for change events
	selectionTTL       = 30 * 24 * time.Hour    // Idle selections expire after 30 days
	defaultSessionTTL  = 7 * 24 * time.Hour
)

// Store is the Redis-backed entity store. It owns every persisted Project,
// User and ProjectTypeDef record plus sessions and per-session selections.
type Store struct {
	client     *redis.Client
	sessionTTL time.Duration
	now        func() time.Time
}

func New(client *redis.Client, sessionTTL time.Duration) *Store {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &Store{
		client:     client,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Ping checks connectivity for health reporting.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Publish sends a change event. Delivery is best effort; a failed publish is
// logged and never fails the mutation that caused it.
func (s *Store) Publish(ctx context.Context, ev domain.Event) {
	if ev.At.IsZero() {
		ev.At = s.now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.client.Publish(ctx, eventsChannel, data).Err(); err != nil {
		slog.WarnContext(ctx, "publish change event failed", "type", ev.Type, "error", err)
	}
}

// Subscribe returns a subscription to change events. The caller must close it.
func (s *Store) Subscribe(ctx context.Context) *redis.PubSub {
	return s.client.Subscribe(ctx, eventsChannel)
}

// DecodeEvent parses a message received from Subscribe.
func DecodeEvent(msg *redis.Message) (domain.Event, error) {
	var ev domain.Event
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		return ev, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return ev, nil
}

// Helper methods for key generation
func (s *Store) projectKey(id string) string {
	return fmt.Sprintf("%s%s", projectKeyPrefix, id)
}

func (s *Store) sessionKey(token string) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, token)
}

func (s *Store) selectionKey(sessionID string) string {
	return fmt.Sprintf("%s%s", selectionKeyPrefix, sessionID)
}
