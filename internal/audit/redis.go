package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// EventsChannel is the pub/sub channel every event is published on.
const EventsChannel = "combat:events"

// RedisSink keeps a capped per-fight event list and publishes each event.
type RedisSink struct {
	client    *redis.Client
	maxEvents int64
}

// NewRedisSink connects to addr and verifies the connection.
func NewRedisSink(ctx context.Context, addr, password string, maxEvents int64) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if maxEvents <= 0 {
		maxEvents = 200
	}
	return &RedisSink{client: client, maxEvents: maxEvents}, nil
}

func eventsKey(fightID string) string {
	return fmt.Sprintf("combat:fight:%s:events", fightID)
}

func (s *RedisSink) RecordCombatEvent(ctx context.Context, fightID string, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	key := eventsKey(fightID)
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, b)
		p.LTrim(ctx, key, -s.maxEvents, -1)
		p.Publish(ctx, EventsChannel, b)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record event for fight %s: %w", fightID, err)
	}
	return nil
}

// Events returns the retained events for a fight, oldest first.
func (s *RedisSink) Events(ctx context.Context, fightID string) ([]Event, error) {
	raw, err := s.client.LRange(ctx, eventsKey(fightID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(raw))
	for _, r := range raw {
		var ev Event
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
