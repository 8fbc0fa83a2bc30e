// Package events announces committed ledger changes to other processes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Type names the ledger change that happened.
type Type string

const (
	ExpenseCreated  Type = "expense.created"
	ExpenseUpdated  Type = "expense.updated"
	ExpenseDeleted  Type = "expense.deleted"
	PaymentRecorded Type = "payment.recorded"
	MemberAdded     Type = "member.added"
	MemberRemoved   Type = "member.removed"
	GroupDeleted    Type = "group.deleted"
)

// Event is published only after the transaction that caused it has committed.
type Event struct {
	Type      Type   `json:"type"`
	GroupID   string `json:"group_id"`
	ExpenseID string `json:"expense_id,omitempty"`
	MemberID  string `json:"member_id,omitempty"`
	At        int64  `json:"at"`
}

// Publisher delivers events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// RedisPublisher sends events as JSON on a Redis Pub/Sub channel.
type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
}

// NewRedisPublisher creates a publisher on channel.
func NewRedisPublisher(rdb redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// Publish serialises e and publishes it.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	if e.At == 0 {
		e.At = time.Now().Unix()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
