// Package cache keeps wizard drafts in Redis for deployments that run more
// than one instance behind a load balancer.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/afalagi/internal/wizard"
)

const keyPrefix = "afalagi:draft:"

// Drafts is a wizard.DraftStore backed by Redis. Every save refreshes the TTL.
type Drafts struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect opens a client for addr and checks that the server answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

// NewDrafts returns a draft store that keeps drafts for wizard.DraftTTL.
func NewDrafts(client *redis.Client) *Drafts {
	return &Drafts{client: client, ttl: wizard.DraftTTL}
}

// LoadDraft implements wizard.DraftStore.
func (d *Drafts) LoadDraft(ctx context.Context, key string) ([]byte, error) {
	data, err := d.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, wizard.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	return data, nil
}

// SaveDraft implements wizard.DraftStore. The case id is part of the key
// already, so it is not stored separately.
func (d *Drafts) SaveDraft(ctx context.Context, key, _ string, data []byte) error {
	if err := d.client.Set(ctx, keyPrefix+key, data, d.ttl).Err(); err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// DeleteDraft implements wizard.DraftStore.
func (d *Drafts) DeleteDraft(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}
