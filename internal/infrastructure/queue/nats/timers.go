package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/alizenart/closeted/internal/core/domain"
)

const DefaultTimerBucket = "closeted_timers"

type kvBucket interface {
	Put(key string, value []byte) (uint64, error)
	Get(key string) (nats.KeyValueEntry, error)
	Watch(keys string, opts ...nats.WatchOpt) (nats.KeyWatcher, error)
}

// TimerStore keeps decision timers in a JetStream key-value bucket, so every
// API replica and client stream sees the same value.
type TimerStore struct {
	kv kvBucket
}

// Timers opens the timer bucket on the queue connection, creating it on first use.
func (q *Queue) Timers(bucket string) (*TimerStore, error) {
	if strings.TrimSpace(bucket) == "" {
		bucket = DefaultTimerBucket
	}
	js, err := q.conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("nats jetstream: %w", err)
	}
	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      bucket,
			Description: "wishlist decision timers",
			History:     1,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("open timer bucket %s: %w", bucket, err)
	}
	return &TimerStore{kv: kv}, nil
}

func (s *TimerStore) Set(_ context.Context, key string, timer domain.DecisionTimer) error {
	payload, err := json.Marshal(timer)
	if err != nil {
		return fmt.Errorf("marshal timer: %w", err)
	}
	if _, err := s.kv.Put(kvKey(key), payload); err != nil {
		return wrapTemporary("put timer", err)
	}
	return nil
}

func (s *TimerStore) Get(_ context.Context, key string) (domain.DecisionTimer, error) {
	entry, err := s.kv.Get(kvKey(key))
	if errors.Is(err, nats.ErrKeyNotFound) {
		return domain.DecisionTimer{}, domain.WrapError(domain.ErrNotFound, "get timer", err)
	}
	if err != nil {
		return domain.DecisionTimer{}, wrapTemporary("get timer", err)
	}
	return decodeTimer(entry.Value())
}

// Subscribe delivers the current value, if any, and every later put until stop is called.
func (s *TimerStore) Subscribe(ctx context.Context, key string, fn func(domain.DecisionTimer)) (func(), error) {
	watcher, err := s.kv.Watch(kvKey(key), nats.Context(ctx))
	if err != nil {
		return nil, wrapTemporary("watch timer", err)
	}

	go func() {
		for entry := range watcher.Updates() {
			// nil marks the end of the initial values.
			if entry == nil || entry.Operation() != nats.KeyValuePut {
				continue
			}
			timer, err := decodeTimer(entry.Value())
			if err != nil {
				slog.Warn("timer_decode_failed", "key", key, "error", err)
				continue
			}
			fn(timer)
		}
	}()

	return func() {
		if err := watcher.Stop(); err != nil {
			slog.Debug("timer_watch_stop_failed", "key", key, "error", err)
		}
	}, nil
}

func decodeTimer(raw []byte) (domain.DecisionTimer, error) {
	var timer domain.DecisionTimer
	if err := json.Unmarshal(raw, &timer); err != nil {
		return domain.DecisionTimer{}, &domain.MalformedRecordError{Field: "timer", Reason: "invalid json", Err: err}
	}
	return timer, nil
}

// kvKey maps "timers/<owner>/<item>" onto the dot-separated key space of the bucket.
func kvKey(key string) string {
	return strings.ReplaceAll(strings.Trim(key, "/"), "/", ".")
}
