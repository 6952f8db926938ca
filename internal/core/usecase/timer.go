package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/layout"
	"github.com/alizenart/closeted/internal/core/ports"
)

var errTimersDisabled = errors.New("decision timers are disabled")

// TimerService runs the 48h decision timer of wishlist items over the realtime channel.
type TimerService struct {
	channel  ports.TimerChannel
	reader   ports.ClosetReader
	identity ports.IdentityProvider
	now      func() time.Time
}

func NewTimerService(channel ports.TimerChannel, reader ports.ClosetReader, identity ports.IdentityProvider) *TimerService {
	return &TimerService{
		channel:  channel,
		reader:   reader,
		identity: identity,
		now:      time.Now,
	}
}

func (s *TimerService) Start(ctx context.Context, itemID string) (domain.TimerStatus, error) {
	key, err := s.key(ctx, "start timer", itemID)
	if err != nil {
		return domain.TimerStatus{}, err
	}
	if _, err := s.reader.WishlistItem(ctx, itemID); err != nil {
		return domain.TimerStatus{}, err
	}

	now := s.now()
	timer := domain.NewDecisionTimer(now)
	if err := s.channel.Set(ctx, key, timer); err != nil {
		return domain.TimerStatus{}, fmt.Errorf("set timer: %w", err)
	}
	slog.Info("timer_started", "item_id", itemID, "ends_at", timer.EndsAt())
	return timer.Status(itemID, now), nil
}

// Status reads the channel first and falls back to timer fields stored in the sidecar.
func (s *TimerService) Status(ctx context.Context, itemID string) (domain.TimerStatus, error) {
	key, err := s.key(ctx, "timer status", itemID)
	if err != nil {
		return domain.TimerStatus{}, err
	}

	timer, err := s.channel.Get(ctx, key)
	if err == nil {
		return timer.Status(itemID, s.now()), nil
	}
	if !domain.IsKind(err, domain.ErrNotFound) {
		return domain.TimerStatus{}, fmt.Errorf("get timer: %w", err)
	}

	item, itemErr := s.reader.WishlistItem(ctx, itemID)
	if itemErr != nil {
		return domain.TimerStatus{}, itemErr
	}
	if item.TimerStartedAt == nil || item.TimerEndsAt == nil {
		return domain.TimerStatus{}, err
	}
	stored := domain.DecisionTimer{
		StartTime: item.TimerStartedAt.UnixMilli(),
		EndTime:   item.TimerEndsAt.UnixMilli(),
	}
	return stored.Status(itemID, s.now()), nil
}

// Watch pushes every timer change to fn until the returned func is called.
func (s *TimerService) Watch(ctx context.Context, itemID string, fn func(domain.TimerStatus)) (func(), error) {
	key, err := s.key(ctx, "watch timer", itemID)
	if err != nil {
		return nil, err
	}
	return s.channel.Subscribe(ctx, key, func(timer domain.DecisionTimer) {
		fn(timer.Status(itemID, s.now()))
	})
}

func (s *TimerService) key(ctx context.Context, operation, itemID string) (string, error) {
	if s.channel == nil {
		return "", domain.WrapError(domain.ErrTemporary, operation, errTimersDisabled)
	}
	owner, err := resolveOwner(ctx, s.identity, operation)
	if err != nil {
		return "", err
	}
	if err := layout.ValidateSegment("item id", itemID); err != nil {
		return "", err
	}
	return layout.TimerKey(owner, itemID), nil
}
