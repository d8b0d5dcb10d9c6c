package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrPublisherUnavailable is returned while the publishing circuit is open.
var ErrPublisherUnavailable = errors.New("event publisher unavailable")

// BreakerSettings configures the circuit around a Publisher.
type BreakerSettings struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32
	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration
}

// PublishingHandler forwards events to a Publisher, keyed by event type.
type PublishingHandler struct {
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
	logger    *slog.Logger
}

// NewPublishingHandler wraps publisher in a circuit breaker.
func NewPublishingHandler(publisher Publisher, settings BreakerSettings, logger *slog.Logger) *PublishingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "event_publisher"))

	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "task-events",
		MaxRequests: 1,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &PublishingHandler{
		publisher: publisher,
		breaker:   breaker,
		logger:    logger,
	}
}

// HandleEvent implements EventHandler.
func (h *PublishingHandler) HandleEvent(ctx context.Context, event *TaskEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.ID, err)
	}

	_, err = h.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, h.publisher.Publish(ctx, event.Type, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrPublisherUnavailable, err)
	}
	return err
}

// State reports the current circuit state.
func (h *PublishingHandler) State() gobreaker.State {
	return h.breaker.State()
}

// Ensure PublishingHandler implements EventHandler interface
var _ EventHandler = (*PublishingHandler)(nil)
