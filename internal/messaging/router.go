package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.uber.org/zap"
)

// Handler processes a single event. Handlers are synchronous and easy to test.
type Handler[T any] func(ctx context.Context, event *T) error

// Router runs typed handlers over a subscriber with one lifecycle.
type Router struct {
	router     *message.Router
	subscriber message.Subscriber
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewRouter creates a router consuming from subscriber. Panics in handlers are
// recovered and failed messages are retried before being nacked.
func NewRouter(subscriber message.Subscriber, logger *zap.Logger) (*Router, error) {
	adapter := NewZapLoggerAdapter(logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 30 * time.Second}, adapter)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      2,
			Logger:          adapter,
		}.Middleware,
	)

	return &Router{
		router:     router,
		subscriber: subscriber,
		logger:     logger,
		done:       make(chan struct{}),
	}, nil
}

// AddHandler subscribes handler to topic. Payloads that are not valid JSON for
// T are logged and acked so they are not redelivered forever.
func AddHandler[T any](r *Router, name, topic string, handler Handler[T]) {
	r.router.AddNoPublisherHandler(name, topic, r.subscriber, func(msg *message.Message) error {
		var event T
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			r.logger.Error("failed to unmarshal event",
				zap.String("topic", topic),
				zap.String("messageId", msg.UUID),
				zap.Error(err),
			)

			return nil
		}

		if err := handler(msg.Context(), &event); err != nil {
			return err
		}

		r.logger.Debug("processed event",
			zap.String("topic", topic),
			zap.String("correlationId", middleware.MessageCorrelationID(msg)),
		)

		return nil
	})
}

// Start runs the router in the background and returns once it is running.
func (r *Router) Start(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)

	errCh := make(chan error, 1)

	go func() {
		defer close(r.done)

		errCh <- r.router.Run(ctx)
	}()

	select {
	case <-r.router.Running():
		r.logger.Info("message router started")

		return nil
	case err := <-errCh:
		if err == nil {
			err = errors.New("message router stopped before running")
		}

		return err
	}
}

// Shutdown stops the router, waits for in-flight messages and closes the subscriber.
func (r *Router) Shutdown() error {
	r.logger.Info("shutting down message router")

	err := r.router.Close()

	if r.cancel != nil {
		r.cancel()
		<-r.done
	}

	if closeErr := r.subscriber.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	return err
}
