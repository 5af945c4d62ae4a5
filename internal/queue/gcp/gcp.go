// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package gcp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/caarlos0/env/v11"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/status"

	"github.com/mia-platform/ingest/internal/logger"
	"github.com/mia-platform/ingest/internal/queue"
)

const (
	loggerName = "ingest:queue:gcp"
)

var (
	// ErrMissingEnvVariable reports missing mandatory environment variables.
	ErrMissingEnvVariable = errors.New("missing environment variable")
	// ErrInvalidEnvVariable reports malformed environment variable values.
	ErrInvalidEnvVariable = errors.New("invalid environment value")
	// ErrGCPQueue wraps errors emitted by the Pub/Sub queue host.
	ErrGCPQueue = errors.New("gcp queue")
)

// Consumer pulls ingestion messages from a Pub/Sub subscription.
type Consumer struct {
	config pubSubConfig

	c atomic.Pointer[pubsub.Client]
}

// NewConsumer returns a Consumer configured from environment variables.
func NewConsumer() (*Consumer, error) {
	cfg, err := env.ParseAs[pubSubConfig]()
	if err != nil {
		return nil, handleError(err)
	}

	if err := checkPubSubConfig(cfg); err != nil {
		return nil, handleError(err)
	}

	return &Consumer{config: cfg}, nil
}

// initPubSubClient initializes the Pub/Sub client once and reuses it afterwards.
func (c *Consumer) initPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	client := c.c.Load()
	if client != nil {
		return client, nil
	}

	client, err := pubsub.NewClient(ctx, c.config.ProjectID)
	if err != nil {
		return nil, err
	}

	if !c.c.CompareAndSwap(nil, client) {
		_ = client.Close()
		return c.c.Load(), nil
	}
	return client, nil
}

// Close shuts down the Pub/Sub client when it was previously initialized.
func (c *Consumer) Close(ctx context.Context) error {
	log := logger.FromContext(ctx).WithName(loggerName)
	log.Debug("closing GCP pub/sub client")

	client := c.c.Swap(nil)
	if client != nil {
		if err := client.Close(); err != nil {
			return handleError(err)
		}
	}

	log.Debug("closed GCP pub/sub client")
	return nil
}

// Start receives messages until ctx is cancelled. Deliveries are handed to handler one at a time.
func (c *Consumer) Start(ctx context.Context, handler queue.Handler) error {
	log := logger.FromContext(ctx).WithName(loggerName)
	client, err := c.initPubSubClient(ctx)
	if err != nil {
		return handleError(err)
	}

	log.Info("starting pubsub subscriber",
		"projectId", c.config.ProjectID,
		"subscriptionId", c.config.SubscriptionID,
		"maxMessages", c.config.MaxMessages,
		"window", c.config.Window.String(),
	)

	subscriber := client.Subscriber(c.config.SubscriptionID)
	subscriber.ReceiveSettings.MaxOutstandingMessages = c.config.MaxMessages

	messages := make(chan *pubsub.Message)
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(messages)
		return subscriber.Receive(groupCtx, func(receiveCtx context.Context, msg *pubsub.Message) {
			select {
			case messages <- msg:
			case <-receiveCtx.Done():
				msg.Nack()
			}
		})
	})

	group.Go(func() error {
		for {
			batch, open := collect(messages, c.config.MaxMessages, c.config.Window)
			if len(batch) > 0 {
				c.process(groupCtx, log, batch, handler)
			}
			if !open {
				return nil
			}
		}
	})

	return handleError(group.Wait())
}

func (c *Consumer) process(ctx context.Context, log logger.Logger, batch []*pubsub.Message, handler queue.Handler) {
	delivery := make(queue.Delivery, 0, len(batch))
	acknowledgers := make([]acknowledger, 0, len(batch))
	for _, msg := range batch {
		delivery = append(delivery, queue.Message{
			ID:         msg.ID,
			Body:       string(msg.Data),
			Attributes: msg.Attributes,
		})
		acknowledgers = append(acknowledgers, msg)
	}

	log.Debug("processing delivery", "messages", len(delivery))
	result := handler(ctx, delivery)
	acked, nacked := settle(delivery, acknowledgers, result)
	log.Debug("delivery settled", "acked", acked, "nacked", nacked)
}

// acknowledger is the subset of *pubsub.Message used to settle a delivery.
type acknowledger interface {
	Ack()
	Nack()
}

// settle nacks the messages listed in result and acks the others. acknowledgers[i] settles delivery[i].
func settle(delivery queue.Delivery, acknowledgers []acknowledger, result queue.Result) (int, int) {
	acked, nacked := 0, 0
	for i, msg := range delivery {
		if slices.Contains(result.Failed, msg.ID) {
			acknowledgers[i].Nack()
			nacked++
			continue
		}
		acknowledgers[i].Ack()
		acked++
	}
	return acked, nacked
}

// collect waits for a first value from in, then keeps reading until limit values are collected
// or window elapses. It returns false once in is closed.
func collect[T any](in <-chan T, limit int, window time.Duration) ([]T, bool) {
	first, open := <-in
	if !open {
		return nil, false
	}

	batch := []T{first}
	timer := time.NewTimer(window)
	defer timer.Stop()

	for len(batch) < limit {
		select {
		case value, open := <-in:
			if !open {
				return batch, false
			}
			batch = append(batch, value)
		case <-timer.C:
			return batch, true
		}
	}
	return batch, true
}

// handleError unwraps known errors and wraps them with ErrGCPQueue.
func handleError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrGCPQueue) {
		return err
	}

	if statusErr, ok := status.FromError(err); ok && !errors.Is(err, ErrMissingEnvVariable) && !errors.Is(err, ErrInvalidEnvVariable) {
		err = errors.New(statusErr.Message())
	}

	return fmt.Errorf("%w: %w", ErrGCPQueue, err)
}
