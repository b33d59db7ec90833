// Plexrec - Personal Media Suggestions for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexrec

// Package runqueue serialises recommendation runs through a single
// in-process subscriber. Requests from the API, the schedule and startup
// all travel the same topic, so at most one run executes at a time.
package runqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/plexrec/internal/logging"
	"github.com/tomtom215/plexrec/internal/metrics"
	"github.com/tomtom215/plexrec/internal/recommend"
)

// Topic carries run requests.
const Topic = "plexrec.runs"

// DefaultCapacity bounds waiting requests when none is configured.
const DefaultCapacity = 8

var (
	// ErrQueueFull is returned when capacity requests are already waiting.
	ErrQueueFull = errors.New("run queue is full")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("run queue is closed")
)

// Handler executes one run request.
type Handler = func(ctx context.Context, req recommend.RunRequest) error

// Queue is a bounded FIFO of run requests backed by a watermill
// gochannel pub/sub with exactly one subscriber.
//
// GoChannel delivers concurrent publishes in no particular order, so
// Enqueue only appends to an ordered backlog. A single forwarder publishes
// from it and blocks until the subscriber acks, keeping one message in
// flight and delivery in enqueue order.
type Queue struct {
	pubsub   *gochannel.GoChannel
	messages <-chan *message.Message
	backlog  chan *message.Message
	done     chan struct{}
	wg       sync.WaitGroup
	capacity int64
	pending  atomic.Int64
	closed   atomic.Bool
	logger   zerolog.Logger
}

// New creates the queue and its single subscription.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(capacity int, logger zerolog.Logger) (*Queue, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	logger = logger.With().Str("component", "runqueue").Logger()

	wmLogger := watermill.NewSlogLogger(slog.New(logging.NewSlogHandlerWithLogger(logger)))
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, wmLogger)

	messages, err := pubsub.Subscribe(context.Background(), Topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", Topic, err)
	}

	q := &Queue{
		pubsub:   pubsub,
		messages: messages,
		backlog:  make(chan *message.Message, capacity),
		done:     make(chan struct{}),
		capacity: int64(capacity),
		logger:   logger,
	}
	q.wg.Add(1)
	go q.forward()
	return q, nil
}

// forward publishes backlog messages one at a time. Publish returns once
// the consumer has acked, so the next message cannot overtake it.
func (q *Queue) forward() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			return
		case msg := <-q.backlog:
			if err := q.pubsub.Publish(Topic, msg); err != nil {
				if q.closed.Load() {
					return
				}
				metrics.RunQueueDepth.Set(float64(q.pending.Add(-1)))
				q.logger.Error().Err(err).Str("run_id", msg.UUID).Msg("Dropping run request, publish failed")
			}
		}
	}
}

// Enqueue schedules a run and returns its ID. A request without an ID
// gets a fresh UUID.
func (q *Queue) Enqueue(_ context.Context, req recommend.RunRequest) (string, error) {
	if q.closed.Load() {
		return "", ErrClosed
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if q.pending.Add(1) > q.capacity {
		q.pending.Add(-1)
		return "", ErrQueueFull
	}

	payload, err := json.Marshal(req)
	if err != nil {
		q.pending.Add(-1)
		return "", fmt.Errorf("encode run request: %w", err)
	}
	msg := message.NewMessage(req.ID, payload)
	msg.Metadata.Set("trigger", req.Trigger)

	// pending never exceeds capacity, so this send does not block.
	q.backlog <- msg

	metrics.RunQueueDepth.Set(float64(q.pending.Load()))
	q.logger.Debug().Str("run_id", req.ID).Str("trigger", req.Trigger).Msg("Run enqueued")
	return req.ID, nil
}

// Depth returns the number of requests waiting or in progress.
func (q *Queue) Depth() int {
	return int(q.pending.Load())
}

// Consume hands requests to handler one at a time until ctx ends or the
// queue closes. A failing run is logged and dropped; the next trigger
// starts fresh.
func (q *Queue) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-q.messages:
			if !ok {
				return ErrClosed
			}
			q.handle(ctx, msg, handler)
		}
	}
}

func (q *Queue) handle(ctx context.Context, msg *message.Message, handler Handler) {
	defer func() {
		msg.Ack()
		metrics.RunQueueDepth.Set(float64(q.pending.Add(-1)))
	}()

	var req recommend.RunRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		q.logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable run request")
		return
	}

	if err := handler(ctx, req); err != nil {
		q.logger.Warn().Err(err).Str("run_id", req.ID).Msg("Run request failed")
	}
}

// Close stops accepting requests and releases the subscription. Requests
// still in the backlog are discarded.
func (q *Queue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(q.done)
	err := q.pubsub.Close()
	q.wg.Wait()
	return err
}
