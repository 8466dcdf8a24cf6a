// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/cartographus/internal/breaker"
	"github.com/tomtom215/cartographus/internal/broker"
	eventpkg "github.com/tomtom215/cartographus/internal/event"
	"github.com/tomtom215/cartographus/internal/eventstore"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
	"github.com/tomtom215/cartographus/internal/router"
	"github.com/tomtom215/cartographus/internal/streamqueue"
)

const idempotencyPrefix = "idempotency:"

// idempotencyRecord mirrors internal/processor's own record shape; the two
// packages share the Badger keyspace (see DESIGN.md's "Idempotency key
// ownership across C8 and C9").
type idempotencyRecord struct {
	EventID string    `json:"event_id"`
	At      time.Time `json:"at"`
}

// Ingester implements SPEC_FULL.md §4.8's synchronous request path:
// validate, deduplicate, route, publish with breaker failover, and
// emergency persist-and-mark-failed when both back-ends refuse the
// event.
type Ingester struct {
	idem  *badger.DB
	store *eventstore.Store
	cfg   Config

	broker        *broker.Publisher
	brokerBreaker *breaker.Breaker
	stream        *streamqueue.Publisher
	streamBreaker *breaker.Breaker
}

// NewIngester builds an Ingester. brokerBreaker must be the same instance
// passed to broker.NewPublisher so its state reflects every publish.
// streamBreaker guards the stream adapter, which has no breaker of its
// own.
func NewIngester(idem *badger.DB, store *eventstore.Store, pub *broker.Publisher, brokerBreaker *breaker.Breaker, stream *streamqueue.Publisher, streamBreaker *breaker.Breaker, cfg Config) *Ingester {
	return &Ingester{
		idem:          idem,
		store:         store,
		cfg:           cfg,
		broker:        pub,
		brokerBreaker: brokerBreaker,
		stream:        stream,
		streamBreaker: streamBreaker,
	}
}

func idempotencyKey(key string) []byte {
	return append([]byte(idempotencyPrefix), []byte(key)...)
}

func (in *Ingester) lookupIdempotency(key string) (string, error) {
	if key == "" {
		return "", nil
	}
	var rec idempotencyRecord
	err := in.idem.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idempotencyKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return "", err
	}
	return rec.EventID, nil
}

func (in *Ingester) recordIdempotency(key, eventID string) error {
	if key == "" {
		return nil
	}
	data, err := json.Marshal(idempotencyRecord{EventID: eventID, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return in.idem.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(idempotencyKey(key), data).WithTTL(in.cfg.IdempotencyTTL)
		return txn.SetEntry(entry)
	})
}

// ingestResult carries what Ingest learned back to the HTTP handler.
type ingestResult struct {
	EventID        string
	QueueMessageID string
	Cached         bool
}

// Ingest runs e through the full §4.8 algorithm. e must already have
// passed Prepare and Validate.
func (in *Ingester) Ingest(ctx context.Context, e *eventpkg.Event) (ingestResult, error) {
	existingID, err := in.lookupIdempotency(e.IdempotencyKey)
	if err != nil {
		return ingestResult{}, err
	}
	if existingID != "" {
		return ingestResult{EventID: existingID, Cached: true}, nil
	}

	priorityClass := router.Route(e)

	queueMessageID, err := in.publishWithFailover(ctx, e, priorityClass)
	if err != nil {
		if ierr := in.emergencyPersist(ctx, e, err); ierr != nil {
			logging.Error().Err(ierr).Str("event_id", e.ID).Msg("emergency persist failed")
			return ingestResult{}, ierr
		}
		return ingestResult{EventID: e.ID}, nil
	}

	if ierr := in.recordIdempotency(e.IdempotencyKey, e.ID); ierr != nil {
		logging.Error().Err(ierr).Str("event_id", e.ID).Msg("failed to record idempotency key at intake")
	}

	return ingestResult{EventID: e.ID, QueueMessageID: queueMessageID}, nil
}

// publishWithFailover pushes e onto the adapter priorityClass selects,
// failing over to the other adapter when the primary's breaker is
// unavailable or the publish itself fails.
func (in *Ingester) publishWithFailover(ctx context.Context, e *eventpkg.Event, priorityClass router.Priority) (string, error) {
	type attempt struct {
		name string
		run  func() (string, error)
	}

	brokerAttempt := attempt{name: "broker", run: func() (string, error) { return e.ID, in.publishBroker(ctx, e) }}
	streamAttempt := attempt{name: "stream", run: func() (string, error) { return in.publishStream(ctx, e) }}

	primary, fallback := streamAttempt, brokerAttempt
	if priorityClass == router.PriorityHighClass {
		primary, fallback = brokerAttempt, streamAttempt
	}

	primaryAvailable := in.breakerFor(primary.name).IsAvailable()
	if primaryAvailable {
		if id, err := primary.run(); err == nil {
			return id, nil
		}
	}

	metrics.RecordQueueFailover(primary.name, fallback.name)
	return fallback.run()
}

func (in *Ingester) breakerFor(name string) *breaker.Breaker {
	if name == "broker" {
		return in.brokerBreaker
	}
	return in.streamBreaker
}

func (in *Ingester) publishBroker(ctx context.Context, e *eventpkg.Event) error {
	return in.broker.Publish(ctx, e)
}

func (in *Ingester) publishStream(ctx context.Context, e *eventpkg.Event) (string, error) {
	var id string
	_, err := in.streamBreaker.Execute(func() (interface{}, error) {
		var pubErr error
		id, pubErr = in.stream.Publish(ctx, e)
		return nil, pubErr
	})
	return id, err
}

// emergencyPersist implements §4.8 step 6's fallback: both adapters
// refused the event, so it is written directly to the store with
// status=failed, making it durable and recoverable offline.
func (in *Ingester) emergencyPersist(ctx context.Context, e *eventpkg.Event, pushErr error) error {
	e.Transition(eventpkg.StatusFailed)
	e.LastError = pushErr.Error()
	if err := in.store.Insert(ctx, e); err != nil && !errors.Is(err, eventstore.ErrDuplicateIdempotencyKey) {
		return err
	}
	return nil
}
