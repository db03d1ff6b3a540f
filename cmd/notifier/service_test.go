package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orchestraops/planning-service/pkg/config"
	"github.com/orchestraops/planning-service/pkg/db"
	"github.com/orchestraops/planning-service/pkg/db/models"
	"github.com/orchestraops/planning-service/pkg/enums"
	"github.com/orchestraops/planning-service/pkg/logger"
	"github.com/orchestraops/planning-service/pkg/outbox"
)

func TestServiceProcessBatchContinuesAcrossEntities(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			{
				ID:         1,
				EntityKind: enums.KindConcert,
				EntityID:   10,
				Operation:  enums.OperationCreated,
				Payload:    mustEnvelopePayload(t, "event-one", 10),
			},
			{
				ID:         2,
				EntityKind: enums.KindRehearsal,
				EntityID:   20,
				Operation:  enums.OperationCreated,
				Payload:    mustEnvelopePayload(t, "event-two", 20),
			},
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	dlqRepo := &fakeDLQRepo{}
	service := newIsolatedService(t, repo, pub, dlqRepo, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.failed[0] != 1 {
		t.Fatalf("failed row recorded wrong ID: %d", repo.failed[0])
	}
	if repo.published[0] != 2 {
		t.Fatalf("published row recorded wrong ID: %d", repo.published[0])
	}
}

func TestServiceBlocksLaterEventsForSameEntityAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			{
				ID:         1,
				EntityKind: enums.KindConcert,
				EntityID:   10,
				Operation:  enums.OperationCreated,
				Payload:    mustEnvelopePayload(t, "first", 10),
			},
			{
				ID:         2,
				EntityKind: enums.KindConcert,
				EntityID:   10,
				Operation:  enums.OperationUpdated,
				Payload:    mustEnvelopePayload(t, "second", 10),
			},
			{
				ID:         3,
				EntityKind: enums.KindConcert,
				EntityID:   11,
				Operation:  enums.OperationCreated,
				Payload:    mustEnvelopePayload(t, "third", 11),
			},
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			// Next result belongs to entity 11; entity 10's second event
			// must not consume one.
			fakePublishResult{},
		},
	}
	dlqRepo := &fakeDLQRepo{}
	service := newIsolatedService(t, repo, pub, dlqRepo, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != 1 {
		t.Fatalf("expected only event 1 marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != 3 {
		t.Fatalf("expected only event 3 published, got %v", repo.published)
	}
	if len(pub.results) != 0 {
		t.Fatalf("expected both publish results consumed, %d left", len(pub.results))
	}
}

func TestServiceProcessBatchWritesDLQOnUnknownKind(t *testing.T) {
	event := models.OutboxEvent{
		ID:         7,
		EntityKind: enums.EntityKind("gala"),
		EntityID:   99,
		Operation:  enums.OperationCreated,
		Payload:    mustEnvelopePayload(t, "unknown-kind", 99),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlqRepo := &fakeDLQRepo{}
	service := newIsolatedService(t, repo, &fakePublisher{}, dlqRepo, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	entry := dlqRepo.entries[0]
	if entry.EventID != event.ID {
		t.Fatalf("dlq event_id mismatch: %d", entry.EventID)
	}
	if entry.Payload == nil || !bytes.Equal(entry.Payload, event.Payload) {
		t.Fatalf("dlq payload mismatch")
	}
	if entry.ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("unexpected error reason: %s", entry.ErrorReason)
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected event marked terminal, got %v", repo.terminal)
	}
}

func TestServiceProcessBatchWritesDLQOnMaxAttempts(t *testing.T) {
	event := models.OutboxEvent{
		ID:           5,
		EntityKind:   enums.KindConcert,
		EntityID:     10,
		Operation:    enums.OperationDeleted,
		Payload:      mustEnvelopePayload(t, "max-attempts", 10),
		AttemptCount: 1,
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
		},
	}
	dlqRepo := &fakeDLQRepo{}
	service := newIsolatedService(t, repo, pub, dlqRepo, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	entry := dlqRepo.entries[0]
	if entry.EventID != event.ID {
		t.Fatalf("dlq event_id mismatch: %d", entry.EventID)
	}
	if entry.ErrorReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("unexpected error reason: %s", entry.ErrorReason)
	}
	if entry.EntityKind != enums.KindConcert || entry.EntityID != 10 {
		t.Fatalf("dlq entity fields mismatch: %+v", entry)
	}
}

func TestServiceRoutesTopicsByKind(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			{
				ID:         1,
				EntityKind: enums.KindConcert,
				EntityID:   1,
				Operation:  enums.OperationCreated,
				Payload:    mustEnvelopePayload(t, "c", 1),
			},
			{
				ID:         2,
				EntityKind: enums.KindRehearsal,
				EntityID:   2,
				Operation:  enums.OperationCreated,
				Payload:    mustEnvelopePayload(t, "r", 2),
			},
		},
	}
	dlqRepo := &fakeDLQRepo{}
	pub := &fakePublisher{
		results: []publishResult{fakePublishResult{}, fakePublishResult{}},
	}
	service := newIsolatedService(t, repo, pub, dlqRepo, nil)

	var topics []string
	service.publisherFactory = func(topic string) publisher {
		topics = append(topics, topic)
		return pub
	}

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(topics) != 2 || topics[0] != "concerts" || topics[1] != "rehearsals" {
		t.Fatalf("unexpected topic routing %v", topics)
	}
}

func TestServicePublishSetsStableMessageKey(t *testing.T) {
	event := models.OutboxEvent{
		ID:            3,
		EntityKind:    enums.KindRehearsal,
		EntityID:      8,
		Operation:     enums.OperationUpdated,
		CorrelationID: "corr-3",
		Payload:       mustEnvelopePayload(t, "keyed", 8),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	service := newIsolatedService(t, repo, pub, &fakeDLQRepo{}, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected 1 message published, got %d", len(pub.messages))
	}
	attrs := pub.messages[0].Attributes
	if attrs["key"] != "edit_rehearsal" {
		t.Fatalf("unexpected message key %q", attrs["key"])
	}
	if attrs["correlation_id"] != "corr-3" {
		t.Fatalf("correlation id not propagated: %v", attrs)
	}
	if attrs["event_id"] != "keyed" {
		t.Fatalf("event id not propagated: %v", attrs)
	}
}

func newIsolatedService(t *testing.T, repo outboxRepository, pub publisher, dlq dlqRepository, outboxCfgOverride *config.OutboxConfig) *Service {
	outboxCfg := config.OutboxConfig{
		BatchSize:      10,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	cfg := &config.Config{
		Outbox: outboxCfg,
		PubSub: config.PubSubConfig{
			ConcertsTopic:   "concerts",
			RehearsalsTopic: "rehearsals",
		},
	}
	logg := logger.New(logger.Options{
		ServiceName: "notifier-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:           cfg,
		Logger:           logg,
		DB:               &fakeDB{},
		PubSub:           &fakePubSubClient{},
		Repository:       repo,
		DLQRepository:    dlq,
		PublisherFactory: func(_ string) publisher { return pub },
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func mustEnvelopePayload(tb testing.TB, eventID string, entityID int64) json.RawMessage {
	tb.Helper()
	env := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		EntityID:   entityID,
		Operation:  enums.OperationCreated,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []int64
	failed    []int64
	terminal  []int64
}

func (f *fakeRepo) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(tx *gorm.DB, id int64) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(tx *gorm.DB, id int64, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(tx *gorm.DB, id int64, err error, terminalAttempts int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

func (f *fakeRepo) CountPending() (int64, error) {
	return int64(len(f.events) - len(f.published) - len(f.terminal)), nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error {
	return nil
}

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error {
	return nil
}

func (f *fakePubSubClient) Publisher(name string) *gcppubsub.Publisher {
	return nil
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "", f.err
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

// flakyMarkRepo drops the first delivery acknowledgement so the batch rolls
// back after the message already left the process, forcing a redelivery.
type flakyMarkRepo struct {
	*outbox.Repository
	marks int
}

func (f *flakyMarkRepo) MarkPublishedTx(tx *gorm.DB, id int64) error {
	f.marks++
	if f.marks == 1 {
		return errors.New("bookkeeping write lost")
	}
	return f.Repository.MarkPublishedTx(tx, id)
}

func TestServiceRedeliveryTouchesOnlyDeliveryBookkeeping(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Concert{}, &models.OutboxEvent{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	concert := models.Concert{
		Title:     "Season Opening",
		Location:  models.Location{Latitude: 52.3676, Longitude: 4.9041},
		StartTime: time.Date(2026, 9, 12, 19, 30, 0, 0, time.UTC),
		Status:    enums.ConcertStatusProposed,
	}
	if err := conn.Create(&concert).Error; err != nil {
		t.Fatalf("seed concert: %v", err)
	}
	event := models.OutboxEvent{
		EntityKind:    enums.KindConcert,
		EntityID:      concert.ID,
		Operation:     enums.OperationCreated,
		CorrelationID: "corr-redelivery",
		Payload:       mustEnvelopePayload(t, "event-redelivery", concert.ID),
	}
	if err := conn.Create(&event).Error; err != nil {
		t.Fatalf("seed outbox event: %v", err)
	}

	var before models.Concert
	if err := conn.First(&before, "id = ?", concert.ID).Error; err != nil {
		t.Fatalf("load concert before: %v", err)
	}

	repo := &flakyMarkRepo{Repository: outbox.NewRepository(conn)}
	pub := &fakePublisher{
		results: []publishResult{fakePublishResult{}, fakePublishResult{}},
	}
	cfg := &config.Config{
		Outbox: config.OutboxConfig{
			BatchSize:      10,
			PollIntervalMS: 100,
			MaxAttempts:    5,
		},
		PubSub: config.PubSubConfig{
			ConcertsTopic:   "concerts",
			RehearsalsTopic: "rehearsals",
		},
	}
	logg := logger.New(logger.Options{
		ServiceName: "notifier-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:           cfg,
		Logger:           logg,
		DB:               db.NewWithConn(conn),
		PubSub:           &fakePubSubClient{},
		Repository:       repo,
		DLQRepository:    &fakeDLQRepo{},
		PublisherFactory: func(_ string) publisher { return pub },
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}

	if _, err := service.processBatch(context.Background()); err == nil {
		t.Fatalf("expected first batch to fail on the lost acknowledgement")
	}
	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("second batch returned error: %v", err)
	}

	if got := len(pub.messages); got != 2 {
		t.Fatalf("expected the event delivered twice, got %d messages", got)
	}

	var after models.Concert
	if err := conn.First(&after, "id = ?", concert.ID).Error; err != nil {
		t.Fatalf("load concert after: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("redelivery changed the concert row: before %+v, after %+v", before, after)
	}
	var concertCount int64
	if err := conn.Model(&models.Concert{}).Count(&concertCount).Error; err != nil {
		t.Fatalf("count concerts: %v", err)
	}
	if concertCount != 1 {
		t.Fatalf("expected 1 concert row, got %d", concertCount)
	}

	var stored models.OutboxEvent
	if err := conn.First(&stored, "id = ?", event.ID).Error; err != nil {
		t.Fatalf("load outbox event: %v", err)
	}
	if stored.PublishedAt == nil {
		t.Fatalf("expected event marked published after redelivery")
	}
	if stored.AttemptCount != 0 {
		t.Fatalf("expected attempt count untouched by redelivery, got %d", stored.AttemptCount)
	}
	if stored.LastError != nil {
		t.Fatalf("expected no last error, got %q", *stored.LastError)
	}
	if stored.EntityKind != event.EntityKind || stored.EntityID != event.EntityID || stored.Operation != event.Operation || stored.CorrelationID != event.CorrelationID {
		t.Fatalf("redelivery rewrote event identity: %+v", stored)
	}
	if !bytes.Equal(stored.Payload, event.Payload) {
		t.Fatalf("redelivery rewrote event payload")
	}
	var eventCount int64
	if err := conn.Model(&models.OutboxEvent{}).Count(&eventCount).Error; err != nil {
		t.Fatalf("count outbox events: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("expected 1 outbox row, got %d", eventCount)
	}
}
