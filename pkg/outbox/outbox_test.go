package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orchestraops/planning-service/pkg/db/models"
	"github.com/orchestraops/planning-service/pkg/enums"
	"github.com/orchestraops/planning-service/pkg/logger"
)

func newOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.OutboxEvent{}, &models.OutboxDLQ{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(testLogger())
	err := svc.Emit(context.Background(), nil, ChangeEvent{
		Kind:      enums.KindConcert,
		EntityID:  1,
		Operation: enums.OperationCreated,
	})
	if err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestEmitPersistsEnvelope(t *testing.T) {
	db := newOutboxTestDB(t)
	svc := NewService(testLogger())

	tx := db.Begin()
	err := svc.Emit(context.Background(), tx, ChangeEvent{
		Kind:          enums.KindConcert,
		EntityID:      7,
		Operation:     enums.OperationCreated,
		CorrelationID: "corr-7",
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	var row models.OutboxEvent
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	if row.EntityKind != enums.KindConcert || row.EntityID != 7 {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.Operation != enums.OperationCreated {
		t.Fatalf("unexpected operation %q", row.Operation)
	}
	if row.CorrelationID != "corr-7" {
		t.Fatalf("unexpected correlation id %q", row.CorrelationID)
	}
	if row.PublishedAt != nil {
		t.Fatalf("new row must be pending")
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if envelope.EntityID != 7 || envelope.CorrelationID != "corr-7" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	if envelope.Operation != enums.OperationCreated {
		t.Fatalf("unexpected envelope operation %q", envelope.Operation)
	}
	if envelope.EventID == "" || envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope missing event id or timestamp: %+v", envelope)
	}
}

func TestEmitGeneratesCorrelationID(t *testing.T) {
	db := newOutboxTestDB(t)
	svc := NewService(nil)

	tx := db.Begin()
	err := svc.Emit(context.Background(), tx, ChangeEvent{
		Kind:      enums.KindRehearsal,
		EntityID:  3,
		Operation: enums.OperationDeleted,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	var row models.OutboxEvent
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	if row.CorrelationID == "" {
		t.Fatal("expected generated correlation id")
	}
}

func TestEmitRejectsInvalidEvents(t *testing.T) {
	db := newOutboxTestDB(t)
	svc := NewService(nil)

	tx := db.Begin()
	defer tx.Rollback()

	if err := svc.Emit(context.Background(), tx, ChangeEvent{
		Kind: "gala", EntityID: 1, Operation: enums.OperationCreated,
	}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if err := svc.Emit(context.Background(), tx, ChangeEvent{
		Kind: enums.KindConcert, EntityID: 1, Operation: "renamed",
	}); err == nil {
		t.Fatal("expected error for unknown operation")
	}
	if err := svc.Emit(context.Background(), tx, ChangeEvent{
		Kind: enums.KindConcert, Operation: enums.OperationCreated,
	}); err == nil {
		t.Fatal("expected error for missing entity id")
	}
}

func TestFetchUnpublishedOrdersBySequence(t *testing.T) {
	db := newOutboxTestDB(t)
	svc := NewService(nil)
	repo := NewRepository(db)

	for i := int64(1); i <= 3; i++ {
		tx := db.Begin()
		if err := svc.Emit(context.Background(), tx, ChangeEvent{
			Kind:      enums.KindConcert,
			EntityID:  i,
			Operation: enums.OperationCreated,
		}); err != nil {
			t.Fatalf("emit %d: %v", i, err)
		}
		if err := tx.Commit().Error; err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 pending rows, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].ID <= rows[i-1].ID {
			t.Fatalf("rows out of append order: %v then %v", rows[i-1].ID, rows[i].ID)
		}
	}
}

func TestMarkTransitionsConvergeDeliveryState(t *testing.T) {
	db := newOutboxTestDB(t)
	svc := NewService(nil)
	repo := NewRepository(db)

	tx := db.Begin()
	if err := svc.Emit(context.Background(), tx, ChangeEvent{
		Kind:      enums.KindRehearsal,
		EntityID:  9,
		Operation: enums.OperationUpdated,
	}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	rows, err := repo.FetchUnpublishedForPublish(db, 1, 5)
	if err != nil || len(rows) != 1 {
		t.Fatalf("fetch: rows=%d err=%v", len(rows), err)
	}
	id := rows[0].ID

	if err := repo.MarkFailedTx(db, id, errors.New("broker down")); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	var row models.OutboxEvent
	if err := db.First(&row, id).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if row.AttemptCount != 1 || row.LastError == nil {
		t.Fatalf("expected attempt bookkeeping, got %+v", row)
	}

	if err := repo.MarkPublishedTx(db, id); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	if err := db.First(&row, id).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if row.PublishedAt == nil {
		t.Fatal("expected published_at to be set")
	}

	rows, err = repo.FetchUnpublishedForPublish(db, 10, 5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("published row still pending: %v", rows)
	}
}

func TestTerminalRowsDropOutOfFetch(t *testing.T) {
	db := newOutboxTestDB(t)
	svc := NewService(nil)
	repo := NewRepository(db)

	tx := db.Begin()
	if err := svc.Emit(context.Background(), tx, ChangeEvent{
		Kind:      enums.KindConcert,
		EntityID:  4,
		Operation: enums.OperationDeleted,
	}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	rows, err := repo.FetchUnpublishedForPublish(db, 1, 3)
	if err != nil || len(rows) != 1 {
		t.Fatalf("fetch: rows=%d err=%v", len(rows), err)
	}
	if err := repo.MarkTerminalTx(db, rows[0].ID, errors.New("poison"), 3); err != nil {
		t.Fatalf("mark terminal: %v", err)
	}

	rows, err = repo.FetchUnpublishedForPublish(db, 10, 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("terminal row still fetched: %v", rows)
	}
}

func TestDLQInsertAndLookup(t *testing.T) {
	db := newOutboxTestDB(t)
	dlq := NewDLQRepository(db)

	msg := "unreachable topic"
	entry := models.OutboxDLQ{
		EventID:       11,
		EntityKind:    enums.KindConcert,
		EntityID:      4,
		Operation:     enums.OperationDeleted,
		CorrelationID: "corr-4",
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
		AttemptCount:  3,
	}
	if err := dlq.InsertTx(db, entry); err != nil {
		t.Fatalf("insert dlq: %v", err)
	}

	found, err := dlq.FindByEventID(context.Background(), 11)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil || found.ErrorReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("unexpected dlq row %+v", found)
	}

	missing, err := dlq.FindByEventID(context.Background(), 999)
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing event, got %+v", missing)
	}

	list, err := dlq.List(context.Background(), 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: rows=%d err=%v", len(list), err)
	}
}

func TestDLQErrorMessageTruncatesOnRuneBoundary(t *testing.T) {
	db := newOutboxTestDB(t)
	dlq := NewDLQRepository(db)

	// 1023 ASCII bytes, then a 3-byte rune straddling the cap.
	msg := strings.Repeat("a", maxDLQErrorLen-1) + "世界"
	entry := models.OutboxDLQ{
		EventID:       12,
		EntityKind:    enums.KindRehearsal,
		EntityID:      7,
		Operation:     enums.OperationUpdated,
		CorrelationID: "corr-7",
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonNonRetryable,
		ErrorMessage:  &msg,
		AttemptCount:  1,
	}
	if err := dlq.InsertTx(db, entry); err != nil {
		t.Fatalf("insert dlq: %v", err)
	}

	found, err := dlq.FindByEventID(context.Background(), 12)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil || found.ErrorMessage == nil {
		t.Fatalf("expected stored error message, got %+v", found)
	}
	stored := *found.ErrorMessage
	if len(stored) > maxDLQErrorLen {
		t.Fatalf("stored message exceeds cap: %d bytes", len(stored))
	}
	if !utf8.ValidString(stored) {
		t.Fatal("truncation produced invalid UTF-8")
	}
	if want := strings.Repeat("a", maxDLQErrorLen-1); stored != want {
		t.Fatalf("expected cut before the straddling rune, got %d bytes", len(stored))
	}
}

func TestMessageKeyStablePerOperation(t *testing.T) {
	cases := map[string]string{
		MessageKey(enums.KindConcert, enums.OperationCreated):   "add_concert",
		MessageKey(enums.KindConcert, enums.OperationUpdated):   "edit_concert",
		MessageKey(enums.KindConcert, enums.OperationDeleted):   "delete_concert",
		MessageKey(enums.KindRehearsal, enums.OperationCreated): "add_rehearsal",
		MessageKey(enums.KindRehearsal, enums.OperationUpdated): "edit_rehearsal",
		MessageKey(enums.KindRehearsal, enums.OperationDeleted): "delete_rehearsal",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected key %q, got %q", want, got)
		}
	}
	if MessageKey(enums.KindConcert, "archived") != "" {
		t.Fatal("unknown operation must map to empty key")
	}
}
