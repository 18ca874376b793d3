package worker

import (
	"context"
	"errors"
	"testing"

	"horas/internal/amqp"
	"horas/internal/core"
	"horas/internal/sheets"
	sheetmem "horas/internal/sheets/memory"
	"horas/internal/storage"
)

type fakeStore struct {
	rows      map[int64]sheets.ActivityRow
	pending   []storage.PendingSyncActivity
	synced    []int64
	syncError []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[int64]sheets.ActivityRow{}}
}

func (f *fakeStore) GetActivityRow(_ context.Context, id int64) (sheets.ActivityRow, error) {
	row, ok := f.rows[id]
	if !ok {
		return sheets.ActivityRow{}, core.ErrNotFound
	}
	return row, nil
}

func (f *fakeStore) GetPendingSyncActivities(_ context.Context, limit int) ([]storage.PendingSyncActivity, error) {
	if limit < len(f.pending) {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeStore) MarkSynced(_ context.Context, id int64) error {
	f.synced = append(f.synced, id)
	return nil
}

func (f *fakeStore) MarkSyncError(_ context.Context, id int64) error {
	f.syncError = append(f.syncError, id)
	return nil
}

func TestHandleSyncMessage(t *testing.T) {
	st := newFakeStore()
	st.rows[1] = sheets.ActivityRow{
		Date:        "2024-07-01",
		UserName:    "María López",
		ProjectName: "Proyecto Alpha",
		Name:        "Sesión",
		Hours:       3,
	}
	writer := sheetmem.New()
	w := NewSyncWorker(st, writer, 10)

	msg := amqp.NewActivitySyncMessage(1, 1)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	rows := writer.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].ProjectName != "Proyecto Alpha" || rows[0].Hours != 3 {
		t.Errorf("unexpected row: %+v", rows[0])
	}
	if len(st.synced) != 1 || st.synced[0] != 1 {
		t.Errorf("synced = %v, want [1]", st.synced)
	}
}

func TestHandleSyncMessageMissingActivity(t *testing.T) {
	st := newFakeStore()
	writer := sheetmem.New()
	w := NewSyncWorker(st, writer, 10)

	// Activity deleted before the message arrived: skip, don't requeue
	msg := amqp.NewActivitySyncMessage(99, 1)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage should not error on missing activity: %v", err)
	}
	if len(writer.Rows()) != 0 {
		t.Error("nothing should be appended for a missing activity")
	}
}

type failingWriter struct{}

func (failingWriter) Append(context.Context, sheets.ActivityRow) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestHandleSyncMessageAppendFailure(t *testing.T) {
	st := newFakeStore()
	st.rows[7] = sheets.ActivityRow{Date: "2024-07-02", Hours: 4}
	w := NewSyncWorker(st, failingWriter{}, 10)

	msg := amqp.NewActivitySyncMessage(7, 1)
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error when append fails")
	}
	if len(st.syncError) != 1 || st.syncError[0] != 7 {
		t.Errorf("syncError = %v, want [7]", st.syncError)
	}
	if len(st.synced) != 0 {
		t.Errorf("nothing should be marked synced, got %v", st.synced)
	}
}

func TestStartupSyncCheck(t *testing.T) {
	st := newFakeStore()
	st.rows[1] = sheets.ActivityRow{Date: "2024-07-01", Hours: 3}
	st.rows[2] = sheets.ActivityRow{Date: "2024-07-02", Hours: 4}
	st.pending = []storage.PendingSyncActivity{{ID: 1, Version: 1}, {ID: 2, Version: 1}, {ID: 3, Version: 1}}
	writer := sheetmem.New()
	w := NewSyncWorker(st, writer, 10)

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}

	if len(writer.Rows()) != 2 {
		t.Errorf("got %d rows, want 2", len(writer.Rows()))
	}
	// id 3 has no row; it gets flagged instead of synced
	if len(st.syncError) != 1 || st.syncError[0] != 3 {
		t.Errorf("syncError = %v, want [3]", st.syncError)
	}
}
