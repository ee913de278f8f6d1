package index

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/rtCamp/onesearch/internal/content"
	"github.com/rtCamp/onesearch/internal/filter"
)

// fakeBackend records calls and can be told to fail specific upsert batches.
type fakeBackend struct {
	settings      []Settings
	deletes       []string
	upserts       [][]Record
	failUpsertsAt map[int]bool
	searchResult  Result
	searchErr     error
}

func (f *fakeBackend) ApplySettings(_ context.Context, s Settings) error {
	f.settings = append(f.settings, s)
	return nil
}

func (f *fakeBackend) DeleteBy(_ context.Context, expr filter.Expr) error {
	f.deletes = append(f.deletes, expr.Render())
	return nil
}

func (f *fakeBackend) UpsertBatch(_ context.Context, records []Record) error {
	call := len(f.upserts)
	f.upserts = append(f.upserts, records)
	if f.failUpsertsAt[call] {
		return errors.New("upsert rejected")
	}
	return nil
}

func (f *fakeBackend) Search(_ context.Context, _ Query) (Result, error) {
	return f.searchResult, f.searchErr
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newTestWriter(t *testing.T, backend *fakeBackend, source content.Source) *Writer {
	t.Helper()
	w := NewWriter(backend, source, NewBuilder(testScope(t)))
	w.Logger = quietLogger()
	return w
}

func TestApplySettingsOnce(t *testing.T) {
	backend := &fakeBackend{}
	w := newTestWriter(t, backend, content.NewMemorySource())

	for i := 0; i < 3; i++ {
		if err := w.ApplySettings(context.Background()); err != nil {
			t.Fatalf("ApplySettings: %v", err)
		}
	}
	if len(backend.settings) != 1 {
		t.Fatalf("settings applied %d times, want 1", len(backend.settings))
	}
	if backend.settings[0].DistinctField != FieldDocumentID {
		t.Errorf("distinct field = %q", backend.settings[0].DistinctField)
	}
}

func TestIndexAllEmptyTypesWipesScope(t *testing.T) {
	backend := &fakeBackend{}
	w := newTestWriter(t, backend, content.NewMemorySource())

	ok, err := w.IndexAll(context.Background(), nil, testScope(t))
	if err != nil {
		t.Fatalf("IndexAll: %v", err)
	}
	if !ok {
		t.Error("expected ok for empty entity map")
	}
	if len(backend.deletes) != 1 || !strings.Contains(backend.deletes[0], FieldSite) {
		t.Errorf("expected a single scope delete, got %v", backend.deletes)
	}
	if len(backend.upserts) != 0 {
		t.Errorf("expected no upserts, got %d", len(backend.upserts))
	}
}

func TestIndexAllWritesRecords(t *testing.T) {
	source := content.NewMemorySource()
	source.Put(content.Item{ID: 1, Type: "post", Status: content.StatusPublish, Title: "One", Content: "alpha"})
	source.Put(content.Item{ID: 2, Type: "post", Status: content.StatusPublish, Title: "Two", Content: "beta"})

	backend := &fakeBackend{}
	w := newTestWriter(t, backend, source)

	ok, err := w.IndexAll(context.Background(), []string{"post"}, testScope(t))
	if err != nil {
		t.Fatalf("IndexAll: %v", err)
	}
	if !ok {
		t.Error("expected ok")
	}
	var total int
	for _, batch := range backend.upserts {
		total += len(batch)
	}
	if total != 2 {
		t.Fatalf("wrote %d records, want 2", total)
	}
}

func TestIndexAllContinuesPastBatchFailure(t *testing.T) {
	source := content.NewMemorySource()
	for i := int64(1); i <= 5; i++ {
		source.Put(content.Item{ID: i, Type: "post", Status: content.StatusPublish, Title: "T", Content: "body"})
	}

	backend := &fakeBackend{failUpsertsAt: map[int]bool{0: true}}
	w := newTestWriter(t, backend, source)
	w.BatchSize = 2

	ok, err := w.IndexAll(context.Background(), []string{"post"}, testScope(t))
	if err != nil {
		t.Fatalf("IndexAll: %v", err)
	}
	if ok {
		t.Error("expected ok=false after a failed batch")
	}
	if len(backend.upserts) != 3 {
		t.Errorf("expected 3 batches despite the failure, got %d", len(backend.upserts))
	}
}

func TestDeleteDocumentFilter(t *testing.T) {
	backend := &fakeBackend{}
	w := newTestWriter(t, backend, content.NewMemorySource())

	if err := w.DeleteDocument(context.Background(), "https://x.example.com_5"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	want := filter.Eq(FieldDocumentID, "https://x.example.com_5").Render()
	if backend.deletes[0] != want {
		t.Errorf("delete filter = %q, want %q", backend.deletes[0], want)
	}
}
