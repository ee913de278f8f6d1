package index

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/rtCamp/onesearch/internal/content"
	"github.com/rtCamp/onesearch/internal/filter"
	"github.com/rtCamp/onesearch/internal/scope"
)

// DefaultBatchSize is how many content items one reindex page pulls from the
// content source.
const DefaultBatchSize = 100

// Writer owns all writes to the shared index for one scope: schema settings,
// deletes and batched upserts. It is not safe for concurrent reindexing of
// the same scope; delete-before-write ordering matters.
type Writer struct {
	Backend   Backend
	Source    content.Source
	Builder   *Builder
	Logger    *log.Logger
	BatchSize int

	mu              sync.Mutex
	settingsApplied bool
}

// NewWriter wires a Writer with default batch size and logger.
func NewWriter(backend Backend, source content.Source, builder *Builder) *Writer {
	return &Writer{
		Backend:   backend,
		Source:    source,
		Builder:   builder,
		Logger:    log.New(log.Writer(), "[INDEX] ", log.LstdFlags),
		BatchSize: DefaultBatchSize,
	}
}

// ApplySettings pushes the index schema to the backend once per Writer
// lifetime; later calls are free.
func (w *Writer) ApplySettings(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.settingsApplied {
		return nil
	}
	if err := w.Backend.ApplySettings(ctx, DefaultSettings()); err != nil {
		return fmt.Errorf("apply index settings: %w", err)
	}
	w.settingsApplied = true
	return nil
}

// DeleteScope removes every record belonging to the given scope.
func (w *Writer) DeleteScope(ctx context.Context, key scope.Key) error {
	return w.Backend.DeleteBy(ctx, filter.Eq(FieldSite, key.String()))
}

// DeleteDocument removes all chunk records of one logical document.
func (w *Writer) DeleteDocument(ctx context.Context, documentID string) error {
	return w.Backend.DeleteBy(ctx, filter.Eq(FieldDocumentID, documentID))
}

// WriteBatch upserts records, applying settings first if this Writer has not
// yet done so.
func (w *Writer) WriteBatch(ctx context.Context, records []Record) error {
	if err := w.ApplySettings(ctx); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	if err := w.Backend.UpsertBatch(ctx, records); err != nil {
		return err
	}
	recordsWritten.Add(float64(len(records)))
	return nil
}

func (w *Writer) batchSize() int {
	if w.BatchSize > 0 {
		return w.BatchSize
	}
	return DefaultBatchSize
}

// IndexAll rebuilds the index for one scope: existing records are wiped
// first, then the content source is streamed page by page so the full
// content set is never held in memory. An empty types list means the scope
// intentionally indexes nothing and the wipe alone is the whole operation.
//
// Individual batch failures are logged and skipped; the returned bool is
// false when any batch failed so the caller can decide on a retry.
func (w *Writer) IndexAll(ctx context.Context, types []string, key scope.Key) (bool, error) {
	if err := w.ApplySettings(ctx); err != nil {
		return false, err
	}
	if err := w.DeleteScope(ctx, key); err != nil {
		return false, fmt.Errorf("clear scope %s: %w", key, err)
	}
	if len(types) == 0 {
		return true, nil
	}

	ok := true
	for _, contentType := range types {
		statuses := content.AllowedStatuses(contentType)
		for page := 1; ; page++ {
			items, err := w.Source.ListByTypeAndStatus(ctx, []string{contentType}, statuses, page, w.batchSize())
			if err != nil {
				w.Logger.Printf("list %s page %d: %v", contentType, page, err)
				ok = false
				break
			}
			if len(items) == 0 {
				break
			}

			var records []Record
			for _, item := range items {
				recs, err := w.Builder.Build(item)
				if err != nil {
					recordsDropped.Inc()
					w.Logger.Printf("build item %d: %v", item.ID, err)
					continue
				}
				records = append(records, recs...)
			}
			if err := w.WriteBatch(ctx, records); err != nil {
				batchFailures.Inc()
				w.Logger.Printf("write %s page %d: %v", contentType, page, err)
				ok = false
			}
			if len(items) < w.batchSize() {
				break
			}
		}
	}
	return ok, nil
}
