package index

import (
	"context"
	"fmt"
	"log"

	"github.com/rtCamp/onesearch/config"
	"github.com/rtCamp/onesearch/internal/content"
	"github.com/rtCamp/onesearch/internal/scope"
)

// ChangeEvent describes one content lifecycle transition. The core receives
// events explicitly; it never subscribes to an ambient event bus.
type ChangeEvent struct {
	OldStatus string
	NewStatus string
	Item      content.Item
}

// Pusher forwards a change event, with freshly built records, to the
// governing site. Brand sites never hold write credentials, so this is their
// only path into the shared index.
type Pusher interface {
	PushChange(ctx context.Context, ev ChangeEvent, records []Record) error
}

// Watcher reacts to content lifecycle transitions. The governing role
// applies delete/rebuild decisions against the index directly; the brand
// role builds records locally and pushes the event upstream.
type Watcher struct {
	Role           config.Role
	Scope          scope.Key
	Writer         *Writer
	Builder        *Builder
	Pusher         Pusher
	Logger         *log.Logger
	IndexableTypes func(ctx context.Context) ([]string, error)
}

// HandleChange processes one transition. Events for types outside the
// scope's indexable entity map are ignored.
func (w *Watcher) HandleChange(ctx context.Context, ev ChangeEvent) error {
	types, err := w.IndexableTypes(ctx)
	if err != nil {
		return fmt.Errorf("resolve indexable types: %w", err)
	}
	if !typeIndexable(types, ev.Item.Type) {
		return nil
	}

	switch w.Role {
	case config.RoleGoverning:
		return w.applyLocally(ctx, ev)
	case config.RoleBrand:
		return w.pushUpstream(ctx, ev)
	default:
		return fmt.Errorf("unknown role %q", w.Role)
	}
}

func (w *Watcher) applyLocally(ctx context.Context, ev ChangeEvent) error {
	docID := w.Scope.DocumentID(ev.Item.ID)
	if err := w.Writer.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("delete document %s: %w", docID, err)
	}
	if !content.StatusAllowed(ev.Item.Type, ev.NewStatus) {
		return nil
	}
	records, err := w.Builder.Build(ev.Item)
	if err != nil {
		w.Logger.Printf("build item %d after %s->%s: %v", ev.Item.ID, ev.OldStatus, ev.NewStatus, err)
		return nil
	}
	return w.Writer.WriteBatch(ctx, records)
}

func (w *Watcher) pushUpstream(ctx context.Context, ev ChangeEvent) error {
	var records []Record
	if content.StatusAllowed(ev.Item.Type, ev.NewStatus) {
		recs, err := w.Builder.Build(ev.Item)
		if err != nil {
			w.Logger.Printf("build item %d for push: %v", ev.Item.ID, err)
		} else {
			records = recs
		}
	}
	return w.Pusher.PushChange(ctx, ev, records)
}

func typeIndexable(types []string, contentType string) bool {
	for _, t := range types {
		if t == contentType {
			return true
		}
	}
	return false
}
