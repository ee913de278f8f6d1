package content

import (
	"context"
	"sort"
	"sync"
)

// MemorySource is an in-memory Source used in tests and local development.
type MemorySource struct {
	mu    sync.RWMutex
	items map[int64]Item
}

// NewMemorySource builds a MemorySource seeded with the given items.
func NewMemorySource(items ...Item) *MemorySource {
	s := &MemorySource{items: make(map[int64]Item, len(items))}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

// Put inserts or replaces an item.
func (s *MemorySource) Put(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// Remove deletes an item.
func (s *MemorySource) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

func (s *MemorySource) ListByTypeAndStatus(ctx context.Context, types, statuses []string, page, pageSize int) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Item
	for _, item := range s.items {
		if contains(types, item.Type) && contains(statuses, item.Status) {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (s *MemorySource) Get(ctx context.Context, id int64) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
