package docstore

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]Document
}

func NewMemory() *Memory {
	return &Memory{data: map[string]map[string]Document{}}
}

func (m *Memory) Get(ctx context.Context, collection, key string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.data[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return Clone(doc), nil
}

func (m *Memory) Set(ctx context.Context, collection, key string, fields Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.collection(collection)
	docs[key] = Merge(docs[key], Clone(fields))
	return nil
}

func (m *Memory) Replace(ctx context.Context, collection, key string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := Clone(doc)
	if stored == nil {
		stored = Document{}
	}
	m.collection(collection)[key] = stored
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[collection], key)
	return nil
}

// List returns snapshots ordered by key.
func (m *Memory) List(ctx context.Context, collection string) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.data[collection]
	out := make([]Snapshot, 0, len(docs))
	for key, doc := range docs {
		out = append(out, Snapshot{Key: key, Data: Clone(doc)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) collection(name string) map[string]Document {
	docs, ok := m.data[name]
	if !ok {
		docs = map[string]Document{}
		m.data[name] = docs
	}
	return docs
}
