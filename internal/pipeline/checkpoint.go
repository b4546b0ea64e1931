// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	completedPrefix = "pipeline:completed:"
	lastSummaryKey  = "pipeline:last_summary"
)

// Checkpoint records completed tables and the last run summary. Correctness
// never depends on it: reconciliation is idempotent, so a lost checkpoint
// only costs a rescan.
type Checkpoint interface {
	IsCompleted(ctx context.Context, table string) (bool, error)
	MarkCompleted(ctx context.Context, stats TableStats) error
	SaveSummary(ctx context.Context, summary *RunSummary) error
	LastSummary(ctx context.Context) (*RunSummary, error)
}

// BadgerCheckpoint implements Checkpoint using BadgerDB for persistence.
type BadgerCheckpoint struct {
	db    *badger.DB
	owned bool
}

// NewBadgerCheckpoint uses an already open BadgerDB instance.
func NewBadgerCheckpoint(db *badger.DB) *BadgerCheckpoint {
	return &BadgerCheckpoint{db: db}
}

// OpenBadgerCheckpoint opens (or creates) a Badger directory at path.
func OpenBadgerCheckpoint(path string) (*BadgerCheckpoint, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store %s: %w", path, err)
	}
	return &BadgerCheckpoint{db: db, owned: true}, nil
}

// Close closes the Badger instance if this checkpoint opened it.
func (c *BadgerCheckpoint) Close() error {
	if !c.owned {
		return nil
	}
	return c.db.Close()
}

// IsCompleted reports whether table was marked completed.
func (c *BadgerCheckpoint) IsCompleted(_ context.Context, table string) (bool, error) {
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(completedPrefix + table))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("load checkpoint for %s: %w", table, err)
	}
	return found, nil
}

// MarkCompleted stores the table's stats under its completion key.
func (c *BadgerCheckpoint) MarkCompleted(_ context.Context, stats TableStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal table stats: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(completedPrefix+stats.Table), data)
	})
}

// SaveSummary persists the run summary.
func (c *BadgerCheckpoint) SaveSummary(_ context.Context, summary *RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(lastSummaryKey), data)
	})
}

// LastSummary loads the last saved summary. Returns nil, nil if none exists.
func (c *BadgerCheckpoint) LastSummary(_ context.Context) (*RunSummary, error) {
	var summary *RunSummary

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(lastSummaryKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			summary = &RunSummary{}
			return json.Unmarshal(val, summary)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load summary: %w", err)
	}
	return summary, nil
}

// CompletedTables lists the completed table ids in key order.
func (c *BadgerCheckpoint) CompletedTables(_ context.Context) ([]string, error) {
	var tables []string
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(completedPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			tables = append(tables, string(it.Item().Key()[len(completedPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list completed tables: %w", err)
	}
	return tables, nil
}

// InMemoryCheckpoint implements Checkpoint without persistence.
type InMemoryCheckpoint struct {
	mu        sync.Mutex
	completed map[string]TableStats
	summary   *RunSummary
}

// NewInMemoryCheckpoint creates an empty in-memory checkpoint.
func NewInMemoryCheckpoint() *InMemoryCheckpoint {
	return &InMemoryCheckpoint{completed: make(map[string]TableStats)}
}

// IsCompleted reports whether table was marked completed.
func (c *InMemoryCheckpoint) IsCompleted(_ context.Context, table string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.completed[table]
	return ok, nil
}

// MarkCompleted records the table.
func (c *InMemoryCheckpoint) MarkCompleted(_ context.Context, stats TableStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed[stats.Table] = stats
	return nil
}

// SaveSummary stores a copy of summary.
func (c *InMemoryCheckpoint) SaveSummary(_ context.Context, summary *RunSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *summary
	cp.Tables = append([]TableStats(nil), summary.Tables...)
	c.summary = &cp
	return nil
}

// LastSummary returns a copy of the stored summary, or nil.
func (c *InMemoryCheckpoint) LastSummary(_ context.Context) (*RunSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary == nil {
		return nil, nil
	}
	cp := *c.summary
	return &cp, nil
}
