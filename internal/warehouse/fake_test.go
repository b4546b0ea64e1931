// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package warehouse

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/tomtom215/retention/internal/models"
)

// fakeClient serves in-memory tables split into pages of the requested size.
type fakeClient struct {
	mu       sync.Mutex
	tables   []string
	rows     map[string][]models.RawEventRow
	requests []PageRequest
	listErr  error
	readErr  error
	pingErr  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{rows: make(map[string][]models.RawEventRow)}
}

func (f *fakeClient) addTable(id string, rows []models.RawEventRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables = append(f.tables, id)
	f.rows[id] = rows
}

func (f *fakeClient) ListTables(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.tables...), nil
}

func (f *fakeClient) Schema(ctx context.Context, table string) (Schema, error) {
	return Schema{{Name: "event_name", Type: "STRING"}}, nil
}

func (f *fakeClient) ReadPage(ctx context.Context, table string, req PageRequest) (*Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.readErr != nil {
		return nil, f.readErr
	}
	rows, ok := f.rows[table]
	if !ok {
		return nil, errors.New("table not found: " + table)
	}

	start := 0
	if req.Token != "" {
		n, err := strconv.Atoi(req.Token)
		if err != nil {
			return nil, errors.New("bad token")
		}
		start = n
	}
	end := start + req.Size
	if end > len(rows) {
		end = len(rows)
	}

	page := &Page{Token: req.Token, Rows: append([]models.RawEventRow(nil), rows[start:end]...)}
	if end < len(rows) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeClient) Ping(ctx context.Context) error {
	return f.pingErr
}

func eventRows(n int) []models.RawEventRow {
	rows := make([]models.RawEventRow, n)
	for i := range rows {
		rows[i] = models.RawEventRow{
			EventName:    models.EventSessionStart,
			UserPseudoID: "U" + strconv.Itoa(i),
			EventDate:    "20240101",
		}
	}
	return rows
}
