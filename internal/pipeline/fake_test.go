// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retention/internal/logging"
	"github.com/tomtom215/retention/internal/models"
	"github.com/tomtom215/retention/internal/warehouse"
)

// fakeWarehouse serves in-memory tables one page size at a time.
type fakeWarehouse struct {
	mu      sync.Mutex
	tables  []string
	rows    map[string][]models.RawEventRow
	readErr map[string]error
	listErr error
	reads   map[string]int
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{
		rows:    make(map[string][]models.RawEventRow),
		readErr: make(map[string]error),
		reads:   make(map[string]int),
	}
}

func (f *fakeWarehouse) addTable(id string, rows ...models.RawEventRow) {
	f.tables = append(f.tables, id)
	f.rows[id] = rows
}

func (f *fakeWarehouse) ListTables(context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.tables...), nil
}

func (f *fakeWarehouse) Schema(context.Context, string) (warehouse.Schema, error) {
	return nil, nil
}

func (f *fakeWarehouse) ReadPage(_ context.Context, table string, req warehouse.PageRequest) (*warehouse.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[table]++
	if err := f.readErr[table]; err != nil {
		return nil, err
	}
	rows, ok := f.rows[table]
	if !ok {
		return nil, errors.New("no such table " + table)
	}

	start := 0
	if req.Token != "" {
		start, _ = strconv.Atoi(req.Token)
	}
	end := min(start+req.Size, len(rows))
	page := &warehouse.Page{Token: req.Token, Rows: rows[start:end]}
	if end < len(rows) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeWarehouse) Ping(context.Context) error { return nil }

func (f *fakeWarehouse) readCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[table]
}

func int64Ptr(v int64) *int64 { return &v }

func intAttr(key string, v int64) models.Attribute {
	return models.Attribute{Key: key, Value: &models.AttributeValue{IntValue: int64Ptr(v)}}
}

// firstOpen builds a first_open row. installMs of 0 omits first_open_time.
func firstOpen(user, date string, installMs int64, platform, country string) models.RawEventRow {
	row := models.RawEventRow{
		EventName:    models.EventFirstOpen,
		UserPseudoID: user,
		EventDate:    date,
		Platform:     platform,
		Geo:          &models.Geo{Country: country},
	}
	if installMs != 0 {
		row.UserProperties = []models.Attribute{intAttr(models.AttrFirstOpenTime, installMs)}
	}
	return row
}

// sessionStart builds a session_start row with an event timestamp in microseconds.
func sessionStart(user, date string, sessionID, tsMs int64, platform, country string) models.RawEventRow {
	return models.RawEventRow{
		EventName:      models.EventSessionStart,
		UserPseudoID:   user,
		EventDate:      date,
		EventTimestamp: int64Ptr(tsMs * 1000),
		Platform:       platform,
		Geo:            &models.Geo{Country: country},
		EventParams:    []models.Attribute{intAttr(models.AttrGASessionID, sessionID)},
	}
}

func testLogger(t *testing.T) (zerolog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return logging.NewTestLogger(&buf), &buf
}
