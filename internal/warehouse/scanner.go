// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package warehouse

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// PageFunc consumes one page. The page must not be retained after return.
type PageFunc func(ctx context.Context, page *Page) error

// ScanStats summarizes one table scan.
type ScanStats struct {
	Pages int
	Rows  int64
}

// Scanner reads a table page by page.
type Scanner struct {
	client   Client
	pageSize int
	columns  []string
	logger   zerolog.Logger
}

// NewScanner creates a scanner reading pageSize rows of columns per request.
func NewScanner(client Client, pageSize int, columns []string, logger zerolog.Logger) *Scanner {
	return &Scanner{
		client:   client,
		pageSize: pageSize,
		columns:  columns,
		logger:   logger,
	}
}

// Scan reads table from the first page until no continuation token is returned.
func (s *Scanner) Scan(ctx context.Context, table string, fn PageFunc) (ScanStats, error) {
	return s.ScanFrom(ctx, table, "", fn)
}

// ScanFrom reads table starting at token. Each page is handed to fn and
// released before the next request so only one page is resident at a time.
func (s *Scanner) ScanFrom(ctx context.Context, table, token string, fn PageFunc) (ScanStats, error) {
	var stats ScanStats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		page, err := s.client.ReadPage(ctx, table, PageRequest{
			Token:   token,
			Size:    s.pageSize,
			Columns: s.columns,
		})
		if err != nil {
			return stats, fmt.Errorf("page %d of %s: %w", stats.Pages+1, table, err)
		}

		stats.Pages++
		stats.Rows += int64(len(page.Rows))
		s.logger.Debug().
			Str("table", table).
			Int("page", stats.Pages).
			Int("rows", len(page.Rows)).
			Bool("has_next", page.NextToken != "").
			Msg("Fetched page")

		if err := fn(ctx, page); err != nil {
			return stats, err
		}

		next := page.NextToken
		if next == "" {
			return stats, nil
		}
		if next == token {
			return stats, fmt.Errorf("page %d of %s: continuation token did not advance", stats.Pages, table)
		}
		token = next
	}
}
