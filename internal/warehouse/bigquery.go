// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/bigquery"
	bqv2 "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/tomtom215/retention/internal/config"
	"github.com/tomtom215/retention/internal/models"
)

// BigQueryClient implements Client against the BigQuery API.
type BigQueryClient struct {
	project string
	dataset string
	timeout time.Duration

	bq  *bigquery.Client // nil when only the REST service is configured (tests)
	svc *bqv2.Service

	mu      sync.Mutex
	schemas map[string]Schema
}

// NewBigQueryClient connects to the configured project and dataset.
func NewBigQueryClient(ctx context.Context, cfg *config.WarehouseConfig) (*BigQueryClient, error) {
	opts := clientOptions(cfg)

	bq, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}

	svc, err := bqv2.NewService(ctx, opts...)
	if err != nil {
		_ = bq.Close()
		return nil, fmt.Errorf("failed to create bigquery service: %w", err)
	}

	return &BigQueryClient{
		project: cfg.ProjectID,
		dataset: cfg.Dataset,
		timeout: cfg.Timeout,
		bq:      bq,
		svc:     svc,
		schemas: make(map[string]Schema),
	}, nil
}

func clientOptions(cfg *config.WarehouseConfig) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.Endpoint != "":
		opts = append(opts, option.WithoutAuthentication())
	}
	return opts
}

// Close releases the underlying client.
func (c *BigQueryClient) Close() error {
	if c.bq == nil {
		return nil
	}
	return c.bq.Close()
}

func (c *BigQueryClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// ListTables lists the dataset's tables in the order the API returns them.
func (c *BigQueryClient) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var ids []string
	it := c.bq.Dataset(c.dataset).Tables(ctx)
	for {
		t, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list tables in %s: %w", c.dataset, err)
		}
		ids = append(ids, t.TableID)
	}
	return ids, nil
}

// Schema returns the table schema. Schemas are cached per table id since
// daily export tables are immutable once written.
func (c *BigQueryClient) Schema(ctx context.Context, table string) (Schema, error) {
	c.mu.Lock()
	s, ok := c.schemas[table]
	c.mu.Unlock()
	if ok {
		return s, nil
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	md, err := c.bq.Dataset(c.dataset).Table(table).Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata for %s: %w", table, err)
	}
	s = convertSchema(md.Schema)

	c.mu.Lock()
	c.schemas[table] = s
	c.mu.Unlock()
	return s, nil
}

func convertSchema(in bigquery.Schema) Schema {
	out := make(Schema, 0, len(in))
	for _, f := range in {
		out = append(out, Field{
			Name:     f.Name,
			Type:     string(f.Type),
			Repeated: f.Repeated,
			Fields:   convertSchema(f.Schema),
		})
	}
	return out
}

// ReadPage reads one page through tabledata.list, restricted to req.Columns.
func (c *BigQueryClient) ReadPage(ctx context.Context, table string, req PageRequest) (*Page, error) {
	schema, err := c.Schema(ctx, table)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	call := c.svc.Tabledata.List(c.project, c.dataset, table).Context(ctx)
	if req.Size > 0 {
		call = call.MaxResults(int64(req.Size))
	}
	if len(req.Columns) > 0 {
		call = call.SelectedFields(strings.Join(req.Columns, ","))
	}
	if req.Token != "" {
		call = call.PageToken(req.Token)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	fields := schema.Select(req.Columns)
	rows := make([]models.RawEventRow, 0, len(resp.Rows))
	cells := make([]any, 0, len(fields))
	for _, r := range resp.Rows {
		cells = cells[:0]
		for _, cell := range r.F {
			if cell == nil {
				cells = append(cells, nil)
				continue
			}
			cells = append(cells, cell.V)
		}
		rows = append(rows, decodeRow(fields, cells))
	}

	return &Page{Token: req.Token, Rows: rows, NextToken: resp.PageToken}, nil
}

// Ping reads the dataset metadata.
func (c *BigQueryClient) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if _, err := c.bq.Dataset(c.dataset).Metadata(ctx); err != nil {
		return fmt.Errorf("failed to reach dataset %s: %w", c.dataset, err)
	}
	return nil
}
