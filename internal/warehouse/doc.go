// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

/*
Package warehouse reads daily analytics export tables from BigQuery.

# Components

  - Client: the contract the pipeline needs from the warehouse (list tables,
    read one page of a table, ping).
  - BigQueryClient: Client backed by cloud.google.com/go/bigquery for table
    listing and schemas, and the BigQuery v2 REST API (tabledata.list) for
    paginated reads restricted to selected columns.
  - ResilientClient: wraps any Client with a sony/gobreaker circuit breaker
    and a golang.org/x/time/rate limiter.
  - DiscoverTables: filters the dataset listing to daily event tables
    (events_YYYYMMDD) in listing order.
  - Scanner: walks a table page by page through the continuation token,
    holding at most one page of rows at a time.

# Example

	client, err := warehouse.NewBigQueryClient(ctx, &cfg.Warehouse)
	if err != nil {
	    return err
	}
	defer client.Close()

	resilient := warehouse.NewResilientClient(client, cfg.Warehouse.RequestsPerSecond)
	tables, err := warehouse.DiscoverTables(ctx, resilient, warehouse.DefaultTableFilter)
	scanner := warehouse.NewScanner(resilient, cfg.Warehouse.PageSize, warehouse.EventColumns, logger)
	for _, table := range tables {
	    _, err := scanner.Scan(ctx, table, func(ctx context.Context, page *warehouse.Page) error {
	        // project and reconcile page.Rows
	        return nil
	    })
	}
*/
package warehouse
