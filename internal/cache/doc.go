// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

/*
Package cache provides a thread-safe in-memory TTL cache for API responses.

The retention, filters and date-range endpoints read aggregates that only
change when a pipeline run writes to the store. Responses are cached for
server.api_cache_ttl and the whole cache is cleared after every completed run.

# Keys

GenerateKey hashes the JSON encoding of the request parameters with XXH3-128:

	key := cache.GenerateKey("retention", query.Normalized())
	// "retention:5f1d..."

Callers must normalize parameters first (sorted lists, dates truncated to
the day) so equivalent requests share a key.

# Expiry

Expired entries are dropped lazily by Get and periodically by a background
loop. Close stops the loop.

# Metrics

Each cache reports cache_hits_total, cache_misses_total,
cache_evictions_total and cache_entries labelled with its name.
*/
package cache
