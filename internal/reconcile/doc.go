// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

// Package reconcile merges projected installs and sessions into the store.
//
// Installs:
//
//	lookup user  -> found:  Exists (skip, stored values kept)
//	             -> absent: insert -> Inserted (duplicate race -> Exists)
//
// Sessions:
//
//	lookup user     -> absent: NoSuchUser (dropped)
//	lookup session  -> found:  Exists (append-only, skip)
//	insert session  -> Inserted
//	compare platform/country with the stored install
//	                -> differs: partial update -> DriftCorrected
//
// A store failure affects only the record being reconciled: it is logged,
// counted as Failed and processing continues. All writes go through the
// Engine; DryRunStore substitutes in-memory writes over a read-through store.
package reconcile
