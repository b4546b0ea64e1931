// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package pipeline

import (
	"runtime"

	"github.com/rs/zerolog"

	"github.com/tomtom215/retention/internal/metrics"
)

// MemorySnapshot is a subset of runtime.MemStats.
type MemorySnapshot struct {
	HeapAlloc uint64 `json:"heap_alloc_bytes"`
	HeapInuse uint64 `json:"heap_inuse_bytes"`
	Sys       uint64 `json:"sys_bytes"`
	NumGC     uint32 `json:"num_gc"`
}

// ReadMemory returns current heap usage. With forceGC a collection runs first
// so the snapshot reflects live data only. The heap gauge is updated too.
func ReadMemory(forceGC bool) MemorySnapshot {
	if forceGC {
		runtime.GC()
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	metrics.PipelineHeapAlloc.Set(float64(ms.HeapAlloc))
	return MemorySnapshot{
		HeapAlloc: ms.HeapAlloc,
		HeapInuse: ms.HeapInuse,
		Sys:       ms.Sys,
		NumGC:     ms.NumGC,
	}
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (m MemorySnapshot) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("heap_alloc_mb", m.HeapAlloc/1024/1024).
		Uint64("heap_inuse_mb", m.HeapInuse/1024/1024).
		Uint64("sys_mb", m.Sys/1024/1024).
		Uint32("num_gc", m.NumGC)
}
