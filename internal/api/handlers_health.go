// Melodex - AI-Powered Music Discovery for Media Library Managers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Health returns a liveness summary. It reports ready state too so a
// single poll tells a UI everything it needs.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if h.db.IsClosed() {
		status = "degraded"
	}

	NewResponseWriter(w, r).Success(map[string]interface{}{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// HealthLive always reports success while the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"status": "ok",
	})
}

// HealthReady reports whether the service can do useful work. The store
// backs the cache, history, and review queue, so a closed store means not
// ready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.db.IsClosed() {
		rw.ServiceUnavailable("Store is closed")
		return
	}

	rw.Success(map[string]interface{}{
		"status": "ready",
	})
}

// familySnapshot is the JSON shape of one metric family in the snapshot.
type familySnapshot struct {
	Name    string           `json:"name"`
	Help    string           `json:"help,omitempty"`
	Type    string           `json:"type"`
	Metrics []metricSnapshot `json:"metrics"`
}

// metricSnapshot is one labeled sample within a family. Value carries
// counter, gauge, and untyped samples; Count and Sum carry histogram and
// summary aggregates.
type metricSnapshot struct {
	Labels map[string]string `json:"labels,omitempty"`
	Value  *float64          `json:"value,omitempty"`
	Count  *uint64           `json:"count,omitempty"`
	Sum    *float64          `json:"sum,omitempty"`
}

// MetricsSnapshot returns all registered metrics as JSON. The Prometheus
// exposition format at /metrics stays the scrape surface; this endpoint
// exists for UIs and debugging sessions that want the same numbers without
// a parser.
func (h *Handler) MetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		h.logger.Error().Err(err).Msg("Metrics gather failed")
		rw.InternalError("Failed to gather metrics")
		return
	}

	snapshot := make([]familySnapshot, 0, len(families))
	for _, family := range families {
		fs := familySnapshot{
			Name:    family.GetName(),
			Help:    family.GetHelp(),
			Type:    strings.ToLower(family.GetType().String()),
			Metrics: make([]metricSnapshot, 0, len(family.GetMetric())),
		}
		for _, m := range family.GetMetric() {
			fs.Metrics = append(fs.Metrics, snapshotMetric(family.GetType(), m))
		}
		snapshot = append(snapshot, fs)
	}

	rw.Success(map[string]interface{}{
		"families": snapshot,
		"count":    len(snapshot),
	})
}

func snapshotMetric(kind dto.MetricType, m *dto.Metric) metricSnapshot {
	snap := metricSnapshot{}

	if labels := m.GetLabel(); len(labels) > 0 {
		snap.Labels = make(map[string]string, len(labels))
		for _, pair := range labels {
			snap.Labels[pair.GetName()] = pair.GetValue()
		}
	}

	switch kind {
	case dto.MetricType_COUNTER:
		v := m.GetCounter().GetValue()
		snap.Value = &v
	case dto.MetricType_GAUGE:
		v := m.GetGauge().GetValue()
		snap.Value = &v
	case dto.MetricType_HISTOGRAM:
		count := m.GetHistogram().GetSampleCount()
		sum := m.GetHistogram().GetSampleSum()
		snap.Count = &count
		snap.Sum = &sum
	case dto.MetricType_SUMMARY:
		count := m.GetSummary().GetSampleCount()
		sum := m.GetSummary().GetSampleSum()
		snap.Count = &count
		snap.Sum = &sum
	default:
		v := m.GetUntyped().GetValue()
		snap.Value = &v
	}

	return snap
}
