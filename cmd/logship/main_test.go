package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"logship/internal/config"
	"logship/internal/eventlog"
	"logship/internal/logging"
)

func TestRenderPlainAlignsColumns(t *testing.T) {
	out := renderPlain(
		[]string{"Field", "Value"},
		[][]string{
			{"variant", "remote"},
			{"events emitted", "9"},
		},
	)

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("renderPlain produced %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "Field") {
		t.Fatalf("header line = %q", lines[0])
	}
	// Both value cells start at the same column.
	valueCol := strings.Index(lines[1], "remote")
	if valueCol < 0 || strings.Index(lines[2], "9") != valueCol {
		t.Fatalf("value columns misaligned:\n%s", out)
	}
}

func TestRenderPlainPadsShortRows(t *testing.T) {
	out := renderPlain([]string{"A", "B"}, [][]string{{"only"}})
	if !strings.Contains(out, "only") {
		t.Fatalf("short row dropped: %q", out)
	}
}

func TestSummaryRowsLocalSelection(t *testing.T) {
	selection := eventlog.Selection{
		Logger:  eventlog.NewLocalLogger("ml_api", "", logging.NewNop(), nil),
		Variant: eventlog.VariantLocal,
		Reason:  "connectivity probe failed",
	}

	rows := summaryRows(selection, 3, nil)

	want := map[string]string{
		"variant":        "local",
		"events emitted": "9",
		"local reason":   "connectivity probe failed",
	}
	got := map[string]string{}
	for _, row := range rows {
		got[row[0]] = row[1]
	}
	for key, value := range want {
		if got[key] != value {
			t.Fatalf("row %q = %q, want %q", key, got[key], value)
		}
	}
	if _, ok := got["enqueued"]; ok {
		t.Fatal("local selection must not report remote stats")
	}
}

func TestSummaryRowsRemoteStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"errors":false,"items":[]}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Logger.Name = "ml_api"
	cfg.Backend.Hosts = []string{server.URL}
	cfg.Backend.DisableCompression = true
	cfg.Delivery.BatchSize = 1

	selection := eventlog.Select(&cfg, logging.NewNop(), nil)
	if selection.Variant != eventlog.VariantRemote {
		t.Fatalf("variant = %s (%s), want remote", selection.Variant, selection.Reason)
	}
	selection.Logger.LogMetadata(eventlog.Fields{"k": "v"})
	if err := selection.Logger.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	rows := summaryRows(selection, 1, nil)
	got := map[string]string{}
	for _, row := range rows {
		got[row[0]] = row[1]
	}
	if got["enqueued"] != "1" || got["delivered"] != "1" {
		t.Fatalf("remote stats rows = %v", got)
	}
	if got["healthy"] != "true" {
		t.Fatalf("healthy row = %q", got["healthy"])
	}
}

func TestRunProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Backend.Hosts = []string{server.URL}

	result, selection := runProbe(context.Background(), &cfg, 2*time.Second)
	if !strings.HasPrefix(result, "ok") {
		t.Fatalf("probe result = %q", result)
	}
	if selection != "remote" {
		t.Fatalf("selection = %q, want remote", selection)
	}

	cfg.Backend.Hosts = []string{"127.0.0.1:1"}
	result, selection = runProbe(context.Background(), &cfg, time.Second)
	if !strings.HasPrefix(result, "failed") {
		t.Fatalf("probe result = %q", result)
	}
	if selection != "local" {
		t.Fatalf("selection = %q, want local", selection)
	}
}

func TestDisplayPath(t *testing.T) {
	if got := displayPath(""); got != "(defaults)" {
		t.Fatalf("displayPath(\"\") = %q", got)
	}
	if got := displayPath("/etc/logship/config.toml"); got != "/etc/logship/config.toml" {
		t.Fatalf("displayPath = %q", got)
	}
}
