//go:build e2e

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/cfp-sync/internal/adapter/redislock"
	"github.com/heartmarshall/cfp-sync/internal/config"
	"github.com/heartmarshall/cfp-sync/internal/service/importer"
)

func eventJSON(suffix string) string {
	return fmt.Sprintf(`{
  "name": "Test Conference",
  "proposals": [
    {
      "id": "prop-1-%[1]s",
      "title": "Go Generics in Practice",
      "abstract": "Type parameters without tears.",
      "submittedAt": "2026-01-10T08:00:00Z",
      "deliberationStatus": "ACCEPTED",
      "confirmationStatus": "CONFIRMED",
      "level": "INTERMEDIATE",
      "formats": ["Conference (40 min)"],
      "categories": ["Dev Ops %[1]s"],
      "languages": ["en"],
      "speakers": [
        {"id": "spk-1-%[1]s", "name": "Ada Lovelace", "email": "ada-%[1]s@example.com", "socialLinks": ["https://github.com/ada"]}
      ],
      "review": {"average": 4.5, "positives": 3, "negatives": 1}
    },
    {
      "id": "prop-2-%[1]s",
      "title": "Rust for Gophers",
      "deliberationStatus": null,
      "formats": ["Quickie"],
      "categories": ["devops %[1]s"],
      "speakers": [
        {"id": "spk-1-%[1]s", "bio": "First programmer"},
        {"id": "spk-2-%[1]s", "name": "Nobody"}
      ]
    }
  ]
}`, suffix)
}

func TestE2E_ImportPipeline(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	conf := testhelper.SeedConference(t, pool)
	suffix := testhelper.UniqueID("run")

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/event/"+conf.CFP.EventID+"/" || r.URL.Query().Get("key") != conf.CFP.APIKey {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, eventJSON(suffix)) //nolint:errcheck
	}))
	t.Cleanup(upstream.Close)

	mr := miniredis.RunT(t)
	locker, err := redislock.New(context.Background(), "redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = locker.Close() })

	cfg := &config.Config{
		Upstream: config.UpstreamConfig{BaseURL: upstream.URL, Timeout: 5 * time.Second, RequestsPerSecond: 100, Burst: 10},
		Import: config.ImportConfig{
			MaxBatchOps: 430, ReadConcurrency: 4, DefaultLanguage: "en",
			DefaultTrackColor: "#7C3AED", DefaultTrackIcon: "tag", Interval: time.Minute,
		},
		Metrics: config.MetricsConfig{Addr: "127.0.0.1:0"},
	}
	a := wire(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), pool, locker)
	sched := a.Scheduler([]string{conf.ID}, importer.Options{})
	ctx := context.Background()

	results, err := sched.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Empty(t, results[0].Error)

	first := results[0].Report
	assert.Equal(t, 2, first.SessionAdded)
	assert.Equal(t, 1, first.SpeakerAdded)
	assert.Equal(t, 1, first.SpeakerSkipped)
	assert.Equal(t, 1, first.TrackAdded)
	assert.Equal(t, 1, first.Chunks)

	results, err = sched.RunOnce(ctx)
	require.NoError(t, err)
	require.Empty(t, results[0].Error)
	second := results[0].Report
	assert.False(t, second.Changed(), "rerun staged writes: %+v", second)
	assert.Equal(t, 2, second.SessionUnchanged)
	assert.Equal(t, 1, second.SpeakerUnchanged)
	assert.Equal(t, 1, second.TrackUnchanged)
	assert.Zero(t, second.Chunks)

	ops := httptest.NewServer(a.OpsHandler(sched))
	t.Cleanup(ops.Close)

	resp, err := ops.Client().Get(ops.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "lastImport")

	metricsResp, err := ops.Client().Get(ops.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	raw, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `cfp_import_runs_total{result="success"} 2`)
}

func TestE2E_UpstreamErrorLeavesNoWrites(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	conf := testhelper.SeedConference(t, pool)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		Upstream: config.UpstreamConfig{BaseURL: upstream.URL, Timeout: 5 * time.Second, RequestsPerSecond: 100, Burst: 10},
		Import:   config.ImportConfig{MaxBatchOps: 430, ReadConcurrency: 4, DefaultLanguage: "en", Interval: time.Minute},
	}
	a := wire(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), pool, nil)

	results, err := a.Scheduler([]string{conf.ID}, importer.Options{}).RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "upstream")

	var n int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT count(*) FROM sessions WHERE conference_id = $1`, conf.ID).Scan(&n))
	assert.Zero(t, n)
}
