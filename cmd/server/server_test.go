package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/napolitain/solver-mutations/internal/loader"
	"github.com/napolitain/solver-mutations/internal/models"
	"github.com/napolitain/solver-mutations/internal/ranking"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := loadServerConfig(nil, env(nil))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":8080" || cfg.DataDir != "" || cfg.SnapshotPath != "prices.json" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.RateLimit != 10 || cfg.Burst != 20 || cfg.PollInterval != 5*time.Minute {
		t.Errorf("unexpected limiter defaults %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadServerConfigPrecedence(t *testing.T) {
	vars := map[string]string{
		"MUTATIONS_ADDR":          ":9000",
		"MUTATIONS_POLL_INTERVAL": "30s",
		"MUTATIONS_LOG_FORMAT":    "json",
	}
	cfg, err := loadServerConfig([]string{"--addr", ":7000", "--redis=localhost:6379"}, env(vars))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("flag should win over env, got %q", cfg.Addr)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("env should win over default, got %v", cfg.PollInterval)
	}
	if cfg.LogFormat != "json" || cfg.RedisAddr != "localhost:6379" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadServerConfigEmptyFlagOverridesEnv(t *testing.T) {
	cfg, err := loadServerConfig([]string{"--snapshot="}, env(map[string]string{"MUTATIONS_SNAPSHOT": "other.json"}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SnapshotPath != "" {
		t.Errorf("explicit empty flag should disable the snapshot, got %q", cfg.SnapshotPath)
	}
}

func TestLoadServerConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		vars map[string]string
	}{
		{"bad rate", []string{"--rate-limit", "fast"}, nil},
		{"negative rate", []string{"--rate-limit=-1"}, nil},
		{"zero burst", nil, map[string]string{"MUTATIONS_BURST": "0"}},
		{"bad interval", []string{"--poll-interval", "often"}, nil},
		{"bad format", []string{"--log-format", "xml"}, nil},
		{"unknown flag", []string{"--port", "1"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadServerConfig(tt.args, env(tt.vars)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// TestLeaderboardMatchesDirectRanker verifies that the HTTP endpoint returns
// the same ordering as calling the ranker directly with identical inputs.
func TestLeaderboardMatchesDirectRanker(t *testing.T) {
	bazaar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "lastUpdated": 0, "products": {}}`))
	}))
	defer bazaar.Close()

	args := []string{"--data", "../../data", "--snapshot=", "--bazaar-url", bazaar.URL}
	cfg, err := loadServerConfig(args, env(nil))
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, _, cleanup, err := buildServer(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("buildServer failed: %v", err)
	}
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?plots=2&fortune=1500", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var got ranking.Leaderboard
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}

	tables, err := loader.LoadDir("../../data")
	if err != nil {
		t.Fatal(err)
	}
	player := models.DefaultPlayerConfig()
	player.Plots = 2
	player.Fortune = 1500
	direct, err := ranking.NewRanker(tables).Rank(context.Background(), player, models.Prices{})
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Entries) != len(direct.Entries) {
		t.Fatalf("got %d entries, want %d", len(got.Entries), len(direct.Entries))
	}
	for i := range direct.Entries {
		if got.Entries[i].Mutation != direct.Entries[i].Mutation {
			t.Errorf("entry %d: got %s, want %s", i, got.Entries[i].Mutation, direct.Entries[i].Mutation)
		}
	}
}
