//go:build lambda

package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/napolitain/solver-mutations/internal/market"
	"github.com/napolitain/solver-mutations/internal/ranking"
)

func testHandler(t *testing.T) *handler {
	t.Helper()
	h, err := newHandler(market.Static{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestHandleLeaderboard(t *testing.T) {
	h := testHandler(t)
	resp, err := h.handle(context.Background(), events.LambdaFunctionURLRequest{
		QueryStringParameters: map[string]string{"plots": "2", "mode": "smart"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, resp.Body)
	}

	var board ranking.Leaderboard
	if err := json.Unmarshal([]byte(resp.Body), &board); err != nil {
		t.Fatal(err)
	}
	if board.Config.Plots != 2 || board.Config.Mode != "smart" {
		t.Errorf("config not applied: %+v", board.Config)
	}
	if len(board.Entries) == 0 {
		t.Error("expected entries")
	}
}

func TestHandleBadRequest(t *testing.T) {
	h := testHandler(t)
	for _, params := range []map[string]string{
		{"plots": "7"},
		{"fortune": "abc"},
		{"mode": "target", "target_crop": "Nope"},
	} {
		resp, err := h.handle(context.Background(), events.LambdaFunctionURLRequest{QueryStringParameters: params})
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%v: status %d, want 400", params, resp.StatusCode)
		}
	}
}
