//go:build lambda

// Command lambda serves the leaderboard from an AWS Lambda Function URL
// using the embedded tables.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/napolitain/solver-mutations/internal/converter"
	"github.com/napolitain/solver-mutations/internal/loader"
	"github.com/napolitain/solver-mutations/internal/logging"
	"github.com/napolitain/solver-mutations/internal/market"
	"github.com/napolitain/solver-mutations/internal/models"
	"github.com/napolitain/solver-mutations/internal/ranking"
)

// handler keeps the ranker and price cache warm across invocations
type handler struct {
	ranker *ranking.Ranker
	prices market.Source
	logger *slog.Logger
}

func newHandler(prices market.Source, logger *slog.Logger) (*handler, error) {
	tables, err := loader.LoadEmbedded()
	if err != nil {
		return nil, err
	}
	if prices == nil {
		bazaar := market.NewBazaarClient(tables.ProductIDs, market.WithBazaarLogger(logger))
		prices = market.NewCachedSource(bazaar, market.WithLogger(logger))
	}
	return &handler{
		ranker: ranking.NewRanker(tables, ranking.WithLogger(logger)),
		prices: prices,
		logger: logger,
	}, nil
}

func (h *handler) handle(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	values := url.Values{}
	for k, v := range req.QueryStringParameters {
		values.Set(k, v)
	}

	cfg, err := converter.QueryToPlayerConfig(values, models.DefaultPlayerConfig())
	if err != nil {
		return errorResponse(http.StatusBadRequest, err), nil
	}

	prices, err := h.prices.Prices(ctx)
	if err != nil {
		h.logger.Warn("price feed unavailable", "error", err)
		prices = models.Prices{}
	}

	board, err := h.ranker.Rank(ctx, cfg, prices)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrInvalidConfig) || errors.Is(err, models.ErrUnknownCrop) {
			status = http.StatusBadRequest
		}
		return errorResponse(status, err), nil
	}
	return jsonResponse(http.StatusOK, board), nil
}

func jsonResponse(status int, v any) events.LambdaFunctionURLResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, err)
	}
	return events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func errorResponse(status int, err error) events.LambdaFunctionURLResponse {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	return events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func main() {
	logger := logging.New(os.Getenv("MUTATIONS_LOG_LEVEL"), "json", os.Stderr)
	h, err := newHandler(nil, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	lambda.Start(h.handle)
}
