package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{ServiceName: "tarifario", Output: &buf})

	ctx := log.WithFields(context.Background(), map[string]any{"sku": "A-1", "op": "PERCENTAGE"})
	log.Error(ctx, "bulk failed", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tarifario", entry["service"])
	assert.Equal(t, "A-1", entry["sku"])
	assert.Equal(t, "PERCENTAGE", entry["op"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "error", entry["level"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: zerolog.WarnLevel, Output: &buf})

	log.Info(context.Background(), "hidden")
	assert.Zero(t, buf.Len())

	log.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestPricingContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{ServiceName: "tarifario", Output: &buf})

	ctx := log.WithSKU(context.Background(), "A-1")
	ctx = log.WithOperator(ctx, "SET_MARGIN", "price_retail")
	ctx = log.WithBatch(ctx, "b-42", "weekly update", 3)
	log.Info(ctx, "price records committed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "A-1", entry["sku"])
	assert.Equal(t, "SET_MARGIN", entry["op"])
	assert.Equal(t, "price_retail", entry["field"])
	assert.Equal(t, "b-42", entry["batch_id"])
	assert.Equal(t, "weekly update", entry["reason"])
	assert.Equal(t, float64(3), entry["records"])
}
