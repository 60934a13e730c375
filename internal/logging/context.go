// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

// correlationIDKey is the context key for correlation IDs. Each top-level
// publish or refresh operation gets one so the per-platform log lines of a
// single fan-out can be grouped.
const correlationIDKey contextKey = "correlation_id"

// GenerateCorrelationID creates a new unique correlation ID.
// Returns the first 8 characters of a UUID for readability.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// ContextWithCorrelationID returns a new context with the given correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID returns a context with a newly generated correlation ID.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext retrieves the correlation ID from context.
// Returns empty string if not present.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns a logger with the context correlation ID attached when present.
//
//	logging.Ctx(ctx).Info().Str("platform", name).Msg("publishing")
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := Logger()
	if id := CorrelationIDFromContext(ctx); id != "" {
		logger = logger.With().Str("correlation_id", id).Logger()
	}
	return &logger
}
