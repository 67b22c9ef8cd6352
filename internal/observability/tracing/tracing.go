package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// InjectTraceID stamps a fresh trace id into the zerolog context so every
// log line of the operation carries it.
func InjectTraceID(ctx context.Context) context.Context {
	id := uuid.New().String()
	logger := log.With().Str("traceId", id).Logger()
	return logger.WithContext(ctx)
}

// NewTraceContext builds a traced background context for work that
// outlives the request which scheduled it, such as withdrawal timers.
func NewTraceContext() context.Context {
	return InjectTraceID(context.Background())
}
