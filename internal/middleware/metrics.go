package middleware

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts handled requests per operation and status code.
func Metrics(operations *prometheus.CounterVec) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		next(ctx)

		operationID := "unknown"
		if op := ctx.Operation(); op != nil && op.OperationID != "" {
			operationID = op.OperationID
		}

		operations.WithLabelValues(operationID, strconv.Itoa(ctx.Status())).Inc()
	}
}
