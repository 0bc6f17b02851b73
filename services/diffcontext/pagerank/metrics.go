// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pagerank

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("diffcontext/pagerank")
	meter  = otel.Meter("diffcontext/pagerank")

	iterationsHist, _ = meter.Int64Histogram("diffcontext_pagerank_iterations")
)

func recordPPRMetrics(ctx context.Context, nodeCount, iterations int, converged bool) {
	attrs := metric.WithAttributes(
		attribute.Int("pagerank.node_count", nodeCount),
		attribute.Bool("pagerank.converged", converged),
	)
	iterationsHist.Record(ctx, int64(iterations), attrs)
}
