// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graphedges

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer         = otel.Tracer("diffcontext/graphedges")
	meter          = otel.Meter("diffcontext/graphedges")
	builderErrors, _ = meter.Int64Counter("diffcontext_graphedges_builder_errors_total")
	edgesEmitted, _  = meter.Int64Counter("diffcontext_graphedges_edges_total")
)

func recordBuilderError(ctx context.Context, builder string) {
	builderErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("graphedges.builder", builder)))
}

func recordEdges(ctx context.Context, builder string, n int) {
	edgesEmitted.Add(ctx, int64(n), metric.WithAttributes(attribute.String("graphedges.builder", builder)))
}
