// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package depgraph

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer       = otel.Tracer("diffcontext/depgraph")
	meter        = otel.Meter("diffcontext/depgraph")
	nodeCount, _ = meter.Int64Histogram("diffcontext_depgraph_nodes")
	edgeCount, _ = meter.Int64Histogram("diffcontext_depgraph_edges")
)

func recordGraphMetrics(ctx context.Context, nodes, edges, hubThreshold int) {
	attrs := metric.WithAttributes(attribute.Int("depgraph.hub_threshold", hubThreshold))
	nodeCount.Record(ctx, int64(nodes), attrs)
	edgeCount.Record(ctx, int64(edges), attrs)
}
