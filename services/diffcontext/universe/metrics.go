// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package universe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("diffcontext/universe")
	meter  = otel.Meter("diffcontext/universe")

	filesAddedHist, _ = meter.Int64Histogram("diffcontext_universe_files_added")
)

func recordExpansionMetrics(ctx context.Context, relatedCount, expandedCount int) {
	filesAddedHist.Record(ctx, int64(relatedCount), metric.WithAttributes(attribute.String("universe.mechanism", "related")))
	filesAddedHist.Record(ctx, int64(expandedCount), metric.WithAttributes(attribute.String("universe.mechanism", "rare_identifier")))
}
