// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diffcontext

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("diffcontext")
	meter  = otel.Meter("diffcontext")

	fragmentCountHist, _ = meter.Int64Histogram("diffcontext_build_fragment_count")
	buildDuration, _     = meter.Float64Histogram("diffcontext_build_duration_seconds")
)

func recordBuildMetrics(ctx context.Context, fragmentCount int, full bool, seconds float64) {
	fragmentCountHist.Record(ctx, int64(fragmentCount), metric.WithAttributes(
		attribute.Bool("diffcontext.full", full),
	))
	buildDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.Bool("diffcontext.full", full),
	))
}
