// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package selector

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("diffcontext/selector")
	meter  = otel.Meter("diffcontext/selector")

	selectedCountHist, _ = meter.Int64Histogram("diffcontext_selector_fragments_selected")
)

func recordSelectionMetrics(ctx context.Context, coreCount, nonCoreCount int, reason string) {
	selectedCountHist.Record(ctx, int64(coreCount), metric.WithAttributes(
		attribute.String("selector.phase", "core"),
		attribute.String("selector.termination_reason", reason),
	))
	selectedCountHist.Record(ctx, int64(nonCoreCount), metric.WithAttributes(
		attribute.String("selector.phase", "non_core"),
		attribute.String("selector.termination_reason", reason),
	))
}
