// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fragment

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer             = otel.Tracer("diffcontext/fragment")
	meter              = otel.Meter("diffcontext/fragment")
	fragmentedFiles, _ = meter.Int64Counter("diffcontext_fragmenter_files_total")
	fragmentCount, _   = meter.Int64Counter("diffcontext_fragmenter_fragments_total")
)

func startFragmentSpan(ctx context.Context, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "fragment.FragmentFile", trace.WithAttributes(
		attribute.String("fragment.path", path),
	))
}

func recordFragmentMetrics(ctx context.Context, strategyName string, n int) {
	attrs := metric.WithAttributes(attribute.String("fragment.strategy", strategyName))
	fragmentedFiles.Add(ctx, 1, attrs)
	fragmentCount.Add(ctx, int64(n), attrs)
}
