package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTracingExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := SetupTracing(TracingConfig{
		Enabled:        true,
		ServiceName:    "canopy-test",
		ServiceVersion: "test",
		Writer:         &buf,
	})
	require.NoError(t, err)

	ctx, run := StartSpan(context.Background(), "pipeline.run")
	_, child := StartSpan(ctx, "analysis.count_species_with_status")
	child.SetAttribute("rows", 1)
	child.SetAttribute("output", "out/count_plum_trees.csv")
	child.End(errors.New("disk full"))
	run.End(nil)

	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "pipeline.run")
	assert.Contains(t, out, "analysis.count_species_with_status")
	assert.Contains(t, out, "disk full")
	assert.Contains(t, out, "canopy-test")
}

func TestDisabledTracingIsNoop(t *testing.T) {
	shutdown, err := SetupTracing(TracingConfig{})
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "pipeline.extract")
	span.SetAttribute("path", "trees.csv")
	span.End(nil)

	assert.False(t, span.span.SpanContext().IsValid())
	assert.NoError(t, shutdown(context.Background()))
}
