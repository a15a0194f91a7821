package tracer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleRatio(t *testing.T) {
	cases := map[string]float64{
		"":     1,
		"abc":  1,
		"0.25": 0.25,
		"-1":   0,
		"3":    1,
	}
	for raw, want := range cases {
		t.Setenv("OTEL_SAMPLE_RATIO", raw)
		assert.Equal(t, want, SampleRatio(), "ratio %q", raw)
	}
}

func TestInitTracerDisabled(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	shutdown := InitTracer()
	assert.NoError(t, shutdown(context.Background()))
}
