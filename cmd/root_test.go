package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/localgaid/pipeline/internal/progress"
)

func TestRuntimeExportsPipelineMetrics(t *testing.T) {
	rt, err := newRuntime(context.Background())
	require.NoError(t, err)
	defer rt.Logger.Sync() //nolint:errcheck // best-effort flush

	rt.Emitter.Emit(progress.Event{
		RunID: "run-1",
		TS:    time.Now().UTC(),
		Stage: progress.StageHarvestPage,
		Place: "Bach Dinh",
		URL:   "https://example.com/a",
	})
	require.NoError(t, rt.Hub.Close(context.Background()))

	families, err := rt.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	// The pipeline counters live on the same registry the status server
	// exposes, alongside the runtime collectors.
	require.Contains(t, names, "pipeline_pages_fetched_total")
	require.Contains(t, names, "go_goroutines")
}

func TestRuntimeGeneratesRunID(t *testing.T) {
	rt, err := newRuntime(context.Background())
	require.NoError(t, err)
	defer rt.Logger.Sync() //nolint:errcheck // best-effort flush
	defer rt.Hub.Close(context.Background()) //nolint:errcheck // test teardown

	require.NotEmpty(t, rt.RunID)
}
