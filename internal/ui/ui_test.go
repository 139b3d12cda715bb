package ui

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_StringAndIcon(t *testing.T) {
	tests := []struct {
		stage Stage
		name  string
		icon  string
	}{
		{StageScanning, "Scanning", "SCAN"},
		{StageExtracting, "Extracting", "EXTRACT"},
		{StageComplete, "Complete", "DONE"},
		{Stage(99), "Unknown", "???"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.stage.String())
		assert.Equal(t, tt.icon, tt.stage.Icon())
	}
}

func TestNewConfig_AppliesOptions(t *testing.T) {
	buf := &bytes.Buffer{}

	cfg := NewConfig(buf, WithForcePlain(true), WithNoColor(true), WithRootDir("/docs"))

	assert.Same(t, buf, cfg.Output)
	assert.True(t, cfg.ForcePlain)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "/docs", cfg.RootDir)
}

func TestNewRenderer_NonTTYIsPlain(t *testing.T) {
	r := NewRenderer(NewConfig(&bytes.Buffer{}))

	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestIsTTY_NonFileWriters(t *testing.T) {
	assert.False(t, IsTTY(nil))
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestDetectCI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.True(t, DetectCI())
}

func TestGetStyles_NoColorRendersPlainText(t *testing.T) {
	styles := GetStyles(true)
	assert.Equal(t, "ok", styles.Success.Render("ok"))
}

func TestNopRenderer_DiscardsEverything(t *testing.T) {
	var r Renderer = NopRenderer{}

	require.NoError(t, r.Start(context.Background()))
	r.UpdateProgress(ProgressEvent{Stage: StageScanning})
	r.AddError(ErrorEvent{})
	r.Complete(CompletionStats{})
	assert.NoError(t, r.Stop())
}
