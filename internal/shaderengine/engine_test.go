package shaderengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashgrove/retrocapture/internal/preprocess"
	"github.com/ashgrove/retrocapture/internal/preset"
)

func TestDimForSourceViewportAbsolute(t *testing.T) {
	assert.Equal(t, 640, dimFor("source", 2.0, 320, 1920))
	assert.Equal(t, 960, dimFor("viewport", 0.5, 320, 1920))
	assert.Equal(t, 256, dimFor("absolute", 256, 320, 1920))
	assert.Equal(t, 320, dimFor("", 1.0, 320, 1920))
}

func TestComputeOutputDimsFinalPassFillsViewport(t *testing.T) {
	e := &Engine{viewportW: 1920, viewportH: 1080}
	pd := &PassData{Pass: preset.Pass{ScaleTypeX: "source", ScaleX: 1.0, ScaleTypeY: "source", ScaleY: 1.0}}

	w, h := e.computeOutputDims(pd, 320, 240, true)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
}

func TestComputeOutputDimsNonFinalKeepsSourceScale(t *testing.T) {
	e := &Engine{viewportW: 1920, viewportH: 1080}
	pd := &PassData{Pass: preset.Pass{ScaleTypeX: "source", ScaleX: 2.0, ScaleTypeY: "source", ScaleY: 2.0}}

	w, h := e.computeOutputDims(pd, 320, 240, false)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestSetShaderParameterClampsToDeclaredRange(t *testing.T) {
	e := &Engine{
		overrides: map[string]float64{},
		passes: []*PassData{
			{Parameters: map[string]preprocess.Parameter{
				"GAIN": {Name: "GAIN", Default: 1.0, Min: 0.0, Max: 2.0},
			}},
		},
	}

	e.SetShaderParameter("GAIN", 5.0)
	assert.Equal(t, 2.0, e.overrides["GAIN"])

	e.SetShaderParameter("GAIN", -5.0)
	assert.Equal(t, 0.0, e.overrides["GAIN"])

	e.SetShaderParameter("UNKNOWN", 42.0)
	assert.Equal(t, 42.0, e.overrides["UNKNOWN"])
}

func TestGetShaderParametersOverridePrecedence(t *testing.T) {
	e := &Engine{
		overrides: map[string]float64{"GAIN": 1.5},
		preset:    &preset.Preset{Parameters: map[string]float64{"GAIN": 0.5, "OTHER": 3.0}},
		passes: []*PassData{
			{Parameters: map[string]preprocess.Parameter{
				"GAIN":  {Name: "GAIN", Default: 1.0},
				"OTHER": {Name: "OTHER", Default: 2.0},
			}},
		},
	}

	params := e.GetShaderParameters()
	require.Contains(t, params, "GAIN")
	assert.Equal(t, 1.5, params["GAIN"].Default)
	assert.Equal(t, 3.0, params["OTHER"].Default)
}

func TestGetShaderParametersFirstPassWinsOnCollision(t *testing.T) {
	e := &Engine{
		overrides: map[string]float64{},
		preset:    &preset.Preset{Parameters: map[string]float64{}},
		passes: []*PassData{
			{Parameters: map[string]preprocess.Parameter{"GAIN": {Name: "GAIN", Description: "first", Default: 1.0}}},
			{Parameters: map[string]preprocess.Parameter{"GAIN": {Name: "GAIN", Description: "second", Default: 9.0}}},
		},
	}

	params := e.GetShaderParameters()
	assert.Equal(t, "first", params["GAIN"].Description)
}

func TestHistoryRingBoundedAtMaxHistory(t *testing.T) {
	var history []*historyEntry
	for i := 0; i < MaxHistory+3; i++ {
		if len(history) >= MaxHistory {
			history = history[:len(history)-1]
		}
		history = append([]*historyEntry{{width: i}}, history...)
	}
	assert.Len(t, history, MaxHistory)
	assert.Equal(t, MaxHistory+2, history[0].width)
}
