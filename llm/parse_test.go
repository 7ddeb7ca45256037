package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDetections_BareArray(t *testing.T) {
	raw := `[{"label": "total", "page": 2, "box_2d": [100, 200, 300, 400], "confidence": 0.9}]`

	dets, err := ParseDetections(raw, 0)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	assert.Equal(t, "total", dets[0].Label)
	assert.Equal(t, 2, dets[0].Page)
	assert.Equal(t, 100.0, dets[0].Box.YMin)
	assert.Equal(t, 200.0, dets[0].Box.XMin)
	assert.Equal(t, 300.0, dets[0].Box.YMax)
	assert.Equal(t, 400.0, dets[0].Box.XMax)
	assert.Equal(t, 0.9, dets[0].Confidence)
}

func TestParseDetections_EnvelopeObject(t *testing.T) {
	raw := `{"detections": [{"label": "date", "box_2d": [10, 10, 50, 200]}]}`

	dets, err := ParseDetections(raw, 3)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, 3, dets[0].Page)
}

func TestParseDetections_CodeFence(t *testing.T) {
	raw := "```json\n[{\"label\": \"x\", \"page\": 1, \"box_2d\": [0, 0, 100, 100]}]\n```"

	dets, err := ParseDetections(raw, 0)
	require.NoError(t, err)
	assert.Len(t, dets, 1)
}

func TestParseDetections_DropsDegenerateBoxes(t *testing.T) {
	raw := `[
		{"label": "empty", "page": 1, "box_2d": [500, 500, 500, 600]},
		{"label": "inverted", "page": 1, "box_2d": [400, 700, 200, 100]},
		{"label": "ok", "page": 1, "box_2d": [100, 100, 200, 200]}
	]`

	dets, err := ParseDetections(raw, 0)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "ok", dets[0].Label)
}

func TestParseDetections_ClampsOutOfRange(t *testing.T) {
	raw := `[{"label": "wild", "page": 1, "box_2d": [-50, -10, 1200, 1500], "confidence": 2.5}]`

	dets, err := ParseDetections(raw, 0)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	assert.Equal(t, 0.0, dets[0].Box.YMin)
	assert.Equal(t, 0.0, dets[0].Box.XMin)
	assert.Equal(t, 1000.0, dets[0].Box.YMax)
	assert.Equal(t, 1000.0, dets[0].Box.XMax)
	assert.Equal(t, 1.0, dets[0].Confidence)
}

func TestParseDetections_MissingPageDefaultsToOne(t *testing.T) {
	raw := `[{"label": "x", "box_2d": [0, 0, 10, 10]}]`

	dets, err := ParseDetections(raw, 0)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, 1, dets[0].Page)
}

func TestParseDetections_WrongArityBoxSkipped(t *testing.T) {
	raw := `[
		{"label": "short", "page": 1, "box_2d": [1, 2, 3]},
		{"label": "ok", "page": 1, "box_2d": [1, 2, 3, 4]}
	]`

	dets, err := ParseDetections(raw, 0)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "ok", dets[0].Label)
}

func TestParseDetections_EmptyArray(t *testing.T) {
	dets, err := ParseDetections("[]", 0)
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestParseDetections_GarbageFails(t *testing.T) {
	_, err := ParseDetections("the model refused to answer", 0)
	assert.Error(t, err)

	_, err = ParseDetections("", 0)
	assert.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, stripCodeFence("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripCodeFence("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripCodeFence(`{"a": 1}`))
}
