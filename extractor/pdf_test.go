package extractor

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupTextsIntoRows_OrdersTopToBottom(t *testing.T) {
	// PDF Y grows upward, so the visually first row has the largest Y.
	texts := []pdf.Text{
		{S: "footer", X: 10, Y: 20},
		{S: "title", X: 10, Y: 700},
		{S: "body", X: 10, Y: 400},
	}

	rows := groupTextsIntoRows(texts)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"title"}, rows[0].contents)
	assert.Equal(t, []string{"body"}, rows[1].contents)
	assert.Equal(t, []string{"footer"}, rows[2].contents)
}

func TestGroupTextsIntoRows_MergesSameBaseline(t *testing.T) {
	texts := []pdf.Text{
		{S: "World", X: 60, Y: 500.5},
		{S: "Hello", X: 10, Y: 500},
		{S: "!", X: 100, Y: 499.2},
	}

	rows := groupTextsIntoRows(texts)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Hello", "World", "!"}, rows[0].contents)
}

func TestGroupTextsIntoRows_SortsByXWithinRow(t *testing.T) {
	texts := []pdf.Text{
		{S: "third", X: 300, Y: 100},
		{S: "first", X: 10, Y: 100},
		{S: "second", X: 150, Y: 100},
	}

	rows := groupTextsIntoRows(texts)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"first", "second", "third"}, rows[0].contents)
	assert.Equal(t, []float64{10, 150, 300}, rows[0].xCoords)
}

func TestGroupTextsIntoRows_SkipsBlankFragments(t *testing.T) {
	texts := []pdf.Text{
		{S: "   ", X: 10, Y: 100},
		{S: "kept", X: 20, Y: 100},
		{S: "", X: 30, Y: 100},
	}

	rows := groupTextsIntoRows(texts)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"kept"}, rows[0].contents)
}

func TestGroupTextsIntoRows_Empty(t *testing.T) {
	assert.Nil(t, groupTextsIntoRows(nil))
	assert.Nil(t, groupTextsIntoRows([]pdf.Text{}))
}

func TestExtractText_InvalidPDF(t *testing.T) {
	_, err := ExtractText([]byte("definitely not a pdf"))
	assert.Error(t, err)
}
