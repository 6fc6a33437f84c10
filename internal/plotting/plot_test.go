package plotting

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jxstanford/bokeh/internal/document/model"
)

func TestNewPlotRegistersOnBoundDocumentOnly(t *testing.T) {
	docA := model.NewClientDocument("a")
	docB := model.NewClientDocument("b")

	p := NewContext(docA).NewPlot("sales")

	assert.True(t, docA.Has(p.ID()))
	assert.False(t, docB.Has(p.ID()))
	assert.Empty(t, docA.Roots(), "construction registers models but does not add roots")
}

func TestGlyphsAreRegisteredAndReferenced(t *testing.T) {
	doc := model.NewClientDocument("a")
	p := NewContext(doc).NewPlot("sales")

	line, err := p.Line("revenue", []float64{1, 2, 3}, []float64{4, 5, 6})
	require.NoError(t, err)
	dots, err := p.Scatter("orders", []float64{1}, []float64{2})
	require.NoError(t, err)

	assert.True(t, doc.Has(line.ID()))
	assert.Equal(t, []Ref{{ID: line.ID(), Type: "GlyphRenderer"}, {ID: dots.ID(), Type: "GlyphRenderer"}}, p.Renderers)
	assert.NotEqual(t, line.Color, dots.Color)

	doc.Add(p)
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded struct {
		Roots  []string      `json:"roots"`
		Models []model.Model `json:"models"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []string{p.ID()}, decoded.Roots)
	require.Len(t, decoded.Models, 3)
	assert.Equal(t, "Plot", decoded.Models[0].Type)
}

func TestLengthMismatch(t *testing.T) {
	p := NewContext(model.NewClientDocument("a")).NewPlot("bad")

	_, err := p.Line("oops", []float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.Empty(t, p.Renderers)
}

func TestContextRoundTrip(t *testing.T) {
	pc := NewContext(model.NewClientDocument("a"))
	ctx := WithContext(context.Background(), pc)

	assert.Same(t, pc, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
