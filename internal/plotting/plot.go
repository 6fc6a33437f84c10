package plotting

import (
	"errors"
	"fmt"

	"github.com/jxstanford/bokeh/internal/document/model"
)

var ErrLengthMismatch = errors.New("x and y must have the same length")

type Ref struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type Plot struct {
	Id        string `json:"id"`
	Title     string `json:"title"`
	Width     int    `json:"plot_width"`
	Height    int    `json:"plot_height"`
	Renderers []Ref  `json:"renderers"`

	GeneratedClasses []model.GeneratedClass `json:"-"`
	Scripts          []string               `json:"-"`
	JS               []string               `json:"-"`

	pc *Context
}

// NewPlot creates an empty plot registered on the context's document.
func (c *Context) NewPlot(title string) *Plot {
	p := &Plot{
		Id:        newID(),
		Title:     title,
		Width:     600,
		Height:    600,
		Renderers: []Ref{},
		pc:        c,
	}
	c.register(p)
	return p
}

func (p *Plot) ID() string   { return p.Id }
func (p *Plot) Type() string { return "Plot" }

func (p *Plot) ExtraGeneratedClasses() []model.GeneratedClass { return p.GeneratedClasses }
func (p *Plot) ExtraScripts() []string                        { return p.Scripts }
func (p *Plot) ExtraJS() []string                             { return p.JS }

type Glyph struct {
	Id     string    `json:"id"`
	Kind   string    `json:"glyph"`
	Name   string    `json:"name"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Color  string    `json:"color"`
	Parent string    `json:"plot"`
}

func (g *Glyph) ID() string   { return g.Id }
func (g *Glyph) Type() string { return "GlyphRenderer" }

// Line adds a line renderer over the points (x[i], y[i]).
func (p *Plot) Line(name string, x, y []float64) (*Glyph, error) {
	return p.addGlyph("line", name, x, y)
}

// Scatter adds a circle marker renderer over the points (x[i], y[i]).
func (p *Plot) Scatter(name string, x, y []float64) (*Glyph, error) {
	return p.addGlyph("circle", name, x, y)
}

func (p *Plot) addGlyph(kind, name string, x, y []float64) (*Glyph, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%s %q: %w (%d != %d)", kind, name, ErrLengthMismatch, len(x), len(y))
	}
	g := &Glyph{
		Id:     newID(),
		Kind:   kind,
		Name:   name,
		X:      x,
		Y:      y,
		Color:  palette[len(p.Renderers)%len(palette)],
		Parent: p.Id,
	}
	p.pc.register(g)
	p.Renderers = append(p.Renderers, Ref{ID: g.Id, Type: g.Type()})
	return g, nil
}

var palette = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd"}
