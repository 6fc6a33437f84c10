// Package apps holds the pages served by the plot server.
package apps

import (
	"math"
	"net/http"
	"strconv"

	"github.com/jxstanford/bokeh/internal/document/model"
	"github.com/jxstanford/bokeh/internal/page"
	"github.com/jxstanford/bokeh/internal/plotting"
)

// Route pairs a URL path with the page served there.
type Route struct {
	Path    string
	Handler *page.Handler
}

func Pages(env *page.Env) []Route {
	return []Route{
		{Path: "/demo", Handler: page.ObjectPage(env, "demo")(sineWave)},
	}
}

// sineWave plots sin(x) over [0, 2π]. ?points= sets the sample count.
func sineWave(pc *plotting.Context, r *http.Request) (model.PlotObject, error) {
	n := 100
	if v, err := strconv.Atoi(r.URL.Query().Get("points")); err == nil && v > 1 && v <= 10000 {
		n = v
	}

	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = 2 * math.Pi * float64(i) / float64(n-1)
		y[i] = math.Sin(x[i])
	}

	p := pc.NewPlot("sin(x)")
	if _, err := p.Line("sin", x, y); err != nil {
		return nil, err
	}
	if _, err := p.Scatter("samples", x, y); err != nil {
		return nil, err
	}
	return p, nil
}
