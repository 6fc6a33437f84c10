// Package plotting builds plot objects attached to a client document.
//
// A Context is bound to exactly one document and is handed to page
// functions explicitly; objects built through it are registered on that
// document and nowhere else.
package plotting

import (
	"context"

	"github.com/jxstanford/bokeh/internal/document/model"

	"github.com/google/uuid"
)

type Context struct {
	doc *model.ClientDocument
}

// NewContext binds subsequent object construction to doc.
func NewContext(doc *model.ClientDocument) *Context {
	return &Context{doc: doc}
}

func (c *Context) Document() *model.ClientDocument {
	return c.doc
}

func (c *Context) register(obj model.PlotObject) {
	c.doc.Register(obj)
}

type contextKey struct{}

// WithContext stores pc on ctx for code that only has the request context.
func WithContext(ctx context.Context, pc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, pc)
}

// FromContext returns the plotting context stored on ctx, or nil.
func FromContext(ctx context.Context) *Context {
	pc, _ := ctx.Value(contextKey{}).(*Context)
	return pc
}

func newID() string {
	return uuid.NewString()
}
