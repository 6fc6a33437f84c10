// Package page turns functions that build a plot object into served web pages.
//
//	mux.Handle("/myapp", page.ObjectPage(env, "mypage")(makeObject))
//
// Every request gets its own document named prefix+<uuid>. The function
// builds its object through the plotting context bound to that document,
// the object is stored as a root of the document, and oneobj.html embeds it.
package page

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"reflect"
	"runtime"
	"strings"

	"github.com/jxstanford/bokeh/internal/document/model"
	"github.com/jxstanford/bokeh/internal/plotting"
	"github.com/jxstanford/bokeh/internal/resources"
	"github.com/jxstanford/bokeh/pkg/logger"

	"github.com/google/uuid"
)

// PlotFunc builds the object shown on a page. Request parameters arrive on r.
type PlotFunc func(pc *plotting.Context, r *http.Request) (model.PlotObject, error)

type Sessions interface {
	CurrentUser(r *http.Request) (*model.User, error)
}

// DocumentMaker creates document records. A name the user already has must
// fail with an error matching model.ErrDataIntegrity.
type DocumentMaker interface {
	MakeDocument(ctx context.Context, user *model.User, name string) (*model.DocumentRecord, error)
}

type DocumentStorage interface {
	GetDocument(ctx context.Context, docID string) (*model.ClientDocument, error)
	StoreDocument(ctx context.Context, doc *model.ClientDocument) error
}

type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

// Env holds the collaborators shared by every page.
type Env struct {
	Sessions  Sessions
	Documents DocumentMaker
	Storage   DocumentStorage
	Renderer  Renderer
	Resources resources.Resources
	SplitJS   bool
}

// Data is what oneobj.html is rendered with.
type Data struct {
	ElementID             string
	DocID                 string
	ObjID                 string
	HideNavbar            bool
	ExtraGeneratedClasses []model.GeneratedClass
	ExtraScripts          []string
	ExtraJS               []string
	SplitJS               bool
	Username              string
	LogLevel              string
}

type Handler struct {
	env    *Env
	prefix string
	fn     PlotFunc
	name   string
}

// ObjectPage returns a decorator that serves the object built by a PlotFunc
// in a fresh document whose name starts with prefix.
func ObjectPage(env *Env, prefix string) func(PlotFunc) *Handler {
	return func(fn PlotFunc) *Handler {
		return &Handler{env: env, prefix: prefix, fn: fn, name: funcName(fn)}
	}
}

// Name is the declared name of the wrapped function.
func (h *Handler) Name() string { return h.name }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := h.serve(r)
	if err != nil {
		if errors.Is(err, model.ErrDataIntegrity) {
			msg := err.Error()
			var conflict *model.DataIntegrityError
			if errors.As(err, &conflict) {
				msg = conflict.Message
			}
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusConflict)
			io.WriteString(w, msg)
			return
		}
		logger.Sugar.Errorf("Page %s failed: %v", h.name, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *Handler) serve(r *http.Request) ([]byte, error) {
	ctx := r.Context()
	docname := h.prefix + uuid.NewString()

	user, err := h.env.Sessions.CurrentUser(r)
	if err != nil {
		return nil, err
	}

	record, err := h.env.Documents.MakeDocument(ctx, user, docname)
	if err != nil {
		return nil, err
	}

	clientdoc, err := h.env.Storage.GetDocument(ctx, record.DocID)
	if err != nil {
		return nil, err
	}

	pc := plotting.NewContext(clientdoc)
	obj, err := h.fn(pc, r.WithContext(plotting.WithContext(ctx, pc)))
	if err != nil {
		return nil, err
	}
	if v := reflect.ValueOf(obj); obj == nil || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return nil, errNilObject
	}

	clientdoc.Add(obj)
	if err := h.env.Storage.StoreDocument(ctx, clientdoc); err != nil {
		return nil, err
	}

	data := Data{
		ElementID:             uuid.NewString(),
		DocID:                 record.DocID,
		ObjID:                 obj.ID(),
		HideNavbar:            true,
		ExtraGeneratedClasses: []model.GeneratedClass{},
		ExtraScripts:          []string{},
		ExtraJS:               []string{},
		SplitJS:               h.env.SplitJS,
		Username:              user.Username,
		LogLevel:              h.env.Resources.LogLevel,
	}
	if p, ok := obj.(model.GeneratedClassesProvider); ok && p.ExtraGeneratedClasses() != nil {
		data.ExtraGeneratedClasses = p.ExtraGeneratedClasses()
	}
	if p, ok := obj.(model.ScriptsProvider); ok && p.ExtraScripts() != nil {
		data.ExtraScripts = p.ExtraScripts()
	}
	if p, ok := obj.(model.JSProvider); ok && p.ExtraJS() != nil {
		data.ExtraJS = p.ExtraJS()
	}

	var buf bytes.Buffer
	if err := h.env.Renderer.Render(&buf, TemplateName, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var errNilObject = errors.New("page function returned no object")

// funcName strips the package path and receiver from fn's symbol name.
func funcName(fn PlotFunc) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
