package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jxstanford/bokeh/internal/document/model"
	"github.com/jxstanford/bokeh/internal/plotting"
	"github.com/jxstanford/bokeh/internal/resources"
)

type fakeSessions struct {
	user *model.User
	err  error
}

func (s *fakeSessions) CurrentUser(r *http.Request) (*model.User, error) { return s.user, s.err }

type fakeDocuments struct {
	names []string
	users []*model.User
	err   error
}

func (d *fakeDocuments) MakeDocument(ctx context.Context, user *model.User, name string) (*model.DocumentRecord, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.names = append(d.names, name)
	d.users = append(d.users, user)
	return &model.DocumentRecord{DocID: fmt.Sprintf("doc-%d", len(d.names)), Title: name, OwnerID: user.ID}, nil
}

type fakeStorage struct {
	fetched []*model.ClientDocument
	stored  []*model.ClientDocument
}

func (s *fakeStorage) GetDocument(ctx context.Context, docID string) (*model.ClientDocument, error) {
	doc := model.NewClientDocument(docID)
	s.fetched = append(s.fetched, doc)
	return doc, nil
}

func (s *fakeStorage) StoreDocument(ctx context.Context, doc *model.ClientDocument) error {
	s.stored = append(s.stored, doc)
	return nil
}

type fakeRenderer struct {
	calls []Data
	names []string
}

func (r *fakeRenderer) Render(w io.Writer, name string, data any) error {
	r.names = append(r.names, name)
	r.calls = append(r.calls, data.(Data))
	_, err := io.WriteString(w, "rendered "+data.(Data).ObjID)
	return err
}

type bareObject struct{ id string }

func (o *bareObject) ID() string { return o.id }

type assetObject struct {
	bareObject
	classes []model.GeneratedClass
	scripts []string
	js      []string
}

func (o *assetObject) ExtraGeneratedClasses() []model.GeneratedClass { return o.classes }
func (o *assetObject) ExtraScripts() []string                        { return o.scripts }
func (o *assetObject) ExtraJS() []string                             { return o.js }

type fixture struct {
	env      *Env
	docs     *fakeDocuments
	storage  *fakeStorage
	renderer *fakeRenderer
}

func newFixture() *fixture {
	f := &fixture{
		docs:     &fakeDocuments{},
		storage:  &fakeStorage{},
		renderer: &fakeRenderer{},
	}
	f.env = &Env{
		Sessions:  &fakeSessions{user: &model.User{ID: "user-1", Username: "alice"}},
		Documents: f.docs,
		Storage:   f.storage,
		Renderer:  f.renderer,
		Resources: resources.Resources{Mode: "server", LogLevel: "debug"},
		SplitJS:   true,
	}
	return f
}

func serve(h http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/demo", nil))
	return rec
}

func returning(obj model.PlotObject) PlotFunc {
	return func(pc *plotting.Context, r *http.Request) (model.PlotObject, error) {
		return obj, nil
	}
}

func makeDemoPlot(pc *plotting.Context, r *http.Request) (model.PlotObject, error) {
	return pc.NewPlot("demo"), nil
}

func TestObjectPageScenario(t *testing.T) {
	f := newFixture()
	h := ObjectPage(f.env, "demo")(returning(&bareObject{id: "obj1"}))

	rec := serve(h)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rendered obj1", rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	require.Len(t, f.docs.names, 1)
	assert.True(t, strings.HasPrefix(f.docs.names[0], "demo"))
	assert.Len(t, f.docs.names[0], len("demo")+36)
	assert.Equal(t, "user-1", f.docs.users[0].ID)

	require.Len(t, f.renderer.calls, 1)
	assert.Equal(t, []string{TemplateName}, f.renderer.names)
	data := f.renderer.calls[0]
	assert.Equal(t, "obj1", data.ObjID)
	assert.Equal(t, "doc-1", data.DocID)
	assert.Equal(t, "alice", data.Username)
	assert.True(t, data.HideNavbar)
	assert.True(t, data.SplitJS)
	assert.Equal(t, "debug", data.LogLevel)
	assert.Len(t, data.ElementID, 36)
	assert.Equal(t, []string{}, data.ExtraScripts)
	assert.Equal(t, []string{}, data.ExtraJS)
	assert.Equal(t, []model.GeneratedClass{}, data.ExtraGeneratedClasses)
}

func TestObjectPageGeneratesDistinctNames(t *testing.T) {
	f := newFixture()
	h := ObjectPage(f.env, "demo")(returning(&bareObject{id: "obj1"}))

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		require.Equal(t, http.StatusOK, serve(h).Code)
	}
	for _, name := range f.docs.names {
		assert.False(t, seen[name], "duplicate document name %s", name)
		seen[name] = true
	}
	assert.Len(t, seen, 100)

	elementIDs := make(map[string]bool)
	for _, call := range f.renderer.calls {
		elementIDs[call.ElementID] = true
	}
	assert.Len(t, elementIDs, 100)
}

func TestObjectPageForwardsAssets(t *testing.T) {
	f := newFixture()
	obj := &assetObject{
		bareObject: bareObject{id: "obj1"},
		classes:    []model.GeneratedClass{{Module: "custom", Class: "Ticker", Parent: "Model"}},
		scripts:    []string{"https://cdn.example.com/extra.js"},
		js:         []string{"console.log('hi')"},
	}

	serve(ObjectPage(f.env, "demo")(returning(obj)))

	require.Len(t, f.renderer.calls, 1)
	data := f.renderer.calls[0]
	assert.Equal(t, obj.classes, data.ExtraGeneratedClasses)
	assert.Equal(t, obj.scripts, data.ExtraScripts)
	assert.Equal(t, obj.js, data.ExtraJS)
}

func TestObjectPageNilAssetsDefaultToEmpty(t *testing.T) {
	f := newFixture()

	serve(ObjectPage(f.env, "demo")(returning(&assetObject{bareObject: bareObject{id: "obj1"}})))

	data := f.renderer.calls[0]
	assert.NotNil(t, data.ExtraGeneratedClasses)
	assert.NotNil(t, data.ExtraScripts)
	assert.NotNil(t, data.ExtraJS)
	assert.Empty(t, data.ExtraScripts)
}

func TestObjectPageConflict(t *testing.T) {
	f := newFixture()
	f.docs.err = fmt.Errorf("make document: %w", &model.DataIntegrityError{Message: "Document already exists"})
	called := false
	h := ObjectPage(f.env, "demo")(func(pc *plotting.Context, r *http.Request) (model.PlotObject, error) {
		called = true
		return &bareObject{id: "obj1"}, nil
	})

	rec := serve(h)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Document already exists", rec.Body.String())
	assert.False(t, called)
	assert.Empty(t, f.storage.fetched)
	assert.Empty(t, f.storage.stored)
	assert.Empty(t, f.renderer.calls)
}

func TestObjectPageStoresFetchedDocumentWithObjectOnce(t *testing.T) {
	f := newFixture()
	var built model.PlotObject
	h := ObjectPage(f.env, "demo")(func(pc *plotting.Context, r *http.Request) (model.PlotObject, error) {
		assert.Same(t, pc, plotting.FromContext(r.Context()))
		p := pc.NewPlot("sales")
		// Adding inside the function must not duplicate the root.
		pc.Document().Add(p)
		built = p
		return p, nil
	})

	require.Equal(t, http.StatusOK, serve(h).Code)

	require.Len(t, f.storage.fetched, 1)
	require.Len(t, f.storage.stored, 1)
	assert.Same(t, f.storage.fetched[0], f.storage.stored[0])
	assert.Equal(t, []string{built.ID()}, f.storage.stored[0].Roots())
}

func TestObjectPageBindsEachRequestToItsOwnDocument(t *testing.T) {
	f := newFixture()
	h := ObjectPage(f.env, "demo")(makeDemoPlot)

	serve(h)
	serve(h)

	require.Len(t, f.storage.stored, 2)
	first, second := f.storage.stored[0], f.storage.stored[1]
	assert.NotEqual(t, first.Roots(), second.Roots())
	assert.False(t, first.Has(second.Roots()[0]))
}

func TestObjectPagePreservesName(t *testing.T) {
	h := ObjectPage(newFixture().env, "demo")(makeDemoPlot)
	assert.Equal(t, "makeDemoPlot", h.Name())
}

func TestObjectPageGenericErrors(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *fixture)
		fn     PlotFunc
		stored int
	}{
		{
			name:  "no session",
			setup: func(f *fixture) { f.env.Sessions = &fakeSessions{err: errors.New("no user")} },
			fn:    returning(&bareObject{id: "obj1"}),
		},
		{
			name:  "storage failure",
			setup: func(f *fixture) { f.docs.err = errors.New("connection refused") },
			fn:    returning(&bareObject{id: "obj1"}),
		},
		{
			name:  "function error",
			setup: func(f *fixture) {},
			fn: func(pc *plotting.Context, r *http.Request) (model.PlotObject, error) {
				return nil, errors.New("boom")
			},
		},
		{
			name:  "nil object",
			setup: func(f *fixture) {},
			fn:    returning((*bareObject)(nil)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			rec := serve(ObjectPage(f.env, "demo")(tt.fn))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Len(t, f.storage.stored, tt.stored)
			assert.Empty(t, f.renderer.calls)
		})
	}
}

func TestObjectPageWithTemplateRenderer(t *testing.T) {
	f := newFixture()
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)
	f.env.Renderer = renderer

	obj := &assetObject{
		bareObject: bareObject{id: "obj1"},
		scripts:    []string{"/static/extra.js"},
		js:         []string{"window.extraLoaded = true;"},
	}
	rec := serve(ObjectPage(f.env, "demo")(returning(obj)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `objid: "obj1"`)
	assert.Contains(t, body, `docid: "doc-1"`)
	assert.Contains(t, body, `username: "alice"`)
	assert.Contains(t, body, `<script src="/static/extra.js"></script>`)
	assert.Contains(t, body, "window.extraLoaded = true;")
	assert.Contains(t, body, "require.js")
	assert.NotContains(t, body, `class="navbar"`)
}
