package router

import (
	"net/http"

	"github.com/jxstanford/bokeh/config"
	"github.com/jxstanford/bokeh/internal/apps"
	docHandler "github.com/jxstanford/bokeh/internal/document"
	"github.com/jxstanford/bokeh/internal/document/service"
	"github.com/jxstanford/bokeh/internal/page"
	"github.com/jxstanford/bokeh/internal/resources"
	"github.com/jxstanford/bokeh/internal/session"
	"github.com/jxstanford/bokeh/middleware"
	"github.com/jxstanford/bokeh/pkg/logger"
	"github.com/jxstanford/bokeh/socket"
)

func Setup(cfg *config.Config, docService *service.DocumentService, hub *socket.Hub) (http.Handler, error) {
	mux := http.NewServeMux()
	auth := middleware.NewAuth(cfg.JWTSecret).Middleware

	// WebSocket
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(middleware.UserIDKey).(string)
		socket.ServeWs(hub, w, r, userID, docService.ResolveRole)
	})
	mux.Handle("/ws", auth(wsHandler))

	// REST API
	docHandler := docHandler.NewDocumentHandler(docService)
	mux.Handle("/api/documents", auth(http.HandlerFunc(docHandler.GetDocuments)))
	mux.Handle("/api/documents/get", auth(http.HandlerFunc(docHandler.GetDocument)))
	mux.Handle("/api/documents/delete", auth(http.HandlerFunc(docHandler.DeleteDocument)))

	// Pages
	renderer, err := page.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	env := &page.Env{
		Sessions:  session.Manager{},
		Documents: docService,
		Storage:   docService,
		Renderer:  renderer,
		Resources: resources.New(cfg),
		SplitJS:   cfg.SplitJS,
	}
	for _, route := range apps.Pages(env) {
		mux.Handle(route.Path, auth(route.Handler))
		logger.Sugar.Infof("Registered page %s -> %s", route.Path, route.Handler.Name())
	}

	return middleware.CORSMiddleware(cfg.CORSOrigin)(mux), nil
}
