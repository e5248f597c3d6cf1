package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trivia-showdown/internal/app"
	"trivia-showdown/internal/metrics"
)

type hostFunc func(ctx context.Context, matchID, pin string) error

// hostActionFor resolves a host action name, or nil when unknown.
func hostActionFor(service *app.MatchService, action string) hostFunc {
	switch action {
	case "open", "next":
		return service.HostAdvance
	case "close":
		return service.HostClose
	case "end":
		return service.HostEnd
	}
	return nil
}

// NewRouter wires REST, websocket, health and metrics routes.
func NewRouter(api *APIHandler, ws *WSHandler) *httprouter.Router {
	mux := httprouter.New()

	mux.POST("/api/matches", instrument("/api/matches", api.createMatch))
	mux.GET("/api/matches", instrument("/api/matches", api.findMatch))
	mux.GET("/api/matches/:id", instrument("/api/matches/:id", api.getMatch))
	mux.POST("/api/matches/:id/players", instrument("/api/matches/:id/players", api.joinMatch))
	mux.POST("/api/matches/:id/answers", instrument("/api/matches/:id/answers", api.submitAnswer))
	mux.POST("/api/matches/:id/host/:action", instrument("/api/matches/:id/host/:action", api.hostAction))
	mux.GET("/api/matches/:id/qr.png", instrument("/api/matches/:id/qr.png", api.qrCode))

	mux.GET("/api/solo/scores", instrument("/api/solo/scores", api.topSolo))
	mux.POST("/api/solo/scores", instrument("/api/solo/scores", api.addSolo))
	mux.DELETE("/api/solo/scores", instrument("/api/solo/scores", api.clearSolo))

	// upgraded connections need the raw writer for Hijack
	mux.HandlerFunc(http.MethodGet, "/ws", ws.ServeWS)

	mux.GET("/healthz", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request duration labelled by route pattern.
func instrument(path string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r, ps)
		metrics.RecordRequest(strconv.Itoa(rec.status), r.Method, path, start)
	}
}
