package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alizenart/closeted/internal/config"
	"github.com/alizenart/closeted/internal/core/ports"
	"github.com/alizenart/closeted/internal/observability/metrics"
)

const serviceName = "api"

// Services are the inbound ports the router exposes. Stats may be nil.
type Services struct {
	Uploader    ports.Uploader
	Closet      ports.ClosetReader
	Browser     ports.ClosetBrowser
	Recommender ports.Recommender
	Timers      ports.TimerService
	Preferences ports.PreferencesService
	Stats       ports.StatsReader
}

// BlobServer streams stored blobs and checks the tokens on signed URLs.
type BlobServer interface {
	Open(ctx context.Context, objectPath string) (io.ReadCloser, error)
	SigningEnabled() bool
	VerifyToken(objectPath, token string) error
}

type Router struct {
	cfg      config.Config
	services Services
	metrics  *metrics.HTTPServerMetrics
	auth     *Authenticator
	blobs    BlobServer
}

type RouterOption func(*Router)

func WithMetrics(m *metrics.HTTPServerMetrics) RouterOption {
	return func(rt *Router) { rt.metrics = m }
}

// WithAuthenticator requires a bearer token on every /v1 route.
func WithAuthenticator(auth *Authenticator) RouterOption {
	return func(rt *Router) { rt.auth = auth }
}

func WithBlobServer(blobs BlobServer) RouterOption {
	return func(rt *Router) { rt.blobs = blobs }
}

func NewRouter(cfg config.Config, services Services, opts ...RouterOption) *Router {
	rt := &Router{cfg: cfg, services: services}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", rt.healthz)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}
	if rt.blobs != nil {
		r.Get("/blobs/*", rt.serveBlob)
	}

	r.Route("/v1", func(v1 chi.Router) {
		if rt.auth != nil {
			v1.Use(rt.auth.Middleware)
		}

		v1.Route("/outfits", func(o chi.Router) {
			o.Get("/", rt.listOutfits)
			o.Post("/", rt.uploadOutfit)
			o.Get("/{id}", rt.getOutfit)
			o.Get("/{id}/similar", rt.similarToOutfit)
		})
		v1.Route("/wishlist", func(wl chi.Router) {
			wl.Get("/", rt.listWishlist)
			wl.Post("/", rt.uploadWishlistItem)
			wl.Get("/{id}", rt.getWishlistItem)
			wl.Get("/{id}/similar", rt.similarToWishlistItem)
			wl.Post("/{id}/timer", rt.startTimer)
			wl.Get("/{id}/timer", rt.timerStatus)
			wl.Get("/{id}/timer/stream", rt.streamTimer)
		})
		v1.Get("/preferences", rt.getPreferences)
		v1.Put("/preferences", rt.updatePreferences)
		v1.Get("/stats", rt.stats)
	})

	var handler http.Handler = r
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInflight, rt.cfg.APIInflightWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
