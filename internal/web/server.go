package web

import (
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/rs/zerolog/log"

    "github.com/jaminalder/codex-gomoku/internal/app"
)

const defaultHeartbeat = 15 * time.Second

type Option func(*handlers)

// WithHeartbeat sets the idle ping interval for SSE and websocket clients.
func WithHeartbeat(d time.Duration) Option {
    return func(h *handlers) {
        if d > 0 {
            h.heartbeat = d
        }
    }
}

// NewServer wires routes and returns an http.Handler. The service's
// renderer is replaced so broadcasts carry board fragments.
func NewServer(s *app.Service, opts ...Option) http.Handler {
    h := &handlers{svc: s, tpl: loadTemplates(), heartbeat: defaultHeartbeat}
    for _, o := range opts {
        o(h)
    }
    s.SetRenderer(func(gs app.GameState) []byte { return h.renderBoard(gs, "") })

    r := chi.NewRouter()
    r.Use(middleware.Recoverer)
    r.Use(requestLogger)
    r.Get("/", h.index)
    r.Post("/game", h.create)
    r.Route("/game/{id}", func(r chi.Router) {
        r.Use(gameIDOnly)
        r.Get("/", h.view)
        r.Post("/play", h.play)
        r.Post("/undo", h.undo)
        r.Get("/hint", h.hint)
        r.Get("/events", h.events)
        r.Get("/ws", h.ws)
    })
    return r
}

// gameIDOnly answers 404 for ids that cannot name a game, before any
// handler looks them up.
func gameIDOnly(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !app.ValidID(chi.URLParam(r, "id")) {
            http.NotFound(w, r)
            return
        }
        next.ServeHTTP(w, r)
    })
}

func requestLogger(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
        start := time.Now()
        next.ServeHTTP(ww, r)
        log.Debug().
            Str("method", r.Method).
            Str("path", r.URL.Path).
            Int("status", ww.Status()).
            Dur("took", time.Since(start)).
            Msg("http-request")
    })
}
