package web

import (
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/rs/zerolog/log"

    "github.com/jaminalder/codex-gomoku/internal/app"
)

type handlers struct {
    svc       *app.Service
    tpl       *templates
    heartbeat time.Duration
}

func (h *handlers) renderBoard(gs app.GameState, errMsg string) []byte {
    return renderTemplate(h.tpl.board, "", newBoardData(gs, errMsg))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
    d := h.svc.Defaults()
    data := struct {
        Width, Height, Depth   int
        MaxDimension, MaxDepth int
        Side                   string
    }{
        Width: d.Width, Height: d.Height, Depth: d.Depth,
        MaxDimension: app.MaxDimension, MaxDepth: app.MaxDepth,
        Side: strings.ToLower(d.EngineSide.String()),
    }
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.index, "base", data))
}

// formInt reads an optional positive integer form value; empty means zero,
// which the service replaces with its default.
func formInt(r *http.Request, key string) (int, error) {
    v := strings.TrimSpace(r.Form.Get(key))
    if v == "" {
        return 0, nil
    }
    n, err := strconv.Atoi(v)
    if err != nil || n < 1 {
        return 0, fmt.Errorf("%w: %s=%q", app.ErrBadOptions, key, v)
    }
    return n, nil
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
    pid := ensurePlayerCookie(w, r)
    _ = r.ParseForm()
    o := h.svc.Defaults()
    o.Owner = pid
    var err error
    if o.Width, err = formInt(r, "width"); err == nil {
        if o.Height, err = formInt(r, "height"); err == nil {
            o.Depth, err = formInt(r, "depth")
        }
    }
    if err == nil && r.Form.Get("side") != "" {
        o.EngineSide, err = app.ParseSide(r.Form.Get("side"))
    }
    if err != nil {
        http.Error(w, err.Error(), http.StatusBadRequest)
        return
    }
    gs, err := h.svc.CreateGame(o)
    if err != nil {
        if errors.Is(err, app.ErrBadOptions) {
            http.Error(w, err.Error(), http.StatusBadRequest)
            return
        }
        http.Error(w, "failed to create", http.StatusInternalServerError)
        return
    }
    http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    ensurePlayerCookie(w, r)

    gs, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    // Render page with embedded board container
    _, _ = w.Write(renderTemplate(h.tpl.game, "base", newBoardData(*gs, "")))
}

// errorMessage maps service errors to text shown above the board.
func errorMessage(err error) string {
    switch {
    case errors.Is(err, app.ErrNotYourTurn):
        return "Not your turn"
    case errors.Is(err, app.ErrNotAPlayer):
        return "You are a spectator"
    case errors.Is(err, app.ErrInvalidMove):
        return "Invalid move"
    case errors.Is(err, app.ErrGameOver):
        return "Game is over"
    default:
        return "Something went wrong"
    }
}

// respondBoard writes the board fragment after a mutation, falling back to
// the stored state with an error message when the mutation failed.
func (h *handlers) respondBoard(w http.ResponseWriter, r *http.Request, id string, gs *app.GameState, err error) {
    var errMsg string
    if err != nil {
        if errors.Is(err, app.ErrNotFound) {
            http.NotFound(w, r)
            return
        }
        errMsg = errorMessage(err)
        if g, ok := h.svc.Get(id); ok {
            gs = g
        }
    }
    if gs == nil {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    _, _ = w.Write(h.renderBoard(*gs, errMsg))
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := ensurePlayerCookie(w, r)
    _ = r.ParseForm()
    x, errX := strconv.Atoi(r.Form.Get("x"))
    y, errY := strconv.Atoi(r.Form.Get("y"))
    var gs *app.GameState
    var err error
    if errX != nil || errY != nil {
        err = app.ErrInvalidMove
    } else {
        gs, err = h.svc.Play(id, pid, x, y)
    }
    if err != nil {
        log.Debug().Str("game", id).Err(err).Msg("play-rejected")
    }
    h.respondBoard(w, r, id, gs, err)
}

func (h *handlers) undo(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := ensurePlayerCookie(w, r)
    gs, err := h.svc.Undo(id, pid)
    h.respondBoard(w, r, id, gs, err)
}

type hintResponse struct {
    X     int    `json:"x"`
    Y     int    `json:"y"`
    Delta int    `json:"delta"`
    Error string `json:"error,omitempty"`
}

func (h *handlers) hint(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := ensurePlayerCookie(w, r)
    m, delta, err := h.svc.Hint(id, pid)
    w.Header().Set("Content-Type", "application/json")
    resp := hintResponse{X: m.X, Y: m.Y, Delta: delta}
    switch {
    case errors.Is(err, app.ErrNotFound):
        w.WriteHeader(http.StatusNotFound)
        resp = hintResponse{Error: err.Error()}
    case err != nil:
        w.WriteHeader(http.StatusConflict)
        resp = hintResponse{Error: errorMessage(err)}
    }
    _ = json.NewEncoder(w).Encode(resp)
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    if _, ok := h.svc.Get(id); !ok {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("X-Accel-Buffering", "no")
    // In tests or non-EventSource requests, just acknowledge headers and return
    if r.Header.Get("Accept") != "text/event-stream" {
        w.WriteHeader(http.StatusOK)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok {
        w.WriteHeader(http.StatusOK)
        return
    }
    ctx := r.Context()
    ch, unsub, err := h.svc.Subscribe(ctx, id)
    if err != nil {
        w.WriteHeader(http.StatusNotFound)
        return
    }
    defer unsub()
    // heartbeat ticker
    ticker := time.NewTicker(h.heartbeat)
    defer ticker.Stop()
    // Initial flush of headers
    flusher.Flush()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            _, _ = io.WriteString(w, ": ping\n\n")
            flusher.Flush()
        case b, ok := <-ch:
            if !ok {
                return
            }
            writeSSE(w, "board", b)
            flusher.Flush()
        }
    }
}

// writeSSE emits one event; every payload line gets its own data field.
func writeSSE(w io.Writer, event string, payload []byte) {
    _, _ = fmt.Fprintf(w, "event: %s\n", event)
    for _, line := range strings.Split(string(payload), "\n") {
        _, _ = fmt.Fprintf(w, "data: %s\n", line)
    }
    _, _ = io.WriteString(w, "\n")
}
