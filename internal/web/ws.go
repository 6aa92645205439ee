package web

import (
    "encoding/json"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/gorilla/websocket"
    "github.com/rs/zerolog/log"

    "github.com/jaminalder/codex-gomoku/internal/app"
)

type wsMessage struct {
    Type    string          `json:"type"`
    Payload json.RawMessage `json:"payload,omitempty"`
}

type moveDTO struct {
    Player string `json:"player"`
    X      int    `json:"x"`
    Y      int    `json:"y"`
}

// statusDTO is the JSON view of a game pushed to websocket clients.
type statusDTO struct {
    ID         string    `json:"id"`
    Width      int       `json:"width"`
    Height     int       `json:"height"`
    Cells      [][]int   `json:"cells"`
    ToMove     string    `json:"toMove"`
    EngineSide string    `json:"engineSide"`
    Depth      int       `json:"depth"`
    History    []moveDTO `json:"history"`
    Over       bool      `json:"over"`
    Draw       bool      `json:"draw"`
    Winner     string    `json:"winner,omitempty"`
    Delta      int       `json:"engineDelta"`
}

func newStatusDTO(gs app.GameState) statusDTO {
    b := gs.Board
    cells := make([][]int, len(b.Cells))
    for y, row := range b.Cells {
        cells[y] = make([]int, len(row))
        for x, c := range row {
            cells[y][x] = int(c)
        }
    }
    hist := make([]moveDTO, 0, len(b.History))
    for _, m := range b.History {
        hist = append(hist, moveDTO{Player: m.Player.String(), X: m.X, Y: m.Y})
    }
    dto := statusDTO{
        ID: gs.ID, Width: b.Width, Height: b.Height, Cells: cells,
        ToMove: b.ToMove.String(), EngineSide: gs.EngineSide.String(), Depth: gs.Depth,
        History: hist, Over: gs.Over, Draw: gs.Draw, Delta: gs.EngineDelta,
    }
    if gs.Over && !gs.Draw {
        dto.Winner = gs.Winner.String()
    }
    return dto
}

func mustMarshal(v any) []byte {
    b, err := json.Marshal(v)
    if err != nil {
        panic(err)
    }
    return b
}

// statusMessage encodes the current state of a game as a "status" message.
func (h *handlers) statusMessage(id string) ([]byte, bool) {
    gs, ok := h.svc.Get(id)
    if !ok {
        return nil, false
    }
    return mustMarshal(wsMessage{Type: "status", Payload: mustMarshal(newStatusDTO(*gs))}), true
}

// writeWSWithHeartbeat drains send into conn and pings when the connection
// has been idle for a full interval. It returns when done closes.
func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}, interval time.Duration) error {
    ticker := time.NewTicker(interval)
    defer ticker.Stop()
    lastWrite := time.Now()
    pingPayload := mustMarshal(wsMessage{Type: "ping"})

    for {
        select {
        case <-done:
            return nil
        case msg, ok := <-send:
            if !ok {
                return nil
            }
            if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
                return err
            }
            lastWrite = time.Now()
        case <-ticker.C:
            if time.Since(lastWrite) < interval {
                continue
            }
            if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
                return err
            }
            lastWrite = time.Now()
        }
    }
}

func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    first, ok := h.statusMessage(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
    conn, err := upgrader.Upgrade(w, r, nil)
    if err != nil {
        return
    }
    defer conn.Close()

    updates, unsub, err := h.svc.Subscribe(r.Context(), id)
    if err != nil {
        return
    }
    defer unsub()

    send := make(chan []byte, 16)
    done := make(chan struct{})
    defer close(done)
    push := func(msg []byte) {
        select {
        case send <- msg:
        case <-done:
        }
    }
    send <- first

    go func() {
        if err := writeWSWithHeartbeat(conn, send, done, h.heartbeat); err != nil {
            log.Debug().Str("game", id).Err(err).Msg("ws-write-failed")
            conn.Close()
        }
    }()
    // Each broadcast is only a signal; clients get the JSON state instead.
    go func() {
        for {
            select {
            case <-done:
                return
            case _, ok := <-updates:
                if !ok {
                    return
                }
                if msg, ok := h.statusMessage(id); ok {
                    push(msg)
                }
            }
        }
    }()

    for {
        _, message, err := conn.ReadMessage()
        if err != nil {
            return
        }
        var msg wsMessage
        if err := json.Unmarshal(message, &msg); err != nil {
            continue
        }
        switch msg.Type {
        case "request_status":
            if m, ok := h.statusMessage(id); ok {
                push(m)
            }
        }
    }
}
