package web

import (
    "bytes"
    "html/template"
    "net/http"

    "github.com/google/uuid"

    "github.com/jaminalder/codex-gomoku/internal/app"
    "github.com/jaminalder/codex-gomoku/internal/domain"
)

type templates struct {
    base  *template.Template
    game  *template.Template
    board *template.Template
    index *template.Template
}

func funcs() template.FuncMap {
    return template.FuncMap{
        "iter": func(n int) []int {
            a := make([]int, n)
            for i := range a {
                a[i] = i
            }
            return a
        },
        "cellSymbol": func(c domain.Cell) string {
            switch c {
            case domain.BlackStone:
                return "●"
            case domain.WhiteStone:
                return "○"
            default:
                return ""
            }
        },
        "cellAt": func(s domain.Snapshot, x, y int) domain.Cell { return s.Cells[y][x] },
        "isLast": func(s domain.Snapshot, x, y int) bool {
            m, ok := s.Last()
            return ok && m.X == x && m.Y == y
        },
    }
}

func loadTemplates() *templates {
    base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Gomoku</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.row{display:flex}.row form{margin:0}
.row button{width:28px;height:28px;padding:0;font-size:20px;line-height:1}
.last{outline:2px solid #c33}
</style>
</head><body>{{template "content" .}}</body></html>`))
    // Define the board template within the same set so game can include it
    template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
    index := template.Must(template.Must(base.Clone()).New("content").Parse(indexTemplate))
    game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<h1>Gomoku</h1>
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div sse-swap="board">{{template "board" .}}</div>
</div>
<form hx-post="/game/{{.ID}}/undo" hx-target="#board" hx-swap="outerHTML" method="post"><button>Undo</button></form>
<p><a href="/">New game</a></p>`))
    // Standalone board template used for fragment rendering
    board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
    return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
    var buf bytes.Buffer
    if name == "" {
        _ = t.Execute(&buf, data)
    } else {
        _ = t.ExecuteTemplate(&buf, name, data)
    }
    return buf.Bytes()
}

const indexTemplate = `<h1>Gomoku</h1>
<form action="/game" method="post">
  <label>Width <input name="width" type="number" min="5" max="{{.MaxDimension}}" value="{{.Width}}"></label>
  <label>Height <input name="height" type="number" min="5" max="{{.MaxDimension}}" value="{{.Height}}"></label>
  <label>Engine plays
    <select name="side">
      <option value="black"{{if eq .Side "black"}} selected{{end}}>Black (moves first)</option>
      <option value="white"{{if eq .Side "white"}} selected{{end}}>White</option>
    </select>
  </label>
  <label>Depth <input name="depth" type="number" min="1" max="{{.MaxDepth}}" value="{{.Depth}}"></label>
  <button>Create</button>
</form>`

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <div class="status">{{.Status}}</div>
  {{$id := .ID}}{{$b := .Board}}
  {{range $y := iter $b.Height}}
  <div class="row">
    {{range $x := iter $b.Width}}
      <form hx-post="/game/{{$id}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="x" value="{{$x}}">
        <input type="hidden" name="y" value="{{$y}}">
        <button type="submit"{{if isLast $b $x $y}} class="last"{{end}}>{{cellSymbol (cellAt $b $x $y)}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
</div>
`

// boardData is the model for the board template.
type boardData struct {
    ID     string
    Board  domain.Snapshot
    Status string
    Error  string
}

func newBoardData(gs app.GameState, errMsg string) boardData {
    return boardData{ID: gs.ID, Board: gs.Board, Status: statusText(gs), Error: errMsg}
}

func statusText(gs app.GameState) string {
    switch {
    case gs.Draw:
        return "Draw"
    case gs.Over && gs.Winner == gs.EngineSide:
        return gs.Winner.String() + " wins. The engine takes it."
    case gs.Over:
        return gs.Winner.String() + " wins. Well played!"
    case gs.Board.ToMove == gs.EngineSide:
        return "Engine to move"
    default:
        return "Your move (" + gs.HumanSide().String() + ")"
    }
}

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
    if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
        return c.Value
    }
    // Generate UUIDv4 for player ID
    v := uuid.NewString()
    http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/"})
    return v
}
