package shell

import (
    "errors"
    "fmt"
    "io"
    "os"
    "strconv"
    "strings"
    "syscall"

    "github.com/chzyer/readline"
    "github.com/kballard/go-shellquote"
    "github.com/rs/zerolog/log"

    "github.com/jaminalder/codex-gomoku/internal/app"
    "github.com/jaminalder/codex-gomoku/internal/domain"
    "github.com/jaminalder/codex-gomoku/internal/engine"
)

var (
    errNoData      = errors.New("no data in line")
    errQuit        = errors.New("quit")
    errUnknownCmd  = errors.New("unknown command")
    errBadArgs     = errors.New("bad arguments")
    errIllegalMove = errors.New("illegal move")
)

type shellcmd struct {
    cmd  string
    args []string
}

// extractFields splits a command line the way a POSIX shell would.
func extractFields(line string) (*shellcmd, error) {
    fields, err := shellquote.Split(line)
    if err != nil {
        return nil, err
    }
    if len(fields) == 0 {
        return nil, errNoData
    }
    return &shellcmd{cmd: strings.ToLower(fields[0]), args: fields[1:]}, nil
}

type ShellController struct {
    l *readline.Instance

    board    *domain.Board
    searcher *engine.Searcher
    depth    int
    width    int
    height   int
}

func filterInput(r rune) (rune, bool) {
    switch r {
    // block CtrlZ feature
    case readline.CharCtrlZ:
        return r, false
    }
    return r, true
}

func showMessage(msg string, w io.Writer) {
    io.WriteString(w, msg)
    io.WriteString(w, "\n")
}

// newController returns a controller without a terminal attached.
func newController(width, height, depth int) *ShellController {
    return &ShellController{
        board:    domain.NewBoard(width, height, domain.Black),
        searcher: engine.NewSearcher(engine.DefaultWeights(), log.With().Str("component", "shell").Logger()),
        depth:    depth,
        width:    width,
        height:   height,
    }
}

// NewShellController opens a readline terminal over a fresh board.
func NewShellController(width, height, depth int, historyFile string) (*ShellController, error) {
    l, err := readline.NewEx(&readline.Config{
        Prompt:          "\033[32mgomoku>\033[0m ",
        HistoryFile:     historyFile,
        EOFPrompt:       "exit",
        InterruptPrompt: "^C",

        HistorySearchFold:   true,
        FuncFilterInputRune: filterInput,
    })
    if err != nil {
        return nil, err
    }
    sc := newController(width, height, depth)
    sc.l = l
    return sc, nil
}

func parseInts(args []string) ([]int, error) {
    out := make([]int, len(args))
    for i, a := range args {
        n, err := strconv.Atoi(a)
        if err != nil {
            return nil, fmt.Errorf("%w: %q is not a number", errBadArgs, a)
        }
        out[i] = n
    }
    return out, nil
}

// depthArg returns the optional depth argument, or the configured depth.
func (sc *ShellController) depthArg(args []string) (int, error) {
    if len(args) == 0 {
        return sc.depth, nil
    }
    n, err := parseInts(args[:1])
    if err != nil {
        return 0, err
    }
    if n[0] < 0 {
        return 0, fmt.Errorf("%w: negative depth", errBadArgs)
    }
    return n[0], nil
}

func (sc *ShellController) newGame(args []string) (string, error) {
    w, h, first := sc.width, sc.height, domain.Black
    if len(args) == 1 || len(args) > 3 {
        return "", fmt.Errorf("%w: new [width height [first]]", errBadArgs)
    }
    if len(args) >= 2 {
        n, err := parseInts(args[:2])
        if err != nil {
            return "", err
        }
        if n[0] < 1 || n[1] < 1 {
            return "", fmt.Errorf("%w: board must be at least 1x1", errBadArgs)
        }
        w, h = n[0], n[1]
    }
    if len(args) == 3 {
        p, err := app.ParseSide(args[2])
        if err != nil {
            return "", err
        }
        first = p
    }
    sc.width, sc.height = w, h
    sc.board = domain.NewBoard(w, h, first)
    return fmt.Sprintf("new %dx%d board, %v to move", w, h, first), nil
}

func (sc *ShellController) play(args []string) (string, error) {
    if len(args) != 2 {
        return "", fmt.Errorf("%w: play x y", errBadArgs)
    }
    n, err := parseInts(args)
    if err != nil {
        return "", err
    }
    mover := sc.board.ToMove()
    if !sc.board.Play(n[0], n[1]) {
        return "", fmt.Errorf("%w: (%d,%d)", errIllegalMove, n[0], n[1])
    }
    return sc.afterMove(domain.Move{Player: mover, X: n[0], Y: n[1]}), nil
}

// afterMove describes a move and announces a finished game.
func (sc *ShellController) afterMove(m domain.Move) string {
    msg := "played " + m.String()
    if p, ok := engine.Winner(sc.board); ok {
        msg += fmt.Sprintf("\n%v wins", p)
    } else if sc.board.Full() {
        msg += "\ndraw"
    }
    return msg
}

func (sc *ShellController) search(args []string, commit bool, minimax bool) (string, error) {
    var (
        m     domain.Move
        delta int
        ok    bool
        depth int
    )
    if minimax {
        var err error
        if depth, err = sc.depthArg(args); err != nil {
            return "", err
        }
        m, delta, ok = sc.searcher.Minimax(sc.board, depth)
    } else {
        m, delta, ok = sc.searcher.BestMove(sc.board)
    }
    if !ok {
        return fmt.Sprintf("no candidate moves (differential %d)", delta), nil
    }
    summary := fmt.Sprintf("%v delta %d nodes %d", m, delta, sc.searcher.Nodes())
    if !commit {
        return summary, nil
    }
    if !sc.board.Apply(m) {
        return "", fmt.Errorf("%w: engine chose %v", errIllegalMove, m)
    }
    return sc.afterMove(m) + "\n" + summary, nil
}

func (sc *ShellController) eval() string {
    black, white := engine.Evaluate(sc.board)
    return fmt.Sprintf("black %d white %d differential %d", black, white, black-white)
}

func (sc *ShellController) seqs(args []string) (string, error) {
    players := []domain.Player{domain.Black, domain.White}
    if len(args) > 0 {
        p, err := app.ParseSide(args[0])
        if err != nil {
            return "", err
        }
        players = []domain.Player{p}
    }
    var sb strings.Builder
    for _, p := range players {
        found := engine.FindSequences(sc.board, p)
        fmt.Fprintf(&sb, "%v: %d sequences\n", p, len(found))
        for _, s := range found {
            fmt.Fprintf(&sb, "  %v blocked=%d\n", s, s.Blocked())
        }
    }
    return strings.TrimRight(sb.String(), "\n"), nil
}

// Execute runs one command line against the current board and returns the
// text to show. It returns errQuit for exit.
func (sc *ShellController) Execute(line string) (string, error) {
    cmd, err := extractFields(line)
    if err != nil {
        return "", err
    }
    switch cmd.cmd {
    case "new":
        return sc.newGame(cmd.args)
    case "play", "p":
        return sc.play(cmd.args)
    case "undo", "u":
        if sc.board.MoveCount() == 0 {
            return "nothing to undo", nil
        }
        last, _ := sc.board.LastMove()
        sc.board.UndoLast()
        return "took back " + last.String(), nil
    case "best":
        return sc.search(cmd.args, false, false)
    case "minimax":
        return sc.search(cmd.args, false, true)
    case "go":
        return sc.search(cmd.args, true, true)
    case "eval":
        return sc.eval(), nil
    case "seqs":
        return sc.seqs(cmd.args)
    case "show":
        return sc.board.String(), nil
    case "help":
        return helptext, nil
    case "exit", "quit":
        return "", errQuit
    default:
        return "", fmt.Errorf("%w: %s", errUnknownCmd, cmd.cmd)
    }
}

// Loop reads commands until exit, EOF or an interrupt on an empty line, then
// signals sig.
func (sc *ShellController) Loop(sig chan os.Signal) {

    defer sc.l.Close()

    for {

        line, err := sc.l.Readline()
        if err == readline.ErrInterrupt {
            if len(line) == 0 {
                sig <- syscall.SIGINT
                break
            } else {
                continue
            }
        } else if err == io.EOF {
            sig <- syscall.SIGINT
            break
        }
        line = strings.TrimSpace(line)

        out, err := sc.Execute(line)
        switch {
        case errors.Is(err, errNoData):
        case errors.Is(err, errQuit):
            sig <- syscall.SIGINT
            log.Debug().Msgf("Exiting readline loop...")
            return
        case err != nil:
            showMessage("error: "+err.Error(), sc.l.Stderr())
        default:
            showMessage(out, sc.l.Stdout())
        }
    }
    log.Debug().Msgf("Exiting readline loop...")
}

const helptext = `commands:
  new [width height [black|white]]  start a new board
  play x y                          place a stone for the side to move
  undo                              take back the last stone
  best                              show the best one-ply move
  minimax [depth]                   show the minimax move
  go [depth]                        let the engine move
  eval                              show both scores and the differential
  seqs [black|white]                list significant sequences
  show                              print the board
  exit                              leave the shell`
