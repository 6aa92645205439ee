package app

import (
    "context"
    "errors"
    "fmt"
    "os"
    "testing"
    "time"

    "github.com/rs/zerolog"

    "github.com/jaminalder/codex-gomoku/internal/domain"
)

func TestMain(m *testing.M) {
    zerolog.SetGlobalLevel(zerolog.InfoLevel)
    os.Exit(m.Run())
}

// minimal renderer for tests: encode moves count as bytes
func testRenderer(gs GameState) []byte { return []byte(fmt.Sprintf("moves=%d", len(gs.Board.History))) }

func humanFirst() Options {
    return Options{Width: 16, Height: 16, EngineSide: domain.White, Depth: 1}
}

func TestCreateAndGet(t *testing.T) {
    s := NewServiceWithRenderer(testRenderer)
    gs, err := s.CreateGame(Options{EngineSide: domain.Black})
    if err != nil {
        t.Fatalf("CreateGame error: %v", err)
    }
    if !ValidID(gs.ID) {
        t.Fatalf("expected a uuid game ID, got %q", gs.ID)
    }
    if gs.Board.Width != 16 || gs.Board.Height != 16 || gs.Depth != 2 {
        t.Fatalf("expected default options, got %dx%d depth %d", gs.Board.Width, gs.Board.Height, gs.Depth)
    }
    // The engine opens as Black near the centre.
    if len(gs.Board.History) != 1 || gs.Board.Cells[7][7] != domain.BlackStone {
        t.Fatalf("expected engine opening at (7,7), history=%v", gs.Board.History)
    }
    if gs.Board.ToMove != domain.White || gs.HumanSide() != domain.White {
        t.Fatalf("expected human (White) to move")
    }
    if gs.Created.IsZero() || gs.Updated.IsZero() {
        t.Fatalf("expected timestamps to be set")
    }
    got, ok := s.Get(gs.ID)
    if !ok || got.ID != gs.ID {
        t.Fatalf("Get should find created game")
    }
    if _, ok := s.Get("missing"); ok {
        t.Fatalf("Get should not find unknown game")
    }
}

func TestCreateRejectsBadOptions(t *testing.T) {
    s := NewService()
    bad := []Options{
        {Width: -1, Height: 5},
        {Width: 1 << 20, Height: 1, EngineSide: domain.White, Depth: 1},
        {Width: 16, Height: MaxDimension + 1, EngineSide: domain.White},
        {Width: 16, Height: 16, EngineSide: domain.White, Depth: MaxDepth + 1},
        {Width: 16, Height: 16, EngineSide: domain.White, Depth: -1},
    }
    for _, o := range bad {
        if _, err := s.CreateGame(o); !errors.Is(err, ErrBadOptions) {
            t.Fatalf("CreateGame(%+v): expected ErrBadOptions, got %v", o, err)
        }
    }
    if _, err := s.CreateGame(Options{Width: MaxDimension, Height: MaxDimension, EngineSide: domain.White, Depth: MaxDepth}); err != nil {
        t.Fatalf("largest allowed game rejected: %v", err)
    }
}

func TestPlayEngineReplies(t *testing.T) {
    s := NewServiceWithRenderer(testRenderer)
    gs, _ := s.CreateGame(humanFirst())
    if len(gs.Board.History) != 0 {
        t.Fatalf("engine should wait for the human to open")
    }

    st, err := s.Play(gs.ID, "", 7, 7)
    if err != nil {
        t.Fatalf("play failed: %v", err)
    }
    if len(st.Board.History) != 2 {
        t.Fatalf("expected human move and engine reply, got %v", st.Board.History)
    }
    reply := st.Board.History[1]
    if reply.Player != domain.White {
        t.Fatalf("expected engine to reply as White, got %v", reply)
    }
    if st.Board.ToMove != domain.Black {
        t.Fatalf("expected human to move again")
    }
}

func TestPlayRejectsInvalidMoves(t *testing.T) {
    s := NewServiceWithRenderer(testRenderer)
    gs, _ := s.CreateGame(Options{EngineSide: domain.Black, Depth: 1})

    if _, err := s.Play(gs.ID, "", 7, 7); !errors.Is(err, ErrInvalidMove) {
        t.Fatalf("expected ErrInvalidMove on occupied square, got %v", err)
    }
    if _, err := s.Play(gs.ID, "", 16, 0); !errors.Is(err, ErrInvalidMove) {
        t.Fatalf("expected ErrInvalidMove off the board, got %v", err)
    }
    if _, err := s.Play("missing", "", 0, 0); !errors.Is(err, ErrNotFound) {
        t.Fatalf("expected ErrNotFound, got %v", err)
    }
    latest, _ := s.Get(gs.ID)
    if len(latest.Board.History) != 1 {
        t.Fatalf("rejected moves changed the game: %v", latest.Board.History)
    }
}

func TestHumanWinEndsGame(t *testing.T) {
    s := NewServiceWithRenderer(testRenderer)
    gs, _ := s.CreateGame(humanFirst())

    // Give the human (Black) an open four with Black to move.
    g, _ := s.lookup(gs.ID)
    g.mu.Lock()
    b := g.board
    for _, m := range [][2]int{{3, 7}, {0, 15}, {4, 7}, {3, 15}, {5, 7}, {6, 15}, {6, 7}, {9, 15}} {
        if !b.Play(m[0], m[1]) {
            t.Fatalf("setup move %v rejected", m)
        }
    }
    g.mu.Unlock()

    st, err := s.Play(gs.ID, "", 7, 7)
    if err != nil {
        t.Fatalf("winning move failed: %v", err)
    }
    if !st.Over || st.Draw || st.Winner != domain.Black {
        t.Fatalf("expected Black win, over=%v draw=%v winner=%v", st.Over, st.Draw, st.Winner)
    }
    if len(st.Board.History) != 9 {
        t.Fatalf("engine must not reply after the game ends, history=%d", len(st.Board.History))
    }
    if _, err := s.Play(gs.ID, "", 8, 8); !errors.Is(err, ErrGameOver) {
        t.Fatalf("expected ErrGameOver, got %v", err)
    }
    if _, _, err := s.Hint(gs.ID, ""); !errors.Is(err, ErrGameOver) {
        t.Fatalf("expected ErrGameOver from Hint, got %v", err)
    }

    // Undo reopens the game.
    st, err = s.Undo(gs.ID, "")
    if err != nil {
        t.Fatalf("undo failed: %v", err)
    }
    if st.Over || len(st.Board.History) != 8 {
        t.Fatalf("expected game reopened with 8 moves, over=%v moves=%d", st.Over, len(st.Board.History))
    }
}

func TestDrawOnFullBoard(t *testing.T) {
    s := NewServiceWithRenderer(testRenderer)
    gs, err := s.CreateGame(Options{Width: 1, Height: 2, EngineSide: domain.White, Depth: 1})
    if err != nil {
        t.Fatalf("CreateGame error: %v", err)
    }
    st, err := s.Play(gs.ID, "", 0, 0)
    if err != nil {
        t.Fatalf("play failed: %v", err)
    }
    // The engine has no candidates on so small a board and falls back to
    // the last empty square.
    if !st.Over || !st.Draw || len(st.Board.History) != 2 {
        t.Fatalf("expected draw on full board, over=%v draw=%v moves=%d", st.Over, st.Draw, len(st.Board.History))
    }
}

func TestUndoTakesBackPair(t *testing.T) {
    s := NewServiceWithRenderer(testRenderer)
    gs, _ := s.CreateGame(humanFirst())
    if _, err := s.Play(gs.ID, "", 7, 7); err != nil {
        t.Fatalf("play failed: %v", err)
    }
    st, err := s.Undo(gs.ID, "")
    if err != nil {
        t.Fatalf("undo failed: %v", err)
    }
    if len(st.Board.History) != 0 || st.Board.ToMove != domain.Black {
        t.Fatalf("expected empty board with human to move, got %v", st.Board.History)
    }
    if _, err := s.Undo("missing", ""); !errors.Is(err, ErrNotFound) {
        t.Fatalf("expected ErrNotFound, got %v", err)
    }
}

func TestHint(t *testing.T) {
    s := NewServiceWithRenderer(testRenderer)
    gs, _ := s.CreateGame(Options{EngineSide: domain.Black, Depth: 1})

    m, _, err := s.Hint(gs.ID, "")
    if err != nil {
        t.Fatalf("hint failed: %v", err)
    }
    if m.Player != domain.White {
        t.Fatalf("expected hint for White, got %v", m)
    }
    if _, err := s.Play(gs.ID, "", m.X, m.Y); err != nil {
        t.Fatalf("hinted move should be playable: %v", err)
    }
}

func TestParseSide(t *testing.T) {
    cases := map[string]domain.Player{"black": domain.Black, "White": domain.White, " b ": domain.Black, "o": domain.White}
    for in, want := range cases {
        got, err := ParseSide(in)
        if err != nil || got != want {
            t.Fatalf("ParseSide(%q) = %v, %v", in, got, err)
        }
    }
    if _, err := ParseSide("red"); !errors.Is(err, ErrBadOptions) {
        t.Fatalf("expected ErrBadOptions, got %v", err)
    }
}

func TestSubscribeAndBroadcast(t *testing.T) {
    s := NewServiceWithRenderer(testRenderer)
    gs, _ := s.CreateGame(humanFirst())

    ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
    defer cancel()
    ch, unsub, err := s.Subscribe(ctx, gs.ID)
    if err != nil {
        t.Fatalf("subscribe failed: %v", err)
    }
    defer unsub()

    // Trigger an update: human plays, engine replies
    if _, err := s.Play(gs.ID, "", 7, 7); err != nil {
        t.Fatalf("play failed: %v", err)
    }

    select {
    case b, ok := <-ch:
        if !ok {
            t.Fatalf("channel closed unexpectedly")
        }
        if string(b) != "moves=2" {
            t.Fatalf("unexpected broadcast payload: %q", string(b))
        }
    case <-ctx.Done():
        t.Fatalf("timed out waiting for broadcast")
    }

    if _, _, err := s.Subscribe(ctx, "missing"); !errors.Is(err, ErrNotFound) {
        t.Fatalf("expected ErrNotFound, got %v", err)
    }
}

func TestDropSlowSubscriber(t *testing.T) {
    s := NewServiceWithRenderer(testRenderer)
    gs, _ := s.CreateGame(humanFirst())

    // Slow subscriber: never read
    ctxSlow, cancelSlow := context.WithCancel(context.Background())
    defer cancelSlow()
    slowCh, _, _ := s.Subscribe(ctxSlow, gs.ID)

    // Two quick updates; the second overflows the slow subscriber's buffer
    if _, err := s.Play(gs.ID, "", 7, 7); err != nil {
        t.Fatalf("play1: %v", err)
    }
    if _, err := s.Undo(gs.ID, ""); err != nil {
        t.Fatalf("undo: %v", err)
    }

    // The first payload is still buffered, then the channel is closed.
    if _, ok := <-slowCh; !ok {
        t.Fatalf("expected buffered payload before close")
    }
    select {
    case _, ok := <-slowCh:
        if ok {
            t.Fatalf("expected slow subscriber channel to be closed")
        }
    case <-time.After(time.Second):
        t.Fatalf("slow subscriber was not dropped")
    }
}

func TestOwnerOnlyMoves(t *testing.T) {
    s := NewServiceWithRenderer(testRenderer)
    o := humanFirst()
    o.Owner = "p1"
    gs, _ := s.CreateGame(o)
    if gs.Owner != "p1" {
        t.Fatalf("expected owner p1, got %q", gs.Owner)
    }
    // spectator cannot play, undo or ask for hints
    if _, err := s.Play(gs.ID, "p2", 7, 7); !errors.Is(err, ErrNotAPlayer) {
        t.Fatalf("expected ErrNotAPlayer, got %v", err)
    }
    if _, err := s.Undo(gs.ID, "p2"); !errors.Is(err, ErrNotAPlayer) {
        t.Fatalf("expected ErrNotAPlayer from Undo, got %v", err)
    }
    if _, _, err := s.Hint(gs.ID, "p2"); !errors.Is(err, ErrNotAPlayer) {
        t.Fatalf("expected ErrNotAPlayer from Hint, got %v", err)
    }
    if _, err := s.Play(gs.ID, "p1", 7, 7); err != nil {
        t.Fatalf("owner play failed: %v", err)
    }
}

func TestBusyGameDoesNotBlockOthers(t *testing.T) {
    s := NewServiceWithRenderer(testRenderer)
    a, _ := s.CreateGame(humanFirst())
    b, _ := s.CreateGame(humanFirst())

    // Hold game a as a long engine search would.
    ga, _ := s.lookup(a.ID)
    ga.mu.Lock()

    done := make(chan error, 1)
    go func() {
        if _, ok := s.Get(b.ID); !ok {
            done <- errors.New("game b not found")
            return
        }
        _, err := s.Play(b.ID, "", 7, 7)
        done <- err
    }()
    select {
    case err := <-done:
        if err != nil {
            t.Fatalf("game b: %v", err)
        }
    case <-time.After(5 * time.Second):
        ga.mu.Unlock()
        t.Fatalf("game b waited on game a")
    }

    // Game a itself waits until its search is done.
    got := make(chan struct{})
    go func() {
        s.Get(a.ID)
        close(got)
    }()
    select {
    case <-got:
        t.Fatalf("Get on a busy game returned before the search finished")
    case <-time.After(50 * time.Millisecond):
    }
    ga.mu.Unlock()
    select {
    case <-got:
    case <-time.After(5 * time.Second):
        t.Fatalf("Get on game a never returned")
    }
}
