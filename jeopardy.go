// Jeopardy Board
//
// Each game session shows a grid of trivia categories, one column per
// category and one row per clue slot. Clicking a cell reveals its question;
// clicking again reveals the answer. Everyone connected to the same game ID
// sees the same board, so one screen can act as the projector while others
// follow along.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - First connection to a fresh game triggers the initial board setup
// - Any client can restart the game with a brand new board
// - Clue text is only sent to clients once it has been revealed
// - Board setup runs off the session loop; stale setups are discarded
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/jeopardy/trivia"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients
type ClientMessage struct {
	Type   string `json:"type"`             // "start", "reveal"
	Column *int   `json:"column,omitempty"` // reveal
	Row    *int   `json:"row,omitempty"`    // reveal
}

// CellView is a single board cell as clients see it.
type CellView struct {
	Text    string `json:"text"`
	Showing string `json:"showing"` // "unrevealed", "question", "answer"
}

type CategoryView struct {
	Title string     `json:"title"`
	Cells []CellView `json:"cells"`
}

// BoardMessage carries the whole board, with unrevealed cells masked.
type BoardMessage struct {
	Type       string         `json:"type"` // "board"
	Categories []CategoryView `json:"categories"`
}

// CellMessage redraws one cell after a reveal.
type CellMessage struct {
	Type    string `json:"type"` // "cell"
	Column  int    `json:"column"`
	Row     int    `json:"row"`
	Text    string `json:"text"`
	Showing string `json:"showing"`
}

// SimpleMessage is for generic notifications ("loading", "error", etc.)
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

func newBoardMessage(b *trivia.Board) BoardMessage {
	cats := make([]CategoryView, 0, len(b.Categories))
	for _, cat := range b.Categories {
		cells := make([]CellView, 0, len(cat.Clues))
		for i := range cat.Clues {
			cells = append(cells, CellView{
				Text:    cat.Clues[i].Display(),
				Showing: cat.Clues[i].Showing.String(),
			})
		}
		cats = append(cats, CategoryView{Title: cat.Title, Cells: cells})
	}

	return BoardMessage{Type: "board", Categories: cats}
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

type revealRequest struct {
	client *Client
	coord  trivia.Coord
}

type Hub struct {
	id      string
	builder trivia.BoardBuilder
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	starts   chan *Client
	reveals  chan revealRequest

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time

	// generation counts board setups; only the newest may touch the board.
	generation  uint64
	cancelSetup context.CancelFunc
	board       *trivia.Board
	loading     bool
	lastErr     string
}

func newHub(ctx context.Context, gameID string, builder trivia.BoardBuilder) *Hub {
	now := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	return &Hub{
		id:         gameID,
		builder:    builder,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		starts:     make(chan *Client),
		reveals:    make(chan revealRequest),
		ctx:        ctx,
		cancel:     cancel,
		createdAt:  now,
		lastActive: now,
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case <-h.ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true

			fresh := h.generation == 0

			// Bring the newcomer up to date with whatever the session is doing.
			switch {
			case h.loading:
				h.sendLocked(c, SimpleMessage{Type: "loading"})
			case h.board != nil:
				h.sendLocked(c, newBoardMessage(h.board))
			case h.lastErr != "":
				h.sendLocked(c, SimpleMessage{Type: "error", Message: h.lastErr})
			}
			h.mu.Unlock()

			if fresh {
				h.startGame(cfg)
			}

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case <-h.starts:
			h.startGame(cfg)

		case rr := <-h.reveals:
			h.handleReveal(cfg, rr)
		}
	}
}

// startGame kicks off a new board setup in the background. Any setup still
// in flight is cancelled and its result ignored.
func (h *Hub) startGame(cfg *Config) {
	h.mu.Lock()
	h.lastActive = time.Now()
	if h.cancelSetup != nil {
		h.cancelSetup()
	}
	h.generation++
	gen := h.generation
	ctx, cancel := context.WithCancel(h.ctx)
	h.cancelSetup = cancel

	// Drop the old board now so no click reaches it while the new one builds.
	h.board = nil
	h.loading = true
	h.lastErr = ""
	h.broadcastLocked(SimpleMessage{Type: "loading"})
	h.mu.Unlock()

	logf(cfg, "GAMES: Building board %d for %s", gen, h.id)

	go func() {
		defer cancel()

		startTime := time.Now()

		game := trivia.NewGame(h.builder, &sessionView{hub: h, generation: gen})
		if _, err := game.Start(ctx); err != nil {
			return
		}

		logf(cfg, "GAMES: Board %d for %s ready in %s", gen, h.id, time.Since(startTime).Round(time.Millisecond))
	}()
}

func (h *Hub) handleReveal(cfg *Config, rr revealRequest) {
	h.mu.Lock()
	h.lastActive = time.Now()
	board, gen := h.board, h.generation
	if board == nil {
		h.sendLocked(rr.client, SimpleMessage{Type: "reveal_error", Message: "There is no board to reveal from yet."})
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	// The board is only ever mutated here, on the session loop, so the
	// reveal itself needs no lock; the view takes it to broadcast.
	game := trivia.NewGame(h.builder, &sessionView{hub: h, generation: gen})

	changed, err := game.Click(board, rr.coord)
	if err != nil {
		h.mu.Lock()
		h.sendLocked(rr.client, SimpleMessage{Type: "reveal_error", Message: err.Error()})
		h.mu.Unlock()
		return
	}

	if changed {
		logf(cfg, "GAMES: Revealed %s in %s", rr.coord, h.id)
	}
}

// sendLocked queues msg for c, dropping the client if it can't keep up.
// Assumes h.mu is held.
func (h *Hub) sendLocked(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcastLocked assumes h.mu is held.
func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

// closeAll disconnects all clients of this hub (used by reaper).
func (h *Hub) closeAll() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

// sessionView presents one board setup to every client of a hub. Calls from
// a superseded setup are dropped.
type sessionView struct {
	hub        *Hub
	generation uint64
}

func (v *sessionView) current() bool {
	return v.generation == v.hub.generation
}

func (v *sessionView) ShowLoading() {
	h := v.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	// startGame already announced this setup; only a stray call needs work.
	if !v.current() || (h.loading && h.board == nil) {
		return
	}

	h.board = nil
	h.loading = true
	h.lastErr = ""
	h.broadcastLocked(SimpleMessage{Type: "loading"})
}

func (v *sessionView) RenderBoard(b *trivia.Board) {
	h := v.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if !v.current() {
		return
	}

	h.board = b
	h.loading = false
	h.lastActive = time.Now()
	h.broadcastLocked(newBoardMessage(b))
}

func (v *sessionView) RenderCell(c trivia.Coord, clue trivia.Clue) {
	h := v.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if !v.current() {
		return
	}

	h.broadcastLocked(CellMessage{
		Type:    "cell",
		Column:  c.Column,
		Row:     c.Row,
		Text:    clue.Display(),
		Showing: clue.Showing.String(),
	})
}

func (v *sessionView) ShowError(err error) {
	h := v.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if !v.current() || errors.Is(err, context.Canceled) {
		return
	}

	errorf("GAMES: Board %d for %s failed: %v", v.generation, h.id, err)

	h.loading = false
	h.lastErr = "Unable to load a new board. Please try again."
	h.broadcastLocked(SimpleMessage{Type: "error", Message: h.lastErr})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	ctx         context.Context
	builder     trivia.BoardBuilder
	hubs        map[string]*Hub
	idleTimeout time.Duration
}

func newGameManager(ctx context.Context, builder trivia.BoardBuilder, idleTimeout time.Duration) *GameManager {
	gm := &GameManager{
		ctx:         ctx,
		builder:     builder,
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(gm.ctx, gameID, gm.builder)
	gm.hubs[gameID] = hub
	go hub.run(cfg)
	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			hub.mu.RLock()
			last := hub.lastActive
			connected := len(hub.clients)
			hub.mu.RUnlock()

			if connected == 0 && last.Before(cutoff) {
				delete(gm.hubs, id)
				go hub.closeAll()
			}
		}
		gm.mu.Unlock()
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "GAMES: Upgrade for %s from %s failed: %v", gameID, realIP(r), err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 16),
		}

		select {
		case hub.register <- client:
		case <-hub.ctx.Done():
			_ = conn.Close()
			return
		}

		logf(cfg, "GAMES: %s connected to %s", realIP(r), gameID)

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.ctx.Done():
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "start":
			select {
			case h.starts <- c:
			case <-h.ctx.Done():
				return
			}
		case "reveal":
			if msg.Column == nil || msg.Row == nil {
				continue
			}
			select {
			case h.reveals <- revealRequest{
				client: c,
				coord:  trivia.Coord{Column: *msg.Column, Row: *msg.Row},
			}:
			case <-h.ctx.Done():
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func getIndexHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/jeopardy/index.html")
		if err != nil {
			http.Error(w, "missing board page", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_, _ = w.Write(data)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerJeopardyGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML board
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerJeopardyGame(ctx context.Context, cfg *Config, path string, mux *httprouter.Router, builder trivia.BoardBuilder) *GameManager {
	gm := newGameManager(ctx, builder, cfg.sessionTimeout)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)

	return gm
}
