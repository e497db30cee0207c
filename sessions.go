/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"crypto/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// ClientMessage is anything a browser may send over a game socket. Each game
// only reads the fields its message types use.
type ClientMessage struct {
	Type     string  `json:"type"`               // game-specific action
	Count    int     `json:"count,omitempty"`    // set_players / start
	Index    *int    `json:"index,omitempty"`    // reveal / challenge
	Topic    string  `json:"topic,omitempty"`    // charades start
	Duration int     `json:"duration,omitempty"` // charades start, seconds
	X        float64 `json:"x,omitempty"`        // motion
	Y        float64 `json:"y,omitempty"`        // motion
	Z        float64 `json:"z,omitempty"`        // motion
}

// SimpleMessage is for generic notifications ("error", etc.)
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// CueMessage asks every client to play a sound.
type CueMessage struct {
	Type string `json:"type"` // "cue"
	Name string `json:"name"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type inbound struct {
	client *Client
	msg    ClientMessage
}

// game is the per-session logic plugged into a room. Every method is called
// from the room's run loop.
type game interface {
	welcome(c *Client)
	handle(c *Client, msg ClientMessage)
	afterTask()
	shutdown()
}

// room is one game session: its clients, and the single loop that serialises
// everything that happens to them.
type room struct {
	id      string
	clients map[*Client]bool
	game    game

	register chan *Client
	unreg    chan *Client
	inbox    chan inbound
	tasks    chan func()

	done      chan struct{}
	closeOnce sync.Once

	mu         sync.RWMutex
	createdAt  time.Time
	lastActive time.Time
}

func newRoom(id string, newGame func(r *room) game) *room {
	now := time.Now()
	r := &room{
		id:         id,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		inbox:      make(chan inbound),
		tasks:      make(chan func(), 16),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
	r.game = newGame(r)

	return r
}

func (r *room) run(cfg *Config) {
	defer r.teardown(cfg)

	for {
		select {
		case <-r.done:
			return

		case c := <-r.register:
			r.touch()
			r.clients[c] = true
			logf(cfg, "GAMES: Client %s connected to %s", c.playerID, r.id)
			r.game.welcome(c)

		case c := <-r.unreg:
			r.touch()
			if _, ok := r.clients[c]; ok {
				delete(r.clients, c)
				close(c.send)
				logf(cfg, "GAMES: Client %s left %s", c.playerID, r.id)
			}

		case in := <-r.inbox:
			r.touch()
			r.game.handle(in.client, in.msg)

		case f := <-r.tasks:
			f()
			r.game.afterTask()
		}
	}
}

func (r *room) teardown(cfg *Config) {
	r.game.shutdown()

	logf(cfg, "GAMES: Closed %s after %s", r.id, time.Since(r.createdAt).Round(time.Second))

	for c := range r.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(r.clients, c)
	}
}

// Post queues f to run on the room's loop. It is dropped once the room closes.
func (r *room) Post(f func()) {
	select {
	case r.tasks <- f:
	case <-r.done:
	}
}

func (r *room) close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

func (r *room) touch() {
	r.mu.Lock()
	r.lastActive = time.Now()
	r.mu.Unlock()
}

func (r *room) lastSeen() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastActive
}

// sendTo drops clients whose buffers are full.
func (r *room) sendTo(c *Client, msg any) {
	if !r.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(r.clients, c)
		close(c.send)
	}
}

func (r *room) broadcast(msg any) {
	for c := range r.clients {
		r.sendTo(c, msg)
	}
}

func (r *room) sendError(c *Client, err error) {
	r.sendTo(c, SimpleMessage{
		Type:    "error",
		Message: err.Error(),
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "partyfun_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of rooms keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	rooms       map[string]*room
	idleTimeout time.Duration
	newGame     func(r *room) game
}

func newGameManager(ctx context.Context, idleTimeout time.Duration, newGame func(r *room) game) *GameManager {
	gm := &GameManager{
		rooms:       make(map[string]*room),
		idleTimeout: idleTimeout,
		newGame:     newGame,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop(ctx)
	}
	return gm
}

func (gm *GameManager) getRoom(cfg *Config, gameID string) *room {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if r, ok := gm.rooms[gameID]; ok {
		return r
	}

	r := newRoom(gameID, gm.newGame)
	gm.rooms[gameID] = r
	go r.run(cfg)
	return r
}

func (gm *GameManager) count() int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	return len(gm.rooms)
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
		_, exists := gm.rooms[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically closes rooms that have been idle longer than
// idleTimeout, and all of them once ctx is done.
func (gm *GameManager) reaperLoop(ctx context.Context) {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			gm.closeAll()
			return
		case <-ticker.C:
			gm.reap(time.Now().Add(-gm.idleTimeout))
		}
	}
}

func (gm *GameManager) reap(cutoff time.Time) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, r := range gm.rooms {
		if r.lastSeen().Before(cutoff) {
			delete(gm.rooms, id)
			r.close()
		}
	}
}

func (gm *GameManager) closeAll() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, r := range gm.rooms {
		delete(gm.rooms, id)
		r.close()
	}
}

// WebSocket handler that picks the room based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, req)

		r := gm.getRoom(cfg, gameID)

		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			errorf(cfg, "GAMES: Websocket upgrade failed for %s: %v", gameID, err)
			return
		}
		// The server's read and write timeouts must not apply to a hijacked socket.
		_ = conn.NetConn().SetDeadline(time.Time{})

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			playerID: playerID,
		}

		select {
		case r.register <- client:
		case <-r.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(r)
	}
}

func (c *Client) readPump(r *room) {
	defer func() {
		select {
		case r.unreg <- c:
		case <-r.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case r.inbox <- inbound{client: c, msg: msg}:
		case <-r.done:
			return
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

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func serveGamePage(cfg *Config, page []byte) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, _ = w.Write(page)
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

// registerGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerGame(cfg *Config, path string, page []byte, mux *httprouter.Router, gm *GameManager) {
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))
	mux.GET(cfg.prefix+path+"/:gameid", serveGamePage(cfg, page))
	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))
	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)
}
