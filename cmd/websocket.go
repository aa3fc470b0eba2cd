package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"rentease/internal/handlers"
	"rentease/internal/models"
)

const (
	readLimit     = 4 << 10
	readDeadline  = 120 * time.Second // extended by every pong
	writeDeadline = 5 * time.Second
	pingInterval  = 15 * time.Second
	sendQueue     = 32 // notifications buffered per socket
)

var errHubClosed = errors.New("websocket hub stopped")

type directMsg struct {
	to models.Principal
	n  models.Notification
}

type unreg struct {
	principal models.Principal
	conn      *websocket.Conn
}

type onlineQuery struct {
	principal models.Principal
	reply     chan bool
}

type Client struct {
	Principal models.Principal
	Socket    *websocket.Conn
}

// peer is a registered socket with its outbound queue. Only its writeLoop
// writes data frames to the socket.
type peer struct {
	conn *websocket.Conn
	send chan models.Notification
}

// WebSocketManager pushes notifications to connected owners and renters.
// One socket is kept per principal; a new connection replaces the old one.
// Run never writes to a socket itself, so a slow client only fills its own
// queue; a client whose queue is full is disconnected.
type WebSocketManager struct {
	clients    map[models.Principal]*peer
	direct     chan directMsg
	register   chan Client
	unregister chan unreg
	online     chan onlineQuery
	done       chan struct{}

	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewWebSocketManager(infoLog, errorLog *log.Logger) *WebSocketManager {
	if infoLog == nil {
		infoLog = log.Default()
	}
	if errorLog == nil {
		errorLog = log.Default()
	}
	return &WebSocketManager{
		clients:    make(map[models.Principal]*peer),
		direct:     make(chan directMsg),
		register:   make(chan Client),
		unregister: make(chan unreg),
		online:     make(chan onlineQuery),
		done:       make(chan struct{}),
		infoLog:    infoLog,
		errorLog:   errorLog,
	}
}

// Run owns the clients map. It returns when ctx is cancelled, closing every
// socket on the way out.
func (ws *WebSocketManager) Run(ctx context.Context) {
	defer func() {
		for p, c := range ws.clients {
			ws.drop(p, c, websocket.CloseGoingAway, "server shutdown")
		}
		close(ws.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-ws.register:
			if old, ok := ws.clients[client.Principal]; ok {
				if old.conn == client.Socket {
					continue
				}
				ws.drop(client.Principal, old, websocket.ClosePolicyViolation, "replaced by a newer connection")
			}
			c := &peer{conn: client.Socket, send: make(chan models.Notification, sendQueue)}
			ws.clients[client.Principal] = c
			go ws.writeLoop(c, client.Principal)
			ws.infoLog.Printf("WS register %s=%d", client.Principal.Kind, client.Principal.ID)

		case u := <-ws.unregister:
			if cur, ok := ws.clients[u.principal]; ok && cur.conn == u.conn {
				ws.drop(u.principal, cur, 0, "")
				ws.infoLog.Printf("WS unregister %s=%d", u.principal.Kind, u.principal.ID)
			}

		case q := <-ws.online:
			_, ok := ws.clients[q.principal]
			q.reply <- ok

		case dm := <-ws.direct:
			c, ok := ws.clients[dm.to]
			if !ok {
				ws.infoLog.Printf("WS skip %s=%d offline (%s)", dm.to.Kind, dm.to.ID, dm.n.Type)
				continue
			}
			select {
			case c.send <- dm.n:
			default:
				ws.errorLog.Printf("WS queue full for %s=%d, disconnecting", dm.to.Kind, dm.to.ID)
				ws.drop(dm.to, c, websocket.ClosePolicyViolation, "client too slow")
			}
		}
	}
}

// drop forgets c and stops its writer. A non-zero code sends a close frame
// first; that happens off the Run goroutine since it waits on the socket. It
// must only be called from Run.
func (ws *WebSocketManager) drop(p models.Principal, c *peer, code int, reason string) {
	if ws.clients[p] == c {
		delete(ws.clients, p)
	}
	close(c.send)
	if code == 0 {
		_ = c.conn.Close()
		return
	}
	go func() {
		_ = writeClose(c.conn, code, reason)
		_ = c.conn.Close()
	}()
}

// writeLoop delivers queued notifications until the queue is closed or a
// write fails.
func (ws *WebSocketManager) writeLoop(c *peer, p models.Principal) {
	for n := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := c.conn.WriteJSON(n); err != nil {
			ws.errorLog.Printf("WS send to %s=%d: %v", p.Kind, p.ID, err)
			_ = c.conn.Close()
			ws.send(ws.unregister, unreg{principal: p, conn: c.conn})
			return
		}
	}
}

// Notify queues n for the principal's socket. Offline principals are skipped.
func (ws *WebSocketManager) Notify(ctx context.Context, to models.Principal, n models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	select {
	case ws.direct <- directMsg{to: to, n: n}:
		return nil
	case <-ws.done:
		return errHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Online reports whether the principal currently holds a socket.
func (ws *WebSocketManager) Online(ctx context.Context, p models.Principal) bool {
	q := onlineQuery{principal: p, reply: make(chan bool, 1)}
	select {
	case ws.online <- q:
	case <-ws.done:
		return false
	case <-ctx.Done():
		return false
	}
	select {
	case ok := <-q.reply:
		return ok
	case <-ctx.Done():
		return false
	}
}

func (ws *WebSocketManager) send(ch chan<- unreg, u unreg) {
	select {
	case ch <- u:
	case <-ws.done:
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
}

// WebSocketHandler expects the caller to be authenticated already; browsers
// pass the access token as ?token=.
func (app *application) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := handlers.PrincipalFrom(r.Context())
	if !ok {
		app.errorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.errorLog.Println("WebSocket upgrade error:", err)
		return
	}

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	select {
	case app.wsManager.register <- Client{Principal: p, Socket: conn}:
	case <-app.wsManager.done:
		_ = writeClose(conn, websocket.CloseGoingAway, "server shutdown")
		_ = conn.Close()
		return
	}

	go pingLoop(app.wsManager, conn, p)
	go readLoop(app.wsManager, conn, p)
}

func pingLoop(ws *WebSocketManager, conn *websocket.Conn, p models.Principal) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ws.done:
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				ws.send(ws.unregister, unreg{principal: p, conn: conn})
				return
			}
		}
	}
}

// readLoop drains client frames so control messages are processed; the
// socket is push only.
func readLoop(ws *WebSocketManager, conn *websocket.Conn, p models.Principal) {
	defer ws.send(ws.unregister, unreg{principal: p, conn: conn})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ws.errorLog.Printf("WS read %s=%d: %v", p.Kind, p.ID, err)
			}
			return
		}
	}
}

func writeClose(conn *websocket.Conn, code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeDeadline))
}
