// Package livereload notifies connected browsers when a watch rebuild
// finishes, speaking the LiveReload protocol (version 7) over websockets.
package livereload

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Path is where browsers connect.
const Path = "/livereload"

const (
	protocol  = "http://livereload.com/protocols/official-7"
	writeWait = 5 * time.Second
)

type helloMessage struct {
	Command    string   `json:"command"`
	Protocols  []string `json:"protocols"`
	ServerName string   `json:"serverName"`
}

type reloadMessage struct {
	Command string `json:"command"`
	Path    string `json:"path"`
	LiveCSS bool   `json:"liveCSS"`
}

// Server tracks browser connections and broadcasts reload commands.
type Server struct {
	upgrader websocket.Upgrader

	// mu guards clients and serializes writes to them.
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New creates a Server with no clients.
func New() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns an http.Handler that serves the websocket endpoint at Path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, s)
	return mux
}

// ServeHTTP upgrades the connection, greets the client and keeps it
// registered until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("livereload upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	hello, _ := json.Marshal(helloMessage{
		Command:    "hello",
		Protocols:  []string{protocol},
		ServerName: "assetpipe",
	})

	s.mu.Lock()
	if err := write(conn, hello); err != nil {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	slog.Debug("livereload client connected", "remote", r.RemoteAddr)

	// Clients send hello and info messages; none of them need a reply.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
	slog.Debug("livereload client disconnected", "remote", r.RemoteAddr)
}

// Reload tells every client to reload path. Stylesheets are swapped in place
// by the browser. Clients that cannot be written to are dropped.
func (s *Server) Reload(path string) {
	data, err := json.Marshal(reloadMessage{Command: "reload", Path: path, LiveCSS: true})
	if err != nil {
		slog.Warn("encoding livereload message", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := write(conn, data); err != nil {
			slog.Debug("dropping livereload client", "error", err)
			delete(s.clients, conn)
			conn.Close()
		}
	}
	slog.Info("livereload", "path", path, "clients", len(s.clients))
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func write(conn *websocket.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
