package docserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/docserver/protocol"
)

// maxWriteBytes bounds a merge-write request body.
const maxWriteBytes = 4 << 20

// Listen socket timing.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Documents persists remote documents. *sqlite.DocumentStore implements it.
type Documents interface {
	Get(ctx context.Context, projectID, accountID string) (*domain.RemoteDocument, error)
	Merge(ctx context.Context, projectID, accountID string, w domain.DocumentWrite, nowMs int64) (*domain.RemoteDocument, error)
}

// Server serves documents over HTTP and websockets.
type Server struct {
	cfg      Config
	docs     Documents
	hub      *Hub
	log      *slog.Logger
	clock    func() time.Time
	upgrader websocket.Upgrader
}

// NewServer creates a server. A nil logger uses slog.Default.
func NewServer(cfg Config, docs Documents, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:   cfg,
		docs:  docs,
		hub:   NewHub(),
		log:   log,
		clock: time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// WithClock overrides the clock used for server timestamps.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.clock = now
	return s
}

// Hub returns the snapshot fan-out hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1/projects/{project}/documents/{account}", func(r chi.Router) {
		r.Use(rateLimit(s.cfg.RateLimit, s.cfg.Burst))
		r.Use(auth(s.cfg.Keys))
		r.Get("/", s.handleGet)
		r.Patch("/", s.handlePatch)
		r.Get("/listen", s.handleListen)
	})
	return r
}

// handleGet handles GET /v1/projects/{project}/documents/{account}.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	project, account := chi.URLParam(r, "project"), chi.URLParam(r, "account")

	doc, err := s.docs.Get(r.Context(), project, account)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		s.log.Error("get document", "project", project, "account", account, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handlePatch handles PATCH /v1/projects/{project}/documents/{account}.
func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	project, account := chi.URLParam(r, "project"), chi.URLParam(r, "account")

	r.Body = http.MaxBytesReader(w, r.Body, maxWriteBytes)
	var write domain.DocumentWrite
	if err := json.NewDecoder(r.Body).Decode(&write); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if write.IsEmpty() {
		writeError(w, http.StatusBadRequest, "empty write")
		return
	}

	doc, err := s.docs.Merge(r.Context(), project, account, write, s.clock().UnixMilli())
	if err != nil {
		s.log.Error("merge document", "project", project, "account", account, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.hub.Publish(project, doc)
	writeJSON(w, http.StatusOK, doc)
}

// handleListen streams snapshots of one document, starting with the
// current one if it exists.
func (s *Server) handleListen(w http.ResponseWriter, r *http.Request) {
	project, account := chi.URLParam(r, "project"), chi.URLParam(r, "account")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	t := topic{project: project, account: account}
	l := s.hub.subscribe(t)
	defer s.hub.unsubscribe(t, l)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader: handles pongs and notices the client going away.
	go func() {
		defer cancel()
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if doc, err := s.docs.Get(ctx, project, account); err == nil {
		if err := writeFrame(conn, protocol.Frame{Type: protocol.FrameSnapshot, Document: doc}); err != nil {
			return
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		_ = writeFrame(conn, protocol.Frame{Type: protocol.FrameError, Error: "read document failed"})
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case doc := <-l.send:
			if err := writeFrame(conn, protocol.Frame{Type: protocol.FrameSnapshot, Document: doc}); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, f protocol.Frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}
