package statusfeed

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/netmgr/internal/logging"
	"github.com/muurk/netmgr/internal/provision"
	"github.com/muurk/netmgr/internal/readiness"
	"github.com/muurk/netmgr/internal/status"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 50 * time.Second
	readLimit    = 512
	shutdownWait = 5 * time.Second
)

// Intents is the part of the arbiter the API may touch
type Intents interface {
	Request(reason provision.Reason) bool
	Withdraw(reason provision.Reason) bool
	Requested() bool
}

// ProvisionReply is the body returned by the provisioning endpoints
type ProvisionReply struct {
	Accepted  bool `json:"accepted"`
	Requested bool `json:"requested"` // Committed flag at the time of the reply
}

// Server is the loopback status and control API.
//
//	GET    /healthz        liveness
//	GET    /ready          200 while the network is usable, else 503
//	GET    /status         current status as JSON
//	GET    /status/stream  websocket pushing every status change
//	POST   /provision      request provisioning mode
//	DELETE /provision      withdraw the request
type Server struct {
	addr     string
	status   *status.Store
	intents  Intents
	ready    *readiness.Event
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// New creates the API server
func New(addr string, st *status.Store, intents Intents, ready *readiness.Event) *Server {
	return &Server{
		addr:    addr,
		status:  st,
		intents: intents,
		ready:   ready,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Only local tools connect; the listener is loopback
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logging.Named("statusfeed"),
	}
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/ready", s.handleReady)
	r.Get("/status", s.handleStatus)
	r.Get("/status/stream", s.handleStream)
	r.Post("/provision", s.handleProvision)
	r.Delete("/provision", s.handleWithdraw)

	return r
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Control API listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("Control API shutdown timed out", zap.Error(err))
		srv.Close()
	}
	<-errCh
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write JSON reply", zap.Error(err))
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready.IsSet() {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
		return
	}
	http.Error(w, "not ready", http.StatusServiceUnavailable)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Snapshot())
}

func (s *Server) handleProvision(w http.ResponseWriter, r *http.Request) {
	if !s.intents.Request(provision.ReasonAPI) {
		writeJSON(w, http.StatusServiceUnavailable, ProvisionReply{Requested: s.intents.Requested()})
		return
	}
	s.logger.Info("Provisioning requested over the control API", zap.String("remote_addr", r.RemoteAddr))
	writeJSON(w, http.StatusAccepted, ProvisionReply{Accepted: true, Requested: s.intents.Requested()})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	if !s.intents.Withdraw(provision.ReasonCancel) {
		writeJSON(w, http.StatusServiceUnavailable, ProvisionReply{Requested: s.intents.Requested()})
		return
	}
	s.logger.Info("Provisioning withdrawn over the control API", zap.String("remote_addr", r.RemoteAddr))
	writeJSON(w, http.StatusAccepted, ProvisionReply{Accepted: true, Requested: s.intents.Requested()})
}

// handleStream upgrades to a websocket and pushes each status snapshot.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade to websocket", zap.Error(err))
		return
	}
	logging.LogConnection(r.RemoteAddr, "status_stream_opened")

	updates, unsubscribe := s.status.Subscribe()
	closed := make(chan struct{})

	go s.readPump(conn, closed)
	s.writePump(r.Context(), conn, updates, closed)

	unsubscribe()
	conn.Close()
	logging.LogConnection(r.RemoteAddr, "status_stream_closed")
}

// readPump discards client messages and notices when the peer goes away.
func (s *Server) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("Status stream read error", zap.Error(err))
			}
			return
		}
	}
}

func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, updates <-chan status.Status, closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			return
		}
	}
}
