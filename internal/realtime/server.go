package realtime

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nordicdesk/helpdesk/internal/auth"
	"github.com/nordicdesk/helpdesk/internal/config"
)

// Server runs the websocket endpoint on its own listener, next to the REST
// API. Fiber sits on fasthttp, so the upgrade handshake goes through a plain
// net/http server instead.
type Server struct {
	hub      *Hub
	tokens   *auth.TokenManager
	logger   *zap.Logger
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewServer builds the websocket server.
func NewServer(cfg config.RealtimeConfig, hub *Hub, tokens *auth.TokenManager, logger *zap.Logger) *Server {
	s := &Server{
		hub:    hub,
		tokens: tokens,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	s.httpSrv = &http.Server{Addr: cfg.Addr(), Handler: mux}
	return s
}

// Start blocks serving websocket connections until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("realtime listener started", zap.String("addr", s.httpSrv.Addr))
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains existing ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// serveWS authenticates the token query parameter, upgrades the connection,
// and starts the client pumps.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	if _, err := s.tokens.ParseToken(token); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(s.hub, conn, s.logger)
	go client.writePump()
	go client.readPump()
}
