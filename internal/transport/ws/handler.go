// Package ws exposes the collision engine over a persistent bidirectional
// websocket: clients stream telemetry up, acks and threat pushes flow down.
package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"v2v-radar/service/internal/config"
	"v2v-radar/service/internal/engine"
	"v2v-radar/service/internal/session"
)

type Handler struct {
	upgrader websocket.Upgrader
	engine   *engine.Engine
	sessions *session.Registry
	sendBuf  int
	log      *zap.Logger
}

func NewHandler(eng *engine.Engine, sessions *session.Registry, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Telemetry clients are native apps, not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		engine:   eng,
		sessions: sessions,
		sendBuf:  cfg.WSSendBuffer,
		log:      log,
	}
}

// ServeHTTP upgrades the connection and runs its read loop. Each session has
// exactly one reader, and the engine is invoked inline, which gives the
// per-session ordering guarantee: message N finishes dispatching before
// message N+1 starts.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}

	ch := newChannel(conn, h.sendBuf)
	go ch.writePump()

	h.log.Info("session opened", zap.String("remote", r.RemoteAddr))
	defer func() {
		h.sessions.RemoveChannel(ch)
		ch.close()
		h.log.Info("session closed", zap.String("remote", r.RemoteAddr))
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.engine.HandleMessage(r.Context(), ch, msg)
	}
}
