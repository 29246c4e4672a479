package deps

import (
	"github.com/bwise1/civic_reports/config"
	"github.com/bwise1/civic_reports/internal/session"
	"github.com/bwise1/civic_reports/util/websockets"
)

type Dependencies struct {
	Sessions  *session.Manager
	WebSocket *websockets.WebSocketManager
}

func New(cfg *config.Config) *Dependencies {
	websocket := websockets.NewWebSocketManager()
	sessions := session.NewManager(session.Options{
		BackendBaseURL: cfg.BackendBaseURL,
		BackendTimeout: cfg.BackendTimeout,
		ReportsPath:    cfg.BackendReportsPath,
		Secret:         cfg.SessionSecret,
		TTL:            cfg.SessionTTL,
	}, websocket)

	deps := Dependencies{
		Sessions:  sessions,
		WebSocket: websocket,
	}
	return &deps
}
