package live

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/matthewbaird/tapestry/internal/engine"
)

// Handler manages websocket connections for live view sessions.
type Handler struct {
	sessions *Manager
	engine   *engine.Engine
	log      *zap.Logger
}

// NewHandler creates a websocket handler over the engine.
func NewHandler(sessions *Manager, eng *engine.Engine, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{sessions: sessions, engine: eng, log: log}
}

// ServeHTTP upgrades to websocket and runs the message loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	sess := h.sessions.Create()
	defer h.sessions.Remove(sess.ID)
	ctx := r.Context()

	h.send(ctx, conn, ServerMessage{
		Type: "session",
		Data: SessionData{SessionID: sess.ID},
	})

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				h.log.Debug("connection closed", zap.Int("status", int(status)))
			}
			return
		}
		sess.Touch()

		switch msg.Type {
		case "render":
			h.handleRender(ctx, conn, sess, msg)
		case "sync":
			h.handleSync(ctx, conn, sess, msg)
		case "views":
			h.handleViews(ctx, conn, msg)
		case "ping":
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, "unknown_type", "unknown message type: "+msg.Type)
		}
	}
}

func (h *Handler) handleRender(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data RenderData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid render data")
		return
	}
	if data.ViewID == "" || data.EntityURL == "" {
		h.sendError(ctx, conn, msg.ID, "missing_fields", "view_id and entity_url are required")
		return
	}

	result, err := h.engine.Render(ctx, data.ViewID, engine.ViewContext{
		EntityURL: data.EntityURL,
		Filters:   data.Filters,
	})
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "render_error", err.Error())
		return
	}

	sess.TrackRender(data.ViewID, data.EntityURL)
	h.send(ctx, conn, ServerMessage{
		Type:      "rendered",
		RequestID: msg.ID,
		Data:      RenderedData{ViewID: data.ViewID, Result: result},
	})
}

func (h *Handler) handleSync(ctx context.Context, conn *websocket.Conn, sess *Session, msg ClientMessage) {
	var data SyncData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid sync data")
		return
	}
	if data.EntityURL == "" {
		if url, ok := sess.LastEntity(data.ViewID); ok {
			data.EntityURL = url
		}
	}
	if data.ViewID == "" || data.EntityURL == "" {
		h.sendError(ctx, conn, msg.ID, "missing_fields", "view_id and entity_url are required")
		return
	}

	result, err := h.engine.Sync(ctx, data.ViewID, engine.ViewContext{
		EntityURL: data.EntityURL,
		Filters:   data.Filters,
	}, data.Markdown)
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "sync_error", err.Error())
		return
	}

	applied := false
	if data.Apply {
		if _, err := h.engine.CreateEntities(ctx, result.Created); err != nil {
			h.sendError(ctx, conn, msg.ID, "apply_error", err.Error())
			return
		}
		if err := h.engine.ApplyMutations(ctx, result.Mutations); err != nil {
			h.sendError(ctx, conn, msg.ID, "apply_error", err.Error())
			return
		}
		applied = true
	}

	h.send(ctx, conn, ServerMessage{
		Type:      "synced",
		RequestID: msg.ID,
		Data:      SyncedData{ViewID: data.ViewID, Result: result, Applied: applied},
	})
}

func (h *Handler) handleViews(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	docs, err := h.engine.DiscoverViews(ctx)
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "views_error", err.Error())
		return
	}
	h.send(ctx, conn, ServerMessage{
		Type:      "views",
		RequestID: msg.ID,
		Data:      ViewsData{Views: docs},
	})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.log.Warn("write error", zap.Error(err))
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data:      ErrorData{Code: code, Message: message},
	})
}
