package live

import (
	"encoding/json"

	"github.com/matthewbaird/tapestry/internal/engine"
	"github.com/matthewbaird/tapestry/internal/view"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string          `json:"type"` // "render", "sync", "views", "ping"
	ID   string          `json:"id"`   // client-assigned request id
	Data json.RawMessage `json:"data,omitempty"`
}

// RenderData is the payload for "render" messages.
type RenderData struct {
	ViewID    string         `json:"view_id"`
	EntityURL string         `json:"entity_url"`
	Filters   map[string]any `json:"filters,omitempty"`
}

// SyncData is the payload for "sync" messages. EntityURL may be omitted to
// reuse the session's last render target for the view.
type SyncData struct {
	ViewID    string         `json:"view_id"`
	EntityURL string         `json:"entity_url,omitempty"`
	Filters   map[string]any `json:"filters,omitempty"`
	Markdown  string         `json:"markdown"`
	Apply     bool           `json:"apply,omitempty"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "rendered", "synced", "views", "pong", "error"
	RequestID string `json:"request_id,omitempty"` // echoes client id
	Data      any    `json:"data,omitempty"`
}

// SessionData is sent once after connect.
type SessionData struct {
	SessionID string `json:"session_id"`
}

// RenderedData carries a render result.
type RenderedData struct {
	ViewID string               `json:"view_id"`
	Result *engine.RenderResult `json:"result"`
}

// SyncedData carries a sync result.
type SyncedData struct {
	ViewID  string             `json:"view_id"`
	Result  *engine.SyncResult `json:"result"`
	Applied bool               `json:"applied"`
}

// ViewsData carries the discovered view documents.
type ViewsData struct {
	Views []*view.Document `json:"views"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
