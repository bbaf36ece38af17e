package toolserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"nhooyr.io/websocket"
)

// WebSocketTransport is the network-reachable alternative to
// StdioTransport: one JSON-RPC message per WebSocket text frame, same
// Server dispatch underneath. Meant for a remote tool-call client that
// cannot share the server process's stdin/stdout, such as a browser-based
// MCP inspector or a sidecar proxy.
type WebSocketTransport struct {
	server *Server
	logger *log.Logger
}

// NewWebSocketTransport wraps srv for use as an http.Handler.
func NewWebSocketTransport(srv *Server) *WebSocketTransport {
	return &WebSocketTransport{
		server: srv,
		logger: log.New(os.Stderr, "mnemosyne: ", log.LstdFlags),
	}
}

// ServeHTTP upgrades the connection and serves JSON-RPC requests until
// the client disconnects or the request context is cancelled.
func (t *WebSocketTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		t.logger.Printf("websocket accept failed: %v", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			var closeErr websocket.CloseError
			if errors.As(err, &closeErr) {
				return
			}
			t.logger.Printf("websocket read error: %v", err)
			return
		}

		resp := t.server.HandleRequest(ctx, data)
		if err := conn.Write(ctx, websocket.MessageText, resp); err != nil {
			t.logger.Printf("websocket write error: %v", err)
			return
		}
	}
}
