package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// uploadRequest announces a file; the content follows as one binary frame
type uploadRequest struct {
	Type string `json:"type"`
	Path string `json:"path"`
	Size int    `json:"size"`
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Agent is a file transfer session with the in-device agent
type Agent struct {
	conn   *websocket.Conn
	logger *zap.Logger

	mu sync.Mutex
}

func newAgent(conn *websocket.Conn, logger *zap.Logger) *Agent {
	return &Agent{conn: conn, logger: logger}
}

// UploadFile stores data at remotePath on the device
func (a *Agent) UploadFile(ctx context.Context, remotePath string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	req := uploadRequest{Type: "upload", Path: remotePath, Size: len(data)}

	dl := deadline(ctx)
	if err := a.conn.SetWriteDeadline(dl); err != nil {
		return err
	}
	if err := a.conn.SetReadDeadline(dl); err != nil {
		return err
	}

	if err := a.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("send upload header: %w", err)
	}
	if err := a.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("send upload content: %w", err)
	}

	var resp uploadResponse
	if err := a.conn.ReadJSON(&resp); err != nil {
		return fmt.Errorf("read upload response: %w", err)
	}
	if !resp.Success {
		if resp.Error == "" {
			resp.Error = "unknown agent error"
		}
		return errors.New(resp.Error)
	}

	a.logger.Debug("uploaded file", zap.String("path", remotePath), zap.Int("bytes", len(data)))
	return nil
}

// Disconnect closes the agent session
func (a *Agent) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_ = a.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return a.conn.Close()
}
