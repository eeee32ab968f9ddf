package transport

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Console is a shell session streamed over a websocket. Input is written as
// text frames; output frames are split into lines.
type Console struct {
	conn   *websocket.Conn
	logger *zap.Logger

	writeMu sync.Mutex
	lines   chan string
	done    chan struct{}
	err     error // Read error that ended the stream, valid after lines is closed

	closeOnce sync.Once
}

func newConsole(conn *websocket.Conn, logger *zap.Logger) *Console {
	c := &Console{
		conn:   conn,
		logger: logger,
		lines:  make(chan string, 256),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Console) readLoop() {
	defer close(c.lines)

	var pending []byte
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if len(pending) > 0 {
				c.emit(string(pending))
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.err = err
			}
			return
		}

		pending = append(pending, data...)
		for {
			i := bytes.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			line := string(bytes.TrimRight(pending[:i], "\r"))
			pending = pending[i+1:]
			if !c.emit(line) {
				return
			}
		}
	}
}

// emit hands a line to readers, giving up once the console is closed
func (c *Console) emit(line string) bool {
	select {
	case c.lines <- line:
		return true
	case <-c.done:
		return false
	}
}

// SendCommand writes a shell command followed by a newline
func (c *Console) SendCommand(ctx context.Context, command string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(deadline(ctx)); err != nil {
		return err
	}
	c.logger.Debug("console command", zap.String("command", command))
	return c.conn.WriteMessage(websocket.TextMessage, []byte(command+"\n"))
}

// ReadLine returns the next output line. It returns io.EOF once the remote
// side ends the session.
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			if c.err != nil {
				return "", c.err
			}
			return "", io.EOF
		}
		return line, nil
	}
}

// Close ends the session
func (c *Console) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
