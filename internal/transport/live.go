package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/okravchenko/dialog/internal/bus"
	"go.uber.org/zap"
)

const sendTimeout = 10 * time.Second

// Live is the websocket-backed transport. Dialing happens in the
// background; a dedicated receive loop decodes text and binary-as-UTF8
// frames and publishes them on the bus. The loop ends quietly on
// cancellation or normal closure and reports anything else as a
// transport error.
type Live struct {
	url    string
	bus    *bus.Bus
	logger *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
}

// NewLive creates a live transport for the given websocket URL.
func NewLive(url string, b *bus.Bus, logger *zap.Logger) *Live {
	return &Live{url: url, bus: b, logger: logger}
}

// Connect starts dialing in the background. Calling it again while the
// channel is up is a no-op.
func (l *Live) Connect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go l.run(ctx)
}

// Disconnect tears the channel down and stops the receive loop. Safe to
// call repeatedly or when never connected.
func (l *Live) Disconnect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if l.conn != nil {
		_ = l.conn.Close(websocket.StatusNormalClosure, "client disconnect")
		l.conn = nil
	}
}

// Send writes one text frame, best-effort. Failures are reported as
// transport errors; the caller is never blocked.
func (l *Live) Send(text string) {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()

	if conn == nil {
		l.report(errors.New("send: channel not established"))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := conn.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
			l.report(fmt.Errorf("send: %w", err))
		}
	}()
}

func (l *Live) run(ctx context.Context) {
	conn, _, err := websocket.Dial(ctx, l.url, nil)
	if err != nil {
		if ctx.Err() == nil {
			l.report(fmt.Errorf("dial %s: %w", l.url, err))
		}
		return
	}

	l.mu.Lock()
	if l.cancel == nil {
		// Disconnected while dialing.
		l.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "client disconnect")
		return
	}
	l.conn = conn
	l.mu.Unlock()

	if l.logger != nil {
		l.logger.Info("channel connected", zap.String("url", l.url))
	}

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return
			}
			l.report(fmt.Errorf("receive: %w", err))
			return
		}
		switch typ {
		case websocket.MessageText, websocket.MessageBinary:
			publishMessage(l.bus, string(data))
		}
	}
}

func (l *Live) report(err error) {
	if l.logger != nil {
		l.logger.Warn("transport error", zap.Error(err))
	}
	publishError(l.bus, err)
}
