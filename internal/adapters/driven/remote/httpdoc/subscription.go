package httpdoc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driven"
	"github.com/custodia-labs/statesync/internal/docserver/protocol"
)

// readWait bounds silence on the listen socket. The server pings well
// inside it.
const readWait = 90 * time.Second

type subscription struct {
	client     *Client
	accountID  string
	onSnapshot driven.SnapshotFunc
	onError    func(error)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
	once sync.Once
}

// Close stops the redial loop and waits for it to exit.
func (s *subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.mu.Lock()
		if s.conn != nil {
			_ = s.conn.Close()
		}
		s.mu.Unlock()
	})
	<-s.done
	return nil
}

func (s *subscription) run() {
	defer close(s.done)
	defer s.client.forget(s)

	attempt := 0
	for {
		if conn := s.current(); conn != nil {
			err := s.read(conn)
			_ = conn.Close()
			s.setConn(nil)
			if s.ctx.Err() != nil {
				return
			}
			s.report(fmt.Errorf("%w: listen dropped: %v", domain.ErrTransport, err))
		}

		timer := time.NewTimer(s.client.backoff.Delay(attempt))
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		attempt++

		conn, err := s.client.dial(s.ctx, s.accountID)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.report(err)
			continue
		}
		if !s.setConn(conn) {
			_ = conn.Close()
			return
		}
		attempt = 0
	}
}

// read delivers frames until the socket fails.
func (s *subscription) read(conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(10*time.Second))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		var f protocol.Frame
		if err := conn.ReadJSON(&f); err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))

		switch f.Type {
		case protocol.FrameSnapshot:
			if f.Document == nil {
				s.report(fmt.Errorf("%w: snapshot frame without document", domain.ErrMalformedPayload))
				continue
			}
			if s.ctx.Err() != nil {
				return s.ctx.Err()
			}
			s.onSnapshot(f.Document)
		case protocol.FrameError:
			s.report(fmt.Errorf("%w: %s", domain.ErrTransport, f.Error))
		default:
			s.report(fmt.Errorf("%w: unknown frame type %q", domain.ErrMalformedPayload, f.Type))
		}
	}
}

func (s *subscription) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// setConn installs conn unless the subscription was closed.
func (s *subscription) setConn(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conn != nil && s.ctx.Err() != nil {
		return false
	}
	s.conn = conn
	return true
}

func (s *subscription) report(err error) {
	if s.onError != nil && err != nil {
		s.onError(err)
	}
}
