package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nacnacnacnac/naberlamusic-sub000/internal/playback"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendQueueSize  = 32
	maxMessageSize = 4096

	stateSyncTimeout = 500 * time.Millisecond
)

var (
	errConnClosed     = errors.New("player connection closed")
	errSendBufferFull = errors.New("player send buffer full")
)

// PlayerClient is one embedded-player websocket connection. It implements
// playback.Handle: commands become outbound JSON messages, the player's
// callbacks arrive on the read pump and are fed into the session.
type PlayerClient struct {
	session *playback.Session
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	seq     int64
	pending map[int64]chan playback.StateSyncResult

	// onStateChange, if set, is invoked after every playstate report so
	// the server can fan the change out to observers.
	onStateChange func()
	// onClose, if set, is invoked once when the connection dies.
	onClose func()
}

func newPlayerClient(conn *websocket.Conn) *PlayerClient {
	return &PlayerClient{
		conn:    conn,
		send:    make(chan []byte, sendQueueSize),
		done:    make(chan struct{}),
		pending: make(map[int64]chan playback.StateSyncResult),
	}
}

func (c *PlayerClient) Play(ctx context.Context) error {
	return c.enqueue(playerMessage{Type: msgPlay})
}

func (c *PlayerClient) Pause(ctx context.Context) error {
	return c.enqueue(playerMessage{Type: msgPause})
}

func (c *PlayerClient) Ready() bool {
	if c.session == nil {
		return false
	}
	return c.session.State().PlayerReady
}

// StateSync sends a pull query to the player and waits briefly for the
// echoed answer. ok is false on timeout, closed connection, or a player
// that never implements the query.
func (c *PlayerClient) StateSync(ctx context.Context) (playback.StateSyncResult, bool) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	ch := make(chan playback.StateSyncResult, 1)
	c.pending[seq] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
	}()

	if err := c.enqueue(playerMessage{Type: msgStateSync, Seq: seq}); err != nil {
		return playback.StateSyncResult{}, false
	}

	timer := time.NewTimer(stateSyncTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res, true
	case <-ctx.Done():
		return playback.StateSyncResult{}, false
	case <-c.done:
		return playback.StateSyncResult{}, false
	case <-timer.C:
		return playback.StateSyncResult{}, false
	}
}

func (c *PlayerClient) enqueue(msg playerMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errConnClosed
	case c.send <- b:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *PlayerClient) close() {
	c.once.Do(func() {
		close(c.done)
		if c.session != nil {
			c.session.DetachHandle(c)
		}
		_ = c.conn.Close()
		if c.onClose != nil {
			c.onClose()
		}
	})
}

// readPump reads player reports and feeds them into the session. Runs in
// its own goroutine; exits on any read error.
func (c *PlayerClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("realtime: player read: %v (session %s)", err, c.session.ID())
			}
			return
		}

		var msg playerMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("realtime: invalid player message: %s", raw)
			continue
		}
		c.dispatch(msg)
	}
}

func (c *PlayerClient) dispatch(msg playerMessage) {
	switch msg.Type {
	case msgReady:
		c.session.OnReady()

	case msgPlayState:
		if msg.Paused == nil {
			log.Printf("realtime: playstate without paused flag (session %s)", c.session.ID())
			return
		}
		c.session.OnPlayerPausedChanged(*msg.Paused)
		if c.onStateChange != nil {
			c.onStateChange()
		}

	case msgTimeUpdate:
		c.session.OnTimeUpdate(msg.CurrentTime, msg.Duration)

	case msgEnded:
		c.session.OnVideoEnd()
		if c.onStateChange != nil {
			c.onStateChange()
		}

	case msgError:
		c.session.OnError(msg.Message)

	case msgStateSync:
		c.mu.Lock()
		ch, ok := c.pending[msg.Seq]
		c.mu.Unlock()
		if !ok {
			// Answer for a query that already timed out.
			return
		}
		var res playback.StateSyncResult
		if msg.InternalPaused != nil {
			res.InternalPaused = *msg.InternalPaused
		}
		if msg.IsValid != nil {
			res.IsValid = *msg.IsValid
		}
		// Duplicate answers for the same seq must not wedge the read
		// pump once the buffered slot is taken.
		select {
		case ch <- res:
		default:
		}

	default:
		// Unknown report types are dropped silently.
	}
}

// writePump drains the send queue onto the wire and keeps the
// connection alive with pings. Runs in its own goroutine.
func (c *PlayerClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
