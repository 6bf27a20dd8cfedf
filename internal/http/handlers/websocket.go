package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"moviegen/internal/events"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Ping period, must be less than pongWait.
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Single-user local tool; the CORS middleware is the origin gate.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Events streams run status events over a WebSocket. A client that connects
// mid-run first receives the buffered events of the current run.
func (a *App) Events(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("handlers: ws upgrade failed")
		return
	}

	sub := a.Broadcaster.Subscribe()

	for _, e := range a.Broadcaster.Recent() {
		if !a.writeEvent(conn, e) {
			a.Broadcaster.Unsubscribe(sub)
			conn.Close()
			return
		}
	}

	done := make(chan struct{})

	// Reader goroutine handles pongs and close frames.
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			a.Broadcaster.Unsubscribe(sub)
			conn.Close()
			return
		case e, ok := <-sub:
			if !ok {
				conn.Close()
				return
			}
			if !a.writeEvent(conn, e) {
				a.Broadcaster.Unsubscribe(sub)
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				a.Broadcaster.Unsubscribe(sub)
				conn.Close()
				return
			}
		}
	}
}

func (a *App) writeEvent(conn *websocket.Conn, e events.Event) bool {
	data, err := json.Marshal(e)
	if err != nil {
		return true
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		a.Logger.Warn().Err(err).Msg("handlers: ws write failed")
		return false
	}
	return true
}
