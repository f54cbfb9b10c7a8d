package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/kamyarm/wedding-seating/internal/broadcast"
	"github.com/kamyarm/wedding-seating/internal/engine"
	"github.com/kamyarm/wedding-seating/internal/model"
)

const (
	helloTimeout  = 5 * time.Second
	writeTimeout  = 10 * time.Second
	pingEvery     = 30 * time.Second
)

// LiveHandler serves the read-only live seating feed over a websocket.
// Clients connect with the event's public code, not an admin credential:
// the feed runs on lobby screens and guests' phones.
type LiveHandler struct {
	Engine *engine.Engine
	Feed   *broadcast.Broadcaster

	upgrader websocket.Upgrader
}

func NewLiveHandler(eng *engine.Engine, feed *broadcast.Broadcaster) *LiveHandler {
	if eng == nil || feed == nil {
		panic("nil dependency passed to NewLiveHandler")
	}
	return &LiveHandler{
		Engine: eng,
		Feed:   feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The feed is public read-only data; any origin may subscribe.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// hello is the first frame a client sends after connecting. A client that
// reconnected after a drop reports the last delta sequence it applied; a
// fresh client sends {} (or 0) and gets a snapshot.
type hello struct {
	LastSequence uint64 `json:"last_sequence"`
}

// frame is the envelope for everything the server sends on the feed.
type frame struct {
	Type     string      `json:"type"` // "snapshot" or "delta"
	Sequence uint64      `json:"sequence"`
	Payload  interface{} `json:"payload"`
}

// Feed handles GET /v1/live/:code.
//
// Session protocol: the client sends a hello naming the last sequence it
// has, then only receives. If the gap since that sequence is still inside
// the retained delta window the server replays exactly the missed deltas;
// otherwise it sends one fresh snapshot and continues from the snapshot's
// sequence. Either way the client observes every change in commit order
// with no gaps and no duplicates.
func (h *LiveHandler) Serve(c echo.Context) error {
	ev, err := h.Engine.GetEventByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return engineError(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil // Upgrade already wrote the HTTP error
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	var hi hello
	if err := conn.ReadJSON(&hi); err != nil {
		return nil
	}

	var (
		sub      *broadcast.Subscriber
		backlog  []model.Delta
		minSeq   uint64 // deltas at or below this are already covered
	)
	if hi.LastSequence > 0 {
		s, replay, err := h.Feed.Resume(ev.ID, hi.LastSequence)
		if err == nil {
			sub, backlog, minSeq = s, replay, hi.LastSequence
		}
		// ErrSnapshotRequired falls through to the snapshot path.
	}
	if sub == nil {
		// Attach before snapshotting so nothing committed in between is
		// lost; deltas already inside the snapshot are filtered below.
		sub = h.Feed.Attach(ev.ID)
		snap, err := h.Engine.Snapshot(c.Request().Context(), ev.ID)
		if err != nil {
			h.Feed.Detach(ev.ID, sub.ID)
			return nil
		}
		minSeq = snap.Sequence
		if err := writeFrame(conn, frame{Type: "snapshot", Sequence: snap.Sequence, Payload: snap}); err != nil {
			h.Feed.Detach(ev.ID, sub.ID)
			return nil
		}
	}
	defer h.Feed.Detach(ev.ID, sub.ID)

	for _, d := range backlog {
		if err := writeFrame(conn, frame{Type: "delta", Sequence: d.Sequence, Payload: d}); err != nil {
			return nil
		}
	}

	// Reader goroutine: the client never sends again, but reading is what
	// surfaces close frames and resets keepalive deadlines.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Time{})
		conn.SetPongHandler(func(string) error { return nil })
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingEvery)
	defer ping.Stop()

	for {
		select {
		case d, ok := <-sub.Deltas():
			if !ok {
				// Kicked for falling behind; tell the client to resync.
				deadline := time.Now().Add(writeTimeout)
				msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "resync required")
				_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
				return nil
			}
			if d.Sequence <= minSeq {
				continue // already part of the snapshot or replay
			}
			if err := writeFrame(conn, frame{Type: "delta", Sequence: d.Sequence, Payload: d}); err != nil {
				return nil
			}
		case <-ping.C:
			deadline := time.Now().Add(writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return nil
			}
		case <-done:
			return nil
		}
	}
}

func writeFrame(conn *websocket.Conn, f frame) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(f)
}
