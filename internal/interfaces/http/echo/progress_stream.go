package echo

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/catalog-import/internal/application/importjob"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamProgress serves the job's progress as server-sent events. The
// stream ends after a terminal event or when the client goes away.
func (h *ImportHandler) StreamProgress(c echo.Context) error {
	ctx := c.Request().Context()
	events, err := h.watchImportJob.Execute(ctx, app.WatchImportJobInput{ID: c.Param("id")})
	if err != nil {
		return jobError(c, err, "failed to stream import progress")
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := res.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return nil
		}
		res.Flush()
	}
	return nil
}

// StreamProgressWS serves the same stream over a WebSocket, one JSON text
// frame per event.
func (h *ImportHandler) StreamProgressWS(c echo.Context) error {
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	events, err := h.watchImportJob.Execute(ctx, app.WatchImportJobInput{ID: c.Param("id")})
	if err != nil {
		return jobError(c, err, "failed to stream import progress")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The sequence must still be drained to release the subscription.
		cancel()
		for range events {
		}
		log.Printf("progress websocket upgrade failed: %v", err)
		return nil
	}
	defer conn.Close()

	// Reads only detect the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for ev := range events {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			return nil
		}
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream finished"),
		time.Now().Add(time.Second))
	return nil
}
