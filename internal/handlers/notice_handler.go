package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joshua-takyi/rolecerto/internal/helpers"
	"github.com/joshua-takyi/rolecerto/internal/notify"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// NoticeMessage is the frame exchanged on the notice stream.
type NoticeMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func ListNotices(toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(toaster.List(claims.UserID), ""))
	}
}

// dismissible reports whether userID may remove the toast with id. Broadcasts are
// shared by every user and only expire.
func dismissible(toaster *notify.Toaster, userID, id string) bool {
	for _, t := range toaster.List(userID) {
		if t.ID == id && t.UserID == userID {
			return true
		}
	}
	return false
}

func DismissNotice(toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}
		id := c.Param("id")
		if !dismissible(toaster, claims.UserID, id) {
			c.JSON(http.StatusNotFound, helpers.ErrorResponse("notice not found"))
			return
		}
		toaster.Remove(id)
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, ""))
	}
}

// Status reports the requests currently in flight.
func Status(tracker *notify.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"loading": tracker.Loading(),
			"keys":    tracker.Keys(),
		}, ""))
	}
}

type noticeClient struct {
	conn    *websocket.Conn
	userID  string
	send    chan NoticeMessage
	done    chan struct{}
	toaster *notify.Toaster
	logger  *slog.Logger
}

func newUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range origins {
				if o == "*" || strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}
}

// NoticeStream upgrades to a websocket that pushes the caller's toasts as they are
// added and removed. The client may send {"type":"dismiss","payload":"<id>"}.
func NoticeStream(toaster *notify.Toaster, origins []string, logger *slog.Logger) gin.HandlerFunc {
	upgrader := newUpgrader(origins)
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("Error upgrading to WebSocket", "error", err)
			return
		}

		client := &noticeClient{
			conn:    conn,
			userID:  claims.UserID,
			send:    make(chan NoticeMessage, 64),
			done:    make(chan struct{}),
			toaster: toaster,
			logger:  logger,
		}

		cancel := toaster.Subscribe(client.push)
		for _, t := range toaster.List(client.userID) {
			client.push(notify.ToastEvent{Toast: t})
		}

		go client.writePump()
		go client.readPump(cancel)
	}
}

// push forwards a toast event to the connection, dropping it when the client is slow.
func (nc *noticeClient) push(ev notify.ToastEvent) {
	if !ev.Toast.Visible(nc.userID) {
		return
	}
	kind := "added"
	if ev.Removed {
		kind = "removed"
	}
	select {
	case <-nc.done:
	case nc.send <- NoticeMessage{Type: kind, Payload: ev.Toast}:
	default:
		nc.logger.Warn("Dropping notice for slow client", "user_id", nc.userID, "toast_id", ev.Toast.ID)
	}
}

func (nc *noticeClient) readPump(cancel func()) {
	defer func() {
		cancel()
		close(nc.done)
		nc.conn.Close()
	}()

	nc.conn.SetReadLimit(4096)
	nc.conn.SetReadDeadline(time.Now().Add(pongWait))
	nc.conn.SetPongHandler(func(string) error {
		return nc.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg NoticeMessage
		if err := nc.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				nc.logger.Warn("Notice stream closed", "user_id", nc.userID, "error", err)
			}
			return
		}
		if msg.Type != "dismiss" {
			continue
		}
		if id, ok := msg.Payload.(string); ok && dismissible(nc.toaster, nc.userID, id) {
			nc.toaster.Remove(id)
		}
	}
}

func (nc *noticeClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		nc.conn.Close()
	}()

	for {
		select {
		case <-nc.done:
			nc.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		case msg := <-nc.send:
			nc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := nc.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			nc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := nc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
