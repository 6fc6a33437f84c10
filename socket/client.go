package socket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jxstanford/bokeh/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	DocID  string
	UserID string
	Role   string
	Send   chan []byte
}

// RoleResolver decides what a user may do on a document. ok is false when
// the document does not exist or the user has no access at all.
type RoleResolver func(docID, userID string) (role string, ok bool)

func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string, roles RoleResolver) {
	docID := r.URL.Query().Get("docId")
	if docID == "" {
		http.Error(w, "Missing docId parameter", http.StatusBadRequest)
		return
	}

	role, ok := roles(docID, userID)
	if !ok {
		logger.Sugar.Warnf("Connection rejected: user %s has no access to document %s", userID, docID)
		http.Error(w, "Unauthorized or document not found", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := &Client{
		Hub:    hub,
		Conn:   conn,
		DocID:  docID,
		UserID: userID,
		Role:   role,
		Send:   make(chan []byte, 256),
	}
	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		// Server-authoritative fields.
		msg.DocID = c.DocID
		msg.UserID = c.UserID

		if msg.Type != UpdateType {
			continue
		}
		if c.Role != RoleWriter {
			logger.Sugar.Warnf("Permission Denied: User %s (Role: %s) tried to edit doc %s", c.UserID, c.Role, c.DocID)
			continue
		}
		c.Hub.Broadcast <- msg
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
