package socket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/jxstanford/bokeh/pkg/logger"
)

const (
	UpdateType         = "UPDATE"          // Full client document snapshot
	PresenceUpdateType = "PRESENCE_UPDATE" // A viewer joined or left
	RemovedType        = "REMOVED"         // Document was deleted

	RoleWriter = "writer"
	RoleReader = "reader"
)

const emptyDocument = `{"roots":[],"models":[]}`

type WSMessage struct {
	Type    string          `json:"type"`
	DocID   string          `json:"document_id"`
	UserID  string          `json:"user_id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

type Viewer struct {
	UserID   string    `json:"user_id"`
	LastSeen time.Time `json:"last_seen"`
}

// Store persists document snapshots pushed by clients.
type Store interface {
	LoadContent(docID string) ([]byte, error)
	SaveContent(docID string, content []byte) error
}

type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client

	store     Store
	cache     map[string][]byte
	dirty     map[string]bool
	viewers   map[string]map[string]Viewer
	mu        sync.Mutex
	saveEvery time.Duration
}

func NewHub(store Store) *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		store:      store,
		cache:      make(map[string][]byte),
		dirty:      make(map[string]bool),
		viewers:    make(map[string]map[string]Viewer),
		saveEvery:  10 * time.Second,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case msg := <-h.Broadcast:
			h.broadcast(msg)
		}
	}
}

// Publish pushes a snapshot stored by the server to every viewer of the
// document. The snapshot is already persisted, so it is not marked dirty.
func (h *Hub) Publish(docID string, content []byte) {
	h.mu.Lock()
	if _, open := h.Rooms[docID]; !open {
		h.mu.Unlock()
		return
	}
	h.cache[docID] = content
	h.dirty[docID] = false
	h.mu.Unlock()

	h.Broadcast <- WSMessage{Type: UpdateType, DocID: docID, Payload: json.RawMessage(content)}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	if h.Rooms[client.DocID] == nil {
		h.Rooms[client.DocID] = make(map[*Client]bool)
		h.viewers[client.DocID] = make(map[string]Viewer)

		content, err := h.store.LoadContent(client.DocID)
		if err != nil || len(content) == 0 {
			if err != nil {
				logger.Sugar.Errorf("Failed to load document %s (or not found): %v", client.DocID, err)
			}
			content = []byte(emptyDocument)
		}
		h.cache[client.DocID] = content
	}
	h.Rooms[client.DocID][client] = true
	h.viewers[client.DocID][client.UserID] = Viewer{UserID: client.UserID, LastSeen: time.Now()}
	current := h.cache[client.DocID]
	h.mu.Unlock()

	initial, _ := json.Marshal(WSMessage{Type: UpdateType, DocID: client.DocID, Payload: json.RawMessage(current)})
	client.Send <- initial

	h.broadcastPresence(client.DocID)
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	docID := client.DocID
	if _, ok := h.Rooms[docID][client]; ok {
		delete(h.Rooms[docID], client)
		delete(h.viewers[docID], client.UserID)
		close(client.Send)

		if len(h.Rooms[docID]) == 0 {
			if h.dirty[docID] {
				if err := h.store.SaveContent(docID, h.cache[docID]); err != nil {
					logger.Sugar.Errorf("Failed to save doc %s on close: %v", docID, err)
				}
			}
			delete(h.Rooms, docID)
			delete(h.viewers, docID)
			delete(h.cache, docID)
			delete(h.dirty, docID)
			logger.Sugar.Infof("Closed and cleaned up empty room: %s", docID)
		}
	}
	_, open := h.Rooms[docID]
	h.mu.Unlock()

	if open {
		h.broadcastPresence(docID)
	}
}

func (h *Hub) broadcast(msg WSMessage) {
	h.mu.Lock()
	if msg.Type == UpdateType && msg.UserID != "" {
		h.cache[msg.DocID] = msg.Payload
		h.dirty[msg.DocID] = true
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
		h.mu.Unlock()
		return
	}

	// Server messages carry no UserID and reach everyone; client pushes skip the sender.
	recipients := make([]*Client, 0, len(h.Rooms[msg.DocID]))
	for client := range h.Rooms[msg.DocID] {
		if msg.UserID == "" || client.UserID != msg.UserID {
			recipients = append(recipients, client)
		}
	}
	h.mu.Unlock()

	for _, client := range recipients {
		select {
		case client.Send <- payload:
		default:
			logger.Sugar.Warnf("Client %s's send buffer is full. Unregistering.", client.UserID)
			go func(c *Client) { h.Unregister <- c }(client)
		}
	}
}

// SaveWorker periodically persists documents edited by clients.
func (h *Hub) SaveWorker() {
	ticker := time.NewTicker(h.saveEvery)
	defer ticker.Stop()

	for range ticker.C {
		h.flush()
	}
}

func (h *Hub) flush() {
	pending := make(map[string][]byte)

	h.mu.Lock()
	for docID, isDirty := range h.dirty {
		if isDirty {
			content := make([]byte, len(h.cache[docID]))
			copy(content, h.cache[docID])
			pending[docID] = content
		}
	}
	h.mu.Unlock()

	for docID, content := range pending {
		if err := h.store.SaveContent(docID, content); err != nil {
			logger.Sugar.Errorf("Failed to save doc %s: %v", docID, err)
			continue
		}

		h.mu.Lock()
		// Edits that arrived during the save stay dirty.
		if string(h.cache[docID]) == string(content) {
			h.dirty[docID] = false
		}
		h.mu.Unlock()

		logger.Sugar.Infof("Auto-saved document: %s", docID)
	}
}

// RemoveDocument drops a deleted document from memory and disconnects its viewers.
func (h *Hub) RemoveDocument(docID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.cache, docID)
	delete(h.dirty, docID)
	delete(h.viewers, docID)

	if clients, ok := h.Rooms[docID]; ok {
		removed, _ := json.Marshal(WSMessage{Type: RemovedType, DocID: docID})
		for client := range clients {
			select {
			case client.Send <- removed:
			default:
			}
			client.Conn.Close()
		}
		delete(h.Rooms, docID)
	}
}

func (h *Hub) broadcastPresence(docID string) {
	var viewers []Viewer
	var recipients []*Client

	h.mu.Lock()
	if _, ok := h.viewers[docID]; ok {
		viewers = make([]Viewer, 0, len(h.viewers[docID]))
		for _, v := range h.viewers[docID] {
			viewers = append(viewers, v)
		}
		recipients = make([]*Client, 0, len(h.Rooms[docID]))
		for client := range h.Rooms[docID] {
			recipients = append(recipients, client)
		}
	}
	h.mu.Unlock()

	if len(recipients) == 0 {
		return
	}

	payload, err := json.Marshal(viewers)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence broadcast: %v", err)
		return
	}
	msg, _ := json.Marshal(WSMessage{Type: PresenceUpdateType, DocID: docID, Payload: payload})

	for _, client := range recipients {
		select {
		case client.Send <- msg:
		default:
			logger.Sugar.Warnf("Client %s's send buffer was full during presence update.", client.UserID)
		}
	}
}
