package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/foodstream/foodstream/utils"
)

// Event names announced by the core. Each meaningful mutation emits twice:
// once into the table's room, once into the tenant's staff room.
const (
	EventCartUpdated  = "cart_updated"
	EventNewOrder     = "new_order"
	EventStatusChange = "status_change"
	EventNewSignal    = "new_signal"
	EventChatMessage  = "chat_message"
)

// Notifier is the announcement contract the core depends on. Delivery is
// fire-and-forget, at-least-once at best; implementations must never block
// the mutation that triggered the emit.
type Notifier interface {
	EmitTable(tableToken string, event string, data interface{})
	EmitStaff(restaurantID uint, event string, data interface{})
}

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func TableRoom(token string) string {
	return "table:" + token
}

func StaffRoom(restaurantID uint) string {
	return fmt.Sprintf("staff:%d", restaurantID)
}

// Hub fans events out to websocket clients grouped by room. Guests join
// their table's room, staff dashboards join the tenant's staff room.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]bool),
	}
}

func (h *Hub) Join(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*websocket.Conn]bool)
	}
	h.rooms[room][conn] = true
}

func (h *Hub) Leave(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] != nil {
		delete(h.rooms[room], conn)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	conn.Close()
}

func (h *Hub) EmitTable(tableToken string, event string, data interface{}) {
	h.broadcast(TableRoom(tableToken), Message{Event: event, Data: data})
}

func (h *Hub) EmitStaff(restaurantID uint, event string, data interface{}) {
	h.broadcast(StaffRoom(restaurantID), Message{Event: event, Data: data})
}

func (h *Hub) broadcast(room string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("events: marshal %s: %v", msg.Event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.rooms[room] {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			// Dead client, drop it. The next poll or reconnect catches up
			// from current state.
			conn.Close()
			delete(h.rooms[room], conn)
		}
	}
}
