package realtime

// Hub owns the set of observer connections (other screens and modals
// watching player/playlist events) and fans broadcast messages out to
// all of them. Slow observers are dropped rather than blocking the fan-out.
type Hub struct {
	observers map[*Observer]bool

	// Inbound messages from the redis subscriber to broadcast.
	broadcast chan []byte

	register   chan *Observer
	unregister chan *Observer
}

func NewHub() *Hub {
	return &Hub{
		observers:  make(map[*Observer]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Observer),
		unregister: make(chan *Observer),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case obs := <-h.register:
			h.observers[obs] = true

		case obs := <-h.unregister:
			if _, ok := h.observers[obs]; ok {
				delete(h.observers, obs)
				close(obs.send)
				_ = obs.conn.Close()
			}

		case message := <-h.broadcast:
			for obs := range h.observers {
				select {
				case obs.send <- message:
				default:
					delete(h.observers, obs)
					close(obs.send)
					_ = obs.conn.Close()
				}
			}
		}
	}
}
