package realtime

// subscriptionBuffer adalah kapasitas channel per subscription.
// Subscriber yang menumpuk lebih dari ini dianggap mati dan dilepas,
// supaya loop hub tidak pernah nge-block.
const subscriptionBuffer = 16

// Subscription adalah satu langganan change event untuk satu tabel
// dan satu user. Channel C ditutup tepat satu kali oleh hub.
type Subscription struct {
	Table  string
	UserID int
	C      chan Event
}

// Hub mengelola subscription dan menyalurkan event ke subscriber
// yang cocok (tabel dan user id sama).
type Hub struct {
	register   chan *Subscription
	unregister chan *Subscription
	publish    chan Event
	subs       map[*Subscription]bool
}

// NewHub membuat instance Hub baru.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		publish:    make(chan Event),
		subs:       make(map[*Subscription]bool),
	}
}

// Run menjalankan loop Hub untuk mengelola register, unregister, dan publish.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.subs[sub] = true
		case sub := <-h.unregister:
			if _, ok := h.subs[sub]; ok {
				delete(h.subs, sub)
				close(sub.C)
			}
		case ev := <-h.publish:
			for sub := range h.subs {
				if sub.Table != ev.Table || sub.UserID != ev.UserID {
					continue
				}
				select {
				case sub.C <- ev:
				default:
					// subscriber penuh, lepas seperti klien ws yang putus
					delete(h.subs, sub)
					close(sub.C)
				}
			}
		}
	}
}

// Subscribe mendaftarkan langganan baru untuk (table, userID).
func (h *Hub) Subscribe(table string, userID int) *Subscription {
	sub := &Subscription{
		Table:  table,
		UserID: userID,
		C:      make(chan Event, subscriptionBuffer),
	}
	h.register <- sub
	return sub
}

// Unsubscribe melepas langganan; aman dipanggil lebih dari sekali.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.unregister <- sub
}

// Publish menyalurkan satu event ke semua subscriber yang cocok.
func (h *Hub) Publish(ev Event) {
	h.publish <- ev
}
