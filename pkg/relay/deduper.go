package relay

import "sync"

// DefaultDedupeWindow is how many message ids are remembered per room.
const DefaultDedupeWindow = 256

type window struct {
	seen  map[string]struct{}
	order []string
	next  int
}

// Deduper remembers recently seen message ids per room.
// Only the most recent ids are kept, so memory per room is bounded.
type Deduper struct {
	lock     sync.Mutex
	capacity int
	rooms    map[string]*window
}

func NewDeduper(capacity int) *Deduper {
	if capacity <= 0 {
		capacity = DefaultDedupeWindow
	}
	return &Deduper{
		capacity: capacity,
		rooms:    make(map[string]*window),
	}
}

// Seen records the id and reports whether it had been recorded before.
func (d *Deduper) Seen(room string, msgID string) bool {
	d.lock.Lock()
	defer d.lock.Unlock()

	w, ok := d.rooms[room]
	if !ok {
		w = &window{
			seen:  make(map[string]struct{}, d.capacity),
			order: make([]string, d.capacity),
		}
		d.rooms[room] = w
	}
	if _, dup := w.seen[msgID]; dup {
		return true
	}

	if evicted := w.order[w.next]; evicted != "" {
		delete(w.seen, evicted)
	}
	w.order[w.next] = msgID
	w.next = (w.next + 1) % d.capacity
	w.seen[msgID] = struct{}{}
	return false
}

// Forget drops everything remembered for a room.
func (d *Deduper) Forget(room string) {
	d.lock.Lock()
	defer d.lock.Unlock()
	delete(d.rooms, room)
}

// Rooms returns the number of rooms with remembered ids.
func (d *Deduper) Rooms() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return len(d.rooms)
}
