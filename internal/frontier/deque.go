// Package frontier holds the work queue of pending archive pages and the URL
// normalization used for dedup keys.
package frontier

import "time"

// Item is one unit of frontier work: an archive page URL plus the most recent
// article date known to be reachable from this chain of pages. The anchor
// date drives date-limit evaluation and seeds the next page's anchor when no
// article on the page carries a date.
type Item struct {
	AnchorDate time.Time
	URL        string
}

// Deque is a double-ended queue of frontier items. Seeds are consumed from
// the front in order; pagination continuations are pushed back onto the
// front so a chain of pages is walked to completion before the next, older
// seed is started.
type Deque struct {
	items []Item
}

// NewDeque creates a deque pre-loaded with the given items, front first.
func NewDeque(items []Item) *Deque {
	d := &Deque{items: make([]Item, len(items))}
	copy(d.items, items)
	return d
}

// PushFront adds an item to the front of the queue.
func (d *Deque) PushFront(item Item) {
	d.items = append([]Item{item}, d.items...)
}

// PushBack adds an item to the back of the queue.
func (d *Deque) PushBack(item Item) {
	d.items = append(d.items, item)
}

// PopFront removes and returns the front item. The boolean is false when the
// queue is empty.
func (d *Deque) PopFront() (Item, bool) {
	if len(d.items) == 0 {
		return Item{}, false
	}
	item := d.items[0]
	d.items = d.items[1:]
	return item, true
}

// Len returns the number of queued items.
func (d *Deque) Len() int {
	return len(d.items)
}
