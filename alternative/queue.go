package alternative

import "sort"

// Queue holds active alternatives ordered by priority, highest first, and by
// insertion within equal priority. It is rebuilt rather than mutated while
// being iterated.
type Queue struct {
	items []*State
}

// NewQueue builds a queue from states, preserving their relative order within
// equal priority.
func NewQueue(states ...*State) *Queue {
	q := &Queue{items: append([]*State(nil), states...)}
	sort.SliceStable(q.items, func(i, j int) bool {
		return q.items[i].Priority > q.items[j].Priority
	})
	return q
}

// Push inserts st after every queued state of equal or higher priority.
func (q *Queue) Push(st *State) {
	i := sort.Search(len(q.items), func(i int) bool {
		return q.items[i].Priority < st.Priority
	})
	q.items = append(q.items, nil)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = st
}

// Len returns the number of queued states.
func (q *Queue) Len() int {
	return len(q.items)
}

// Items returns a snapshot of the queue in order. Mutating the returned slice
// does not affect the queue.
func (q *Queue) Items() []*State {
	return append([]*State(nil), q.items...)
}

// Get returns the state with the given id.
func (q *Queue) Get(id int) (*State, bool) {
	for _, st := range q.items {
		if st.ID == id {
			return st, true
		}
	}
	return nil, false
}

// Replace swaps the state with st.ID for st, keeping its place.
func (q *Queue) Replace(st *State) bool {
	for i, old := range q.items {
		if old.ID == st.ID {
			q.items[i] = st
			return true
		}
	}
	return false
}

// Filter returns a new queue with the states for which keep returns true.
func (q *Queue) Filter(keep func(*State) bool) *Queue {
	out := &Queue{items: make([]*State, 0, len(q.items))}
	for _, st := range q.items {
		if keep(st) {
			out.items = append(out.items, st)
		}
	}
	return out
}

// Count returns the number of states with the given status.
func (q *Queue) Count(status Status) int {
	n := 0
	for _, st := range q.items {
		if st.Status == status {
			n++
		}
	}
	return n
}
