package engine

import (
	"cmp"
	"slices"

	"github.com/dhamidi/cxg/alternative"
)

// rank orders competing structures: higher priority first, then longer,
// then earlier, then lower id.
type rank struct {
	priority, length, start, id int
}

func (a rank) compare(b rank) int {
	if c := cmp.Compare(b.priority, a.priority); c != 0 {
		return c
	}
	if c := cmp.Compare(b.length, a.length); c != 0 {
		return c
	}
	if c := cmp.Compare(a.start, b.start); c != 0 {
		return c
	}
	return cmp.Compare(a.id, b.id)
}

func rankOf(alt *alternative.State) rank {
	return rank{priority: alt.Priority, length: alt.Len(), start: alt.Start, id: alt.ID}
}

// SortCompleted sorts alternatives into the order they are finalized in.
func SortCompleted(alts []*alternative.State) {
	slices.SortStableFunc(alts, func(a, b *alternative.State) int {
		return rankOf(a).compare(rankOf(b))
	})
}
