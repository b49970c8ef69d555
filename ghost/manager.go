package ghost

// Spec holds the creation parameters of a ghost.
type Spec struct {
	Position         int
	Alternative      int
	Construction     string
	ExpectedCE       string
	ExpectedPOS      []string
	ExpectedFeatures map[string]string
}

// Manager owns the ghosts of one parse and their id counter.
type Manager struct {
	ghosts []*Ghost
	byID   map[int]*Ghost
	nextID int
}

func NewManager() *Manager {
	return &Manager{byID: make(map[int]*Ghost)}
}

// Create registers a pending ghost with the next negative id.
func (m *Manager) Create(s Spec) *Ghost {
	m.nextID--
	g := &Ghost{
		ID:                    m.nextID,
		Type:                  InferType(s.ExpectedCE),
		CreatedAt:             s.Position,
		CreatedByAlternative:  s.Alternative,
		CreatedByConstruction: s.Construction,
		ExpectedCE:            s.ExpectedCE,
		ExpectedPOS:           s.ExpectedPOS,
		ExpectedFeatures:      s.ExpectedFeatures,
		State:                 Pending,
	}
	m.ghosts = append(m.ghosts, g)
	m.byID[g.ID] = g
	return g
}

func (m *Manager) Get(id int) (*Ghost, bool) {
	g, ok := m.byID[id]
	return g, ok
}

// All returns every ghost in creation order.
func (m *Manager) All() []*Ghost {
	return append([]*Ghost(nil), m.ghosts...)
}

// Pending returns the pending ghosts in creation order.
func (m *Manager) Pending() []*Ghost {
	var out []*Ghost
	for _, g := range m.ghosts {
		if g.State == Pending {
			out = append(out, g)
		}
	}
	return out
}

// PendingFor reports whether a pending ghost for label ce was created by the
// given alternative.
func (m *Manager) PendingFor(alternative int, ce string) bool {
	for _, g := range m.ghosts {
		if g.State == Pending && g.CreatedByAlternative == alternative && g.ExpectedCE == ce {
			return true
		}
	}
	return false
}

// FindFulfillable returns the first pending ghost, in creation order, that
// was created before position and that the candidate is compatible with.
func (m *Manager) FindFulfillable(c Candidate, position int) *Ghost {
	for _, g := range m.ghosts {
		if g.State == Pending && g.CreatedAt < position && g.Compatible(c) {
			return g
		}
	}
	return nil
}

// Fulfill marks ghost id as fulfilled by a real node. It returns false and
// changes nothing when the ghost is unknown or no longer pending.
func (m *Manager) Fulfill(id, realID, position int) bool {
	g, ok := m.byID[id]
	if !ok || g.State != Pending {
		return false
	}
	g.State = Fulfilled
	g.FulfilledBy = realID
	g.FulfilledAt = position
	return true
}

// ExpirePending expires every pending ghost, as at the end of a sentence,
// and returns the expired ghosts.
func (m *Manager) ExpirePending(position int) []*Ghost {
	return m.expire(position, func(*Ghost) bool { return true })
}

// ExpireStale expires pending ghosts created before threshold.
func (m *Manager) ExpireStale(threshold, position int) []*Ghost {
	return m.expire(position, func(g *Ghost) bool { return g.CreatedAt < threshold })
}

func (m *Manager) expire(position int, match func(*Ghost) bool) []*Ghost {
	var out []*Ghost
	for _, g := range m.ghosts {
		if g.State == Pending && match(g) {
			g.State = Expired
			g.ExpiredAt = position
			out = append(out, g)
		}
	}
	return out
}

// Counts is the number of ghosts per state.
type Counts struct {
	Pending   int `json:"pending"`
	Fulfilled int `json:"fulfilled"`
	Expired   int `json:"expired"`
}

// Total returns the number of ghosts counted.
func (c Counts) Total() int {
	return c.Pending + c.Fulfilled + c.Expired
}

func (c *Counts) add(s State) {
	switch s {
	case Pending:
		c.Pending++
	case Fulfilled:
		c.Fulfilled++
	case Expired:
		c.Expired++
	}
}

func (m *Manager) Counts() Counts {
	var c Counts
	for _, g := range m.ghosts {
		c.add(g.State)
	}
	return c
}

// Stats aggregates ghost outcomes.
type Stats struct {
	Counts          Counts            `json:"counts"`
	ByType          map[Type]Counts   `json:"by_type"`
	ByConstruction  map[string]Counts `json:"by_construction"`
	FulfillmentRate float64           `json:"fulfillment_rate"`
}

func (m *Manager) Stats() Stats {
	s := Stats{
		Counts:         m.Counts(),
		ByType:         make(map[Type]Counts),
		ByConstruction: make(map[string]Counts),
	}
	for _, g := range m.ghosts {
		byType := s.ByType[g.Type]
		byCx := s.ByConstruction[g.CreatedByConstruction]
		byType.add(g.State)
		byCx.add(g.State)
		s.ByType[g.Type] = byType
		s.ByConstruction[g.CreatedByConstruction] = byCx
	}
	if total := s.Counts.Total(); total > 0 {
		s.FulfillmentRate = float64(s.Counts.Fulfilled) / float64(total)
	}
	return s
}
