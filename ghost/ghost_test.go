package ghost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferType(t *testing.T) {
	tests := map[string]Type{
		"subj":     SubjectPro,
		"nsubj":    SubjectPro,
		"head":     ImplicitHead,
		"mod":      ImplicitModifier,
		"adjunct":  ImplicitModifier,
		"advmod":   ImplicitModifier,
		"obj":      DroppedArgument,
		"argument": DroppedArgument,
	}
	for ce, want := range tests {
		t.Run(ce, func(t *testing.T) {
			assert.Equal(t, want, InferType(ce))
		})
	}
}

func TestManager_CreateAssignsNegativeIDs(t *testing.T) {
	m := NewManager()
	a := m.Create(Spec{Position: 0, Alternative: 1, Construction: "clause", ExpectedCE: "subj"})
	b := m.Create(Spec{Position: 1, Alternative: 1, Construction: "clause", ExpectedCE: "obj"})
	assert.Equal(t, -1, a.ID)
	assert.Equal(t, -2, b.ID)
	assert.Equal(t, SubjectPro, a.Type)
	assert.Equal(t, Pending, a.State)
	assert.True(t, m.PendingFor(1, "subj"))
	assert.False(t, m.PendingFor(2, "subj"))

	got, ok := m.Get(-2)
	require.True(t, ok)
	assert.Same(t, b, got)
}

// Fulfilling the same ghost twice succeeds once.
func TestManager_FulfillExactlyOnce(t *testing.T) {
	m := NewManager()
	g := m.Create(Spec{Position: 0, Alternative: 1, Construction: "clause", ExpectedCE: "subj"})

	assert.True(t, m.Fulfill(g.ID, 7, 2))
	assert.False(t, m.Fulfill(g.ID, 8, 3))

	c := m.Counts()
	assert.Equal(t, 1, c.Fulfilled)
	assert.Equal(t, 0, c.Pending)
	assert.Equal(t, 7, g.FulfilledBy)
	assert.Equal(t, 2, g.FulfilledAt)

	assert.False(t, m.Fulfill(-99, 7, 2))
}

func TestManager_Expire(t *testing.T) {
	m := NewManager()
	old := m.Create(Spec{Position: 0, ExpectedCE: "obj"})
	recent := m.Create(Spec{Position: 4, ExpectedCE: "subj"})
	done := m.Create(Spec{Position: 0, ExpectedCE: "head"})
	require.True(t, m.Fulfill(done.ID, 3, 1))

	expired := m.ExpireStale(2, 5)
	require.Len(t, expired, 1)
	assert.Equal(t, old.ID, expired[0].ID)
	assert.Equal(t, 5, old.ExpiredAt)
	assert.Empty(t, m.ExpireStale(2, 6), "already expired ghosts are skipped")

	expired = m.ExpirePending(7)
	require.Len(t, expired, 1)
	assert.Equal(t, recent.ID, expired[0].ID)
	assert.Equal(t, Fulfilled, done.State)
	assert.False(t, m.Fulfill(recent.ID, 9, 8), "expired is terminal")

	assert.Equal(t, Counts{Fulfilled: 1, Expired: 2}, m.Counts())
}

func TestCompatible(t *testing.T) {
	g := &Ghost{Type: SubjectPro, ExpectedCE: "subj", ExpectedFeatures: map[string]string{"Number": "Sing"}, State: Pending}
	tests := []struct {
		name string
		c    Candidate
		want bool
	}{
		{"pronoun", Candidate{POS: "PRON"}, true},
		{"noun agreeing", Candidate{POS: "NOUN", Features: map[string]string{"Number": "Sing"}}, true},
		{"noun disagreeing", Candidate{POS: "NOUN", Features: map[string]string{"Number": "Plur"}}, false},
		{"verb", Candidate{POS: "VERB"}, false},
		{"other label", Candidate{POS: "PRON", CE: "obj"}, false},
		{"same label", Candidate{POS: "PRON", CE: "subj"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Compatible(tt.c))
		})
	}

	explicit := &Ghost{Type: DroppedArgument, ExpectedPOS: []string{"VERB"}, State: Pending}
	assert.True(t, explicit.Compatible(Candidate{POS: "VERB"}))
	assert.False(t, explicit.Compatible(Candidate{POS: "NOUN"}))

	explicit.State = Fulfilled
	assert.False(t, explicit.Compatible(Candidate{POS: "VERB"}))
}

func TestFindFulfillable_CreationOrder(t *testing.T) {
	m := NewManager()
	m.Create(Spec{ExpectedCE: "mod"})
	first := m.Create(Spec{ExpectedCE: "subj"})
	m.Create(Spec{ExpectedCE: "obj"})
	late := m.Create(Spec{Position: 2, ExpectedCE: "subj"})

	g := m.FindFulfillable(Candidate{POS: "PRON"}, 1)
	require.NotNil(t, g)
	assert.Equal(t, first.ID, g.ID)
	assert.Nil(t, m.FindFulfillable(Candidate{POS: "VERB"}, 1))
	assert.Nil(t, m.FindFulfillable(Candidate{POS: "PRON"}, 0), "ghosts are fulfilled by later tokens only")

	m.Fulfill(first.ID, 1, 1)
	m.Fulfill(first.ID-1, 1, 1)
	assert.Equal(t, late.ID, m.FindFulfillable(Candidate{POS: "PRON"}, 3).ID)
}

func TestStats(t *testing.T) {
	m := NewManager()
	a := m.Create(Spec{Construction: "clause", ExpectedCE: "subj"})
	m.Create(Spec{Construction: "clause", ExpectedCE: "obj"})
	m.Create(Spec{Construction: "np", ExpectedCE: "head"})
	m.Fulfill(a.ID, 1, 0)
	m.ExpirePending(3)

	s := m.Stats()
	assert.Equal(t, Counts{Fulfilled: 1, Expired: 2}, s.Counts)
	assert.Equal(t, Counts{Fulfilled: 1, Expired: 1}, s.ByConstruction["clause"])
	assert.Equal(t, Counts{Expired: 1}, s.ByType[ImplicitHead])
	assert.InDelta(t, 1.0/3.0, s.FulfillmentRate, 1e-9)
}
