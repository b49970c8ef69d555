package parse

import (
	"github.com/dhamidi/cxg/ghost"
	"github.com/dhamidi/cxg/token"
	"github.com/dhamidi/cxg/tokengraph"
)

// Reconfiguration operation kinds.
const (
	OpGhostCreated          = "ghost_created"
	OpGhostFulfilled        = "ghost_fulfilled"
	OpGhostExpired          = "ghost_expired"
	OpEdgesRelinked         = "edges_relinked"
	OpAlternativeMaintained = "alternative_maintained"
	OpAlternativeAbandoned  = "alternative_abandoned"
	OpNodesAggregated       = "nodes_aggregated"
)

// Operation is one entry of the append-only reconfiguration log.
type Operation struct {
	Kind        string `json:"kind"`
	Position    int    `json:"position"`
	GhostID     int    `json:"ghost_id,omitempty"`
	NodeID      int    `json:"node_id,omitempty"`
	Alternative int    `json:"alternative,omitempty"`
	Edges       int    `json:"edges,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Snapshot is a point-in-time summary taken after each position.
type Snapshot struct {
	Position     int          `json:"position"`
	Alternatives int          `json:"alternatives"`
	Nodes        int          `json:"nodes"`
	GraphNodes   int          `json:"graph_nodes"`
	Edges        int          `json:"edges"`
	GraphEdges   int          `json:"graph_edges"`
	Ghosts       ghost.Counts `json:"ghosts"`
	OpsSinceLast int          `json:"ops_since_last"`
}

// StateV5 extends State with the token graph, the ghost registry, the
// reconfiguration log and snapshots.
type StateV5 struct {
	*State
	Graph     *tokengraph.Graph
	Ghosts    *ghost.Manager
	Log       []Operation
	Snapshots []Snapshot

	// TokenNodes maps a sentence position to its real node id.
	TokenNodes map[int]int

	loggedAtSnapshot int
}

func NewStateV5(tokens []token.Token) *StateV5 {
	return &StateV5{
		State:      NewState(tokens),
		Graph:      tokengraph.New(),
		Ghosts:     ghost.NewManager(),
		TokenNodes: make(map[int]int),
	}
}

// Record appends op to the reconfiguration log.
func (s *StateV5) Record(op Operation) {
	s.Log = append(s.Log, op)
}

// TakeSnapshot appends a summary of the current state.
func (s *StateV5) TakeSnapshot(position int) Snapshot {
	realNodes, ghosts := s.Graph.NodeCount()
	snap := Snapshot{
		Position:     position,
		Alternatives: s.Queue.Len(),
		Nodes:        len(s.Nodes),
		GraphNodes:   realNodes + ghosts,
		Edges:        len(s.Edges),
		GraphEdges:   s.Graph.EdgeCount(),
		Ghosts:       s.Ghosts.Counts(),
		OpsSinceLast: len(s.Log) - s.loggedAtSnapshot,
	}
	s.loggedAtSnapshot = len(s.Log)
	s.Snapshots = append(s.Snapshots, snap)
	return snap
}
