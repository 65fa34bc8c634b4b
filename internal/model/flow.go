package model

// Node is one vertex of a graph-mode Flow, wrapping a single action.
type Node struct {
	ID     string `json:"id" yaml:"id"`
	Action Action `json:"action" yaml:"action"`
}

// Edge connects two nodes. Label selects the edge after a branching action:
// "true"/"false" for the taken branch, empty for the unconditional next step.
type Edge struct {
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Flow is a named program of actions, either a flat ordered list (labels and
// gotos resolve by index) or a node/edge graph. Exactly one representation is
// populated; the graph wins when both are present.
type Flow struct {
	Name    string   `json:"name" yaml:"name"`
	Actions []Action `json:"actions,omitempty" yaml:"actions,omitempty"`
	Nodes   []Node   `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Edges   []Edge   `json:"edges,omitempty" yaml:"edges,omitempty"`
	Entry   string   `json:"entry,omitempty" yaml:"entry,omitempty"` // graph start node, defaults to first
}

// IsGraph reports whether the flow executes in graph mode.
func (f *Flow) IsGraph() bool {
	return len(f.Nodes) > 0
}

// Labels builds the label name -> action index map for linear-list mode. The
// map covers top-level actions only; labels inside nested bodies are not
// reachable by Goto.
func (f *Flow) Labels() map[string]int {
	labels := make(map[string]int)
	for i := range f.Actions {
		if f.Actions[i].Kind == KindLabel && f.Actions[i].Name != "" {
			labels[f.Actions[i].Name] = i
		}
	}
	return labels
}

// NodeByID returns the node with the given id, or nil.
func (f *Flow) NodeByID(id string) *Node {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i]
		}
	}
	return nil
}

// EntryNode returns the graph start node: Entry when set, else the first node.
func (f *Flow) EntryNode() *Node {
	if f.Entry != "" {
		if n := f.NodeByID(f.Entry); n != nil {
			return n
		}
	}
	if len(f.Nodes) > 0 {
		return &f.Nodes[0]
	}
	return nil
}

// OutEdges returns the edges leaving the node in declaration order.
func (f *Flow) OutEdges(nodeID string) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.From == nodeID {
			out = append(out, e)
		}
	}
	return out
}
