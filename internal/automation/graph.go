package automation

import (
	"errors"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
)

// runGraph is graph mode: walk nodes following edges, calling back into the
// single-action executor for each node. Branching actions pick the edge
// labeled with their outcome ("true"/"false"); otherwise the sole unlabeled
// edge advances. A node with no matching edge ends the flow successfully.
//
// Label and Goto have no meaning here (edges subsume them) and end the walk
// with an error.
func (r *Runner) runGraph(flow *model.Flow, o execOpts) bool {
	o.flow = flow

	node := flow.EntryNode()
	if node == nil {
		r.log.Error("graph flow has no nodes", "flow", flow.Name)
		return false
	}

	step := 0
	for node != nil {
		if !r.checkpoint(o) {
			return false
		}

		action := &node.Action
		if action.Kind == model.KindLabel || action.Kind == model.KindGoto {
			r.log.Error("label/goto are not valid in graph mode", "flow", flow.Name, "node", node.ID)
			return false
		}

		r.ctx.setCurrentStep(flow.Name, step)
		if r.cb.OnStep != nil {
			r.cb.OnStep(flow.Name, step, action)
		}

		_, branch, err := r.timedExecute(action, o, flow.Name, step)
		if err != nil && errors.Is(err, errStopped) {
			return false
		}
		// Other errors follow the same forward-progress policy as linear
		// mode: log (done in timedExecute) and keep walking. A failed branch
		// evaluation walks its false edge.

		node = r.nextNode(flow, node, action, branch)
		step++
	}
	return true
}

// nextNode selects the successor: the edge labeled with the branch outcome
// for branching kinds, else the first unlabeled edge.
func (r *Runner) nextNode(flow *model.Flow, node *model.Node, action *model.Action, branch bool) *model.Node {
	edges := flow.OutEdges(node.ID)
	if len(edges) == 0 {
		return nil
	}

	if action.IsBranch() || action.Kind == model.KindWhileImage {
		want := "false"
		if branch {
			want = "true"
		}
		for _, e := range edges {
			if e.Label == want {
				return flow.NodeByID(e.To)
			}
		}
	}
	for _, e := range edges {
		if e.Label == "" {
			return flow.NodeByID(e.To)
		}
	}
	return nil
}
