package model

import "fmt"

// InterruptRule binds a visual trigger to a handler evaluated out-of-band from
// the running flow. Higher priority fires first; ties break by declaration
// order. The handler is either a flow name or an inline action sequence.
type InterruptRule struct {
	TriggerID string   `json:"trigger_id" yaml:"trigger_id"`
	Priority  int      `json:"priority" yaml:"priority"`
	ROI       *ROI     `json:"roi,omitempty" yaml:"roi,omitempty"` // overrides the trigger asset's ROI
	RunFlow   string   `json:"run_flow,omitempty" yaml:"run_flow,omitempty"`
	Actions   []Action `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// Script is a named collection of flows plus the assets and interrupt rules
// they reference. Read-only input supplied by the caller.
type Script struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	MainFlow    string          `json:"main_flow" yaml:"main_flow"`
	Flows       []Flow          `json:"flows" yaml:"flows"`
	Assets      []AssetImage    `json:"assets,omitempty" yaml:"assets,omitempty"`
	Interrupts  []InterruptRule `json:"interrupts,omitempty" yaml:"interrupts,omitempty"`
}

// FlowByName returns the named flow, or nil.
func (s *Script) FlowByName(name string) *Flow {
	for i := range s.Flows {
		if s.Flows[i].Name == name {
			return &s.Flows[i]
		}
	}
	return nil
}

// AssetByID returns the asset with the given id, or nil.
func (s *Script) AssetByID(id string) *AssetImage {
	for i := range s.Assets {
		if s.Assets[i].ID == id {
			return &s.Assets[i]
		}
	}
	return nil
}

// Validate scans the script for dangling references and returns one message
// per issue. It never fails: authoritative validation happens in the editor
// toolchain, the runtime only warns before a run.
func (s *Script) Validate() []string {
	var issues []string

	if s.MainFlow != "" && s.FlowByName(s.MainFlow) == nil {
		issues = append(issues, fmt.Sprintf("main flow %q is not defined", s.MainFlow))
	}

	assetIDs := make(map[string]bool, len(s.Assets))
	for i := range s.Assets {
		a := &s.Assets[i]
		if assetIDs[a.ID] {
			issues = append(issues, fmt.Sprintf("duplicate asset id %q", a.ID))
		}
		assetIDs[a.ID] = true
		if a.Threshold < 0 || a.Threshold > 1 {
			issues = append(issues, fmt.Sprintf("asset %q: threshold %.2f outside [0,1]", a.ID, a.Threshold))
		}
	}

	for i := range s.Flows {
		f := &s.Flows[i]
		labels := f.Labels()
		for j := range f.Actions {
			issues = append(issues, s.validateAction(f.Name, &f.Actions[j], assetIDs, labels)...)
		}
		for j := range f.Nodes {
			issues = append(issues, s.validateAction(f.Name, &f.Nodes[j].Action, assetIDs, nil)...)
		}
		for _, e := range f.Edges {
			if f.NodeByID(e.From) == nil {
				issues = append(issues, fmt.Sprintf("flow %q: edge from unknown node %q", f.Name, e.From))
			}
			if f.NodeByID(e.To) == nil {
				issues = append(issues, fmt.Sprintf("flow %q: edge to unknown node %q", f.Name, e.To))
			}
		}
	}

	for i, r := range s.Interrupts {
		if !assetIDs[r.TriggerID] {
			issues = append(issues, fmt.Sprintf("interrupt %d: trigger asset %q is not defined", i, r.TriggerID))
		}
		if r.RunFlow != "" && s.FlowByName(r.RunFlow) == nil {
			issues = append(issues, fmt.Sprintf("interrupt %d: handler flow %q is not defined", i, r.RunFlow))
		}
		if r.RunFlow == "" && len(r.Actions) == 0 {
			issues = append(issues, fmt.Sprintf("interrupt %d: no handler (run_flow or actions)", i))
		}
	}

	return issues
}

func (s *Script) validateAction(flow string, a *Action, assets map[string]bool, labels map[string]int) []string {
	var issues []string
	for _, id := range a.AssetRefs() {
		if !assets[id] {
			issues = append(issues, fmt.Sprintf("flow %q: asset %q is not defined", flow, id))
		}
	}
	if a.Kind == KindGoto && labels != nil {
		if _, ok := labels[a.Name]; !ok {
			issues = append(issues, fmt.Sprintf("flow %q: goto to undefined label %q", flow, a.Name))
		}
	}
	if a.Kind == KindRunFlow && s.FlowByName(a.Flow) == nil {
		issues = append(issues, fmt.Sprintf("flow %q: run_flow to undefined flow %q", flow, a.Flow))
	}
	if a.IsLoop() && len(a.Body) == 0 {
		issues = append(issues, fmt.Sprintf("flow %q: %s has an empty body", flow, a.Kind))
	}
	for _, children := range [][]Action{a.Then, a.Else, a.Body} {
		for i := range children {
			issues = append(issues, s.validateAction(flow, &children[i], assets, nil)...)
		}
	}
	return issues
}
