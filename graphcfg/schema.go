// Package graphcfg loads sub-graph declarations from HCL files. A graph
// file declares nodes, bindings, dispatch rules, edges, and a trigger;
// the loader translates it into a validated
// [github.com/gogpu/plumber.SubGraphDefinition].
//
// Shader code stays out of the config: nodes reference shaders by path,
// or embed WGSL with a heredoc when inline source is genuinely wanted.
package graphcfg

import "github.com/hashicorp/hcl/v2"

// GraphFile is the top-level structure of a graph config file.
type GraphFile struct {
	Graphs []*GraphBlock `hcl:"graph,block"`
	Body   hcl.Body      `hcl:",remain"`
}

// GraphBlock is one `graph "name" { ... }` declaration.
type GraphBlock struct {
	Name      string           `hcl:"name,label"`
	Trigger   string           `hcl:"trigger,optional"`
	Nodes     []*NodeBlock     `hcl:"node,block"`
	NodeEdges []*NodeEdgeBlock `hcl:"node_edge,block"`
	SlotEdges []*SlotEdgeBlock `hcl:"slot_edge,block"`
}

// NodeBlock is one `node "name" { ... }` declaration inside a graph.
type NodeBlock struct {
	Name       string          `hcl:"name,label"`
	Shader     string          `hcl:"shader,optional"`
	WGSL       string          `hcl:"wgsl,optional"`
	EntryPoint string          `hcl:"entry_point"`
	Dispatch   *DispatchBlock  `hcl:"dispatch,block"`
	Bindings   []*BindingBlock `hcl:"binding,block"`
}

// DispatchBlock declares how a node's workgroup counts are computed.
// Exactly one of Workgroups (a fixed [x, y, z] triple) or PerElement
// must be set.
type DispatchBlock struct {
	Workgroups []int            `hcl:"workgroups,optional"`
	PerElement *PerElementBlock `hcl:"per_element,block"`
}

// PerElementBlock sizes a one-dimensional dispatch from an input slot:
// one thread per element of the named slot, rounded up to whole
// workgroups. An absent slot dispatches nothing.
type PerElementBlock struct {
	Slot          string `hcl:"slot"`
	ElementSize   int    `hcl:"element_size"`
	WorkgroupSize int    `hcl:"workgroup_size"`
}

// BindingBlock is one `binding "slot" { ... }` declaration. Direction is
// "input", "output", or "inout"; kind is "buffer" or "texture". Output
// bindings take either a fixed Size in bytes or MatchSlot naming the
// input slot whose resolved size the output follows.
type BindingBlock struct {
	Name      string  `hcl:"name,label"`
	Index     int     `hcl:"index"`
	Direction string  `hcl:"direction"`
	Kind      string  `hcl:"kind,optional"`
	Size      *int64  `hcl:"size,optional"`
	MatchSlot *string `hcl:"match_slot,optional"`
}

// NodeEdgeBlock is a pure ordering edge between two nodes.
type NodeEdgeBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// SlotEdgeBlock is a data-flow edge between slots, both written as
// "node.slot". The reserved from-node "@input" denotes the host graph's
// input boundary.
type SlotEdgeBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}
