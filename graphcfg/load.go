package graphcfg

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/gogpu/plumber"
)

// inputNode is the reserved from-node name in slot edges that maps to
// the host graph's input boundary.
const inputNode = "@input"

// maxWorkgroupDim is the WebGPU default limit for workgroup counts per
// dispatch dimension.
const maxWorkgroupDim = 65535

// Result pairs a built definition with the trigger cell the loader
// created for it. Manual is non-nil only when the graph declared
// `trigger = "manual"`; the caller keeps it to arm the graph.
type Result struct {
	Definition *plumber.SubGraphDefinition
	Manual     *plumber.ManualTrigger
}

// LoadFile parses an HCL graph file and builds every graph it declares,
// keyed by graph name. vars become available to config expressions under
// the `var.` prefix, e.g. `size = var.frame_bytes`.
func LoadFile(path string, vars map[string]cty.Value) (map[string]*Result, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("graphcfg: parse %s: %s", path, diags.Error())
	}
	return decode(file.Body, path, vars)
}

// Parse is LoadFile over in-memory source; filename only labels
// diagnostics.
func Parse(src []byte, filename string, vars map[string]cty.Value) (map[string]*Result, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("graphcfg: parse %s: %s", filename, diags.Error())
	}
	return decode(file.Body, filename, vars)
}

func decode(body hcl.Body, name string, vars map[string]cty.Value) (map[string]*Result, error) {
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(vars),
		},
	}

	var file GraphFile
	if diags := gohcl.DecodeBody(body, evalCtx, &file); diags.HasErrors() {
		return nil, fmt.Errorf("graphcfg: decode %s: %s", name, diags.Error())
	}

	results := make(map[string]*Result, len(file.Graphs))
	for _, g := range file.Graphs {
		if _, dup := results[g.Name]; dup {
			return nil, fmt.Errorf("graphcfg: %s: duplicate graph %q", name, g.Name)
		}
		res, err := buildGraph(g)
		if err != nil {
			return nil, fmt.Errorf("graphcfg: %s: graph %q: %w", name, g.Name, err)
		}
		results[g.Name] = res
	}
	return results, nil
}

func buildGraph(g *GraphBlock) (*Result, error) {
	b := plumber.NewSubGraph(g.Name)
	res := &Result{}

	switch g.Trigger {
	case "", "always":
		// Default gate.
	case "manual":
		res.Manual = plumber.NewManualTrigger()
		b.Trigger(res.Manual)
	default:
		return nil, fmt.Errorf("trigger %q: want always or manual", g.Trigger)
	}

	for _, n := range g.Nodes {
		desc, err := buildNode(n)
		if err != nil {
			return nil, err
		}
		b.AddNode(n.Name, desc)
	}

	for _, e := range g.NodeEdges {
		b.AddNodeEdge(translateNode(e.From), translateNode(e.To))
	}
	for _, e := range g.SlotEdges {
		fromNode, fromSlot, err := splitSlotRef(e.From)
		if err != nil {
			return nil, fmt.Errorf("slot_edge from: %w", err)
		}
		toNode, toSlot, err := splitSlotRef(e.To)
		if err != nil {
			return nil, fmt.Errorf("slot_edge to: %w", err)
		}
		b.AddSlotEdge(translateNode(fromNode), fromSlot, toNode, toSlot)
	}

	def, err := b.Build()
	if err != nil {
		return nil, err
	}
	res.Definition = def
	return res, nil
}

func buildNode(n *NodeBlock) (*plumber.NodeDescriptor, error) {
	nb := plumber.NewNode(n.Name).
		Shader(plumber.ShaderSource{WGSL: n.WGSL, Path: n.Shader}).
		EntryPoint(n.EntryPoint)

	dispatch, err := buildDispatch(n.Dispatch)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", n.Name, err)
	}
	nb.Dispatch(dispatch)

	for _, blk := range n.Bindings {
		binding, err := buildBinding(blk)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		nb.Binding(binding)
	}

	return nb.Build()
}

func buildDispatch(d *DispatchBlock) (plumber.DispatchStrategy, error) {
	if d == nil {
		return nil, nil // NodeBuilder reports the missing strategy.
	}
	switch {
	case len(d.Workgroups) > 0 && d.PerElement != nil:
		return nil, fmt.Errorf("dispatch: workgroups and per_element are mutually exclusive")
	case d.PerElement != nil:
		return buildPerElement(d.PerElement)
	case len(d.Workgroups) == 3:
		for _, v := range d.Workgroups {
			if v < 0 || v > maxWorkgroupDim {
				return nil, fmt.Errorf("dispatch: workgroup count %d out of range [0, %d]", v, maxWorkgroupDim)
			}
		}
		return plumber.FixedWorkgroups(
			uint32(d.Workgroups[0]),
			uint32(d.Workgroups[1]),
			uint32(d.Workgroups[2])), nil
	case len(d.Workgroups) != 0:
		return nil, fmt.Errorf("dispatch: workgroups wants [x, y, z], got %d values", len(d.Workgroups))
	default:
		return nil, fmt.Errorf("dispatch: one of workgroups or per_element required")
	}
}

func buildPerElement(p *PerElementBlock) (plumber.DispatchStrategy, error) {
	if p.ElementSize <= 0 {
		return nil, fmt.Errorf("per_element: element_size must be positive, got %d", p.ElementSize)
	}
	if p.WorkgroupSize <= 0 {
		return nil, fmt.Errorf("per_element: workgroup_size must be positive, got %d", p.WorkgroupSize)
	}
	slot := p.Slot
	elemSize := uint64(p.ElementSize)
	groupSize := uint64(p.WorkgroupSize)
	return plumber.WorkgroupsFromContext(func(ctx *plumber.GraphContext) (uint32, uint32, uint32) {
		size, ok := ctx.SlotSize(slot)
		if !ok || size == 0 {
			return 0, 0, 0
		}
		elems := size / elemSize
		groups := (elems + groupSize - 1) / groupSize
		return uint32(groups), 1, 1
	}), nil
}

func buildBinding(blk *BindingBlock) (plumber.ResourceBinding, error) {
	if blk.Index < 0 {
		return plumber.ResourceBinding{}, fmt.Errorf("binding %q: index %d: must be non-negative", blk.Name, blk.Index)
	}
	binding := plumber.ResourceBinding{
		Name:  blk.Name,
		Index: uint32(blk.Index),
	}

	switch blk.Direction {
	case "input":
		binding.Direction = plumber.BindingInput
	case "output":
		binding.Direction = plumber.BindingOutput
	case "inout":
		binding.Direction = plumber.BindingInputOutput
	default:
		return binding, fmt.Errorf("binding %q: direction %q: want input, output, or inout", blk.Name, blk.Direction)
	}

	switch blk.Kind {
	case "", "buffer":
		binding.Kind = plumber.SlotBuffer
	case "texture":
		binding.Kind = plumber.SlotTexture
	default:
		return binding, fmt.Errorf("binding %q: kind %q: want buffer or texture", blk.Name, blk.Kind)
	}

	if binding.Direction == plumber.BindingOutput {
		switch {
		case blk.Size != nil && blk.MatchSlot != nil:
			return binding, fmt.Errorf("binding %q: size and match_slot are mutually exclusive", blk.Name)
		case blk.Size != nil && *blk.Size < 0:
			return binding, fmt.Errorf("binding %q: size %d: must be non-negative", blk.Name, *blk.Size)
		case blk.Size != nil:
			binding.Size = plumber.FixedSize(uint64(*blk.Size))
		case blk.MatchSlot != nil:
			slot := *blk.MatchSlot
			binding.Size = plumber.SizeFromContext(func(ctx *plumber.GraphContext) uint64 {
				size, _ := ctx.SlotSize(slot)
				return size
			})
		}
		// Neither set: NodeBuilder reports the missing size strategy.
	}

	return binding, nil
}

// translateNode maps the reserved @input name onto the core's graph
// input node; every other name passes through.
func translateNode(name string) string {
	if name == inputNode {
		return plumber.GraphInputNode
	}
	return name
}

// splitSlotRef splits "node.slot" at the first dot.
func splitSlotRef(ref string) (node, slot string, err error) {
	node, slot, ok := strings.Cut(ref, ".")
	if !ok || node == "" || slot == "" {
		return "", "", fmt.Errorf("slot reference %q: want \"node.slot\"", ref)
	}
	return node, slot, nil
}
