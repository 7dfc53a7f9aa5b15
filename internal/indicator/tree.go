package indicator

import (
	"sort"

	"sglgb/internal/indicator/models"
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"
)

// Tree is the explicit indicator hierarchy, keyed by stable integer ids with
// parent references. Building the tree up front rejects dangling parents and
// over-deep nesting instead of discovering them at evaluation time.
type Tree struct {
	nodes    map[id.IndicatorID]*models.Definition
	children map[id.IndicatorID][]id.IndicatorID
	depth    map[id.IndicatorID]int
	roots    []id.IndicatorID
}

// NewTree builds a hierarchy from definitions. Every parent reference must
// resolve and no node may sit deeper than models.MaxDepth levels.
func NewTree(defs []*models.Definition) (*Tree, error) {
	t := &Tree{
		nodes:    make(map[id.IndicatorID]*models.Definition, len(defs)),
		children: make(map[id.IndicatorID][]id.IndicatorID),
		depth:    make(map[id.IndicatorID]int, len(defs)),
	}
	for _, def := range defs {
		if _, exists := t.nodes[def.ID]; exists {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "duplicate indicator id %d", def.ID)
		}
		t.nodes[def.ID] = def
	}
	for _, def := range defs {
		if def.ParentID == nil {
			t.roots = append(t.roots, def.ID)
			continue
		}
		parent := *def.ParentID
		if _, ok := t.nodes[parent]; !ok {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
				"indicator %d references missing parent %d", def.ID, parent)
		}
		if parent == def.ID {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "indicator %d is its own parent", def.ID)
		}
		t.children[parent] = append(t.children[parent], def.ID)
	}
	sort.Slice(t.roots, func(i, j int) bool { return t.roots[i] < t.roots[j] })
	for _, kids := range t.children {
		sort.Slice(kids, func(i, j int) bool { return kids[i] < kids[j] })
	}
	for _, root := range t.roots {
		if err := t.assignDepth(root, 1); err != nil {
			return nil, err
		}
	}
	// Nodes without an assigned depth sit in a parent cycle.
	for nodeID := range t.nodes {
		if _, ok := t.depth[nodeID]; !ok {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "indicator %d is part of a parent cycle", nodeID)
		}
	}
	return t, nil
}

func (t *Tree) assignDepth(nodeID id.IndicatorID, depth int) error {
	if depth > models.MaxDepth {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"indicator %d exceeds the maximum depth of %d", nodeID, models.MaxDepth)
	}
	t.depth[nodeID] = depth
	for _, child := range t.children[nodeID] {
		if err := t.assignDepth(child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the definition for an id.
func (t *Tree) Get(nodeID id.IndicatorID) (*models.Definition, bool) {
	def, ok := t.nodes[nodeID]
	return def, ok
}

// Children returns the ordered child ids of a node.
func (t *Tree) Children(nodeID id.IndicatorID) []id.IndicatorID {
	return t.children[nodeID]
}

// Roots returns the ordered top-level indicator ids.
func (t *Tree) Roots() []id.IndicatorID {
	return t.roots
}

// Depth returns the 1-based depth of a node, or 0 when unknown.
func (t *Tree) Depth(nodeID id.IndicatorID) int {
	return t.depth[nodeID]
}

// ByArea returns every definition in a governance area, ordered by id.
func (t *Tree) ByArea(areaID id.AreaID) []*models.Definition {
	var out []*models.Definition
	for _, def := range t.nodes {
		if def.AreaID == areaID {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}
