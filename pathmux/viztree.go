package pathmux

import (
	"strings"
)

// VizNode is a read-only view of a collection, used for diagnostics.
type VizNode struct {
	Path     string
	Children []*VizNode
	CanMatch bool
}

// NewVizTree returns the view of a collection. Groups and items with the
// same pattern are merged into one node that can match.
func NewVizTree[V any](c *Collection[V]) *VizNode {
	return aggregateTree(c.root, "")
}

func aggregateTree[V any](g *group[V], path string) *VizNode {
	n := &VizNode{Path: path}
	for _, ii := range g.items {
		if child := n.child(ii.key.Format); child != nil {
			child.CanMatch = true
			continue
		}

		n.Children = append(n.Children, &VizNode{Path: ii.key.Format, CanMatch: true})
	}

	for _, gi := range g.groups {
		sub := aggregateTree(gi, gi.key.Format)
		if existing := n.child(gi.key.Format); existing != nil {
			existing.Children = sub.Children
			continue
		}

		n.Children = append(n.Children, sub)
	}

	return n
}

func (n *VizNode) child(path string) *VizNode {
	for i := 0; i < len(n.Children); i++ {
		child := n.Children[i]
		if path == child.Path {
			return child
		}
	}

	return nil
}

func (n *VizNode) write(sb *strings.Builder, indent int) {
	for _, c := range n.Children {
		sb.WriteString(strings.Repeat("  ", indent))
		sb.WriteString(c.Path)
		if c.CanMatch {
			sb.WriteString(" (match)")
		}

		sb.WriteByte('\n')
		c.write(sb, indent+1)
	}
}

func (n *VizNode) String() string {
	var sb strings.Builder
	n.write(&sb, 0)
	return sb.String()
}

// String renders the collection as an indented tree. Keys that have a
// value are marked with (match).
func (c *Collection[V]) String() string {
	return NewVizTree(c).String()
}
