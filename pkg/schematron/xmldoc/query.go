package xmldoc

import "strings"

// Match is one result of Query: either an element node (existence) or
// an attribute value (if the path's last segment was "@name").
type Match struct {
	IsAttr bool
	Value  string
	Node   *Node
}

// Query evaluates a path of the shape "//a/b/@c" or "a/b" against the
// document: the first segment is found anywhere in the tree
// (descendant-or-self of Root), every following segment is a direct
// child step, and a final "@name" segment switches to attribute
// lookup. This is the entire XPath subset spec §4.2/§4.5 require —
// not a general XPath 1.0 engine (spec Non-goals).
func (d *Document) Query(path string) []Match {
	return queryFrom(d.Root, path)
}

func queryFrom(root *Node, path string) []Match {
	segs := strings.Split(path, "/")
	for len(segs) > 0 && segs[0] == "" {
		segs = segs[1:]
	}
	if len(segs) == 0 {
		return nil
	}

	first := segs[0]
	rest := segs[1:]

	current := root.FindDescendants(first)
	if root.Local == first {
		current = append([]*Node{root}, current...)
	}

	for i, seg := range rest {
		isLast := i == len(rest)-1
		if isLast && strings.HasPrefix(seg, "@") {
			attrName := seg[1:]
			var matches []Match
			for _, n := range current {
				if v, ok := n.Attr(attrName); ok {
					matches = append(matches, Match{IsAttr: true, Value: v, Node: n})
				}
			}
			return matches
		}

		var next []*Node
		for _, n := range current {
			for _, c := range n.Children {
				if c.Local == seg {
					next = append(next, c)
				}
			}
		}
		current = next
	}

	matches := make([]Match, 0, len(current))
	for _, n := range current {
		matches = append(matches, Match{Node: n})
	}
	return matches
}

// Exists reports whether path resolves to at least one node/attribute.
func (d *Document) Exists(path string) bool {
	return len(d.Query(path)) > 0
}

// Count returns the number of nodes/attributes path resolves to.
func (d *Document) Count(path string) int {
	return len(d.Query(path))
}
