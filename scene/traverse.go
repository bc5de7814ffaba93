package scene

// The StateSetVisitor interface is implemented by scene passes that operate
// on rendering state.
type StateSetVisitor interface {
	VisitStateSet(ss *StateSet)
}

// Passes that also need access to geometry data (e.g. texture coordinate
// arrays) implement GeometryVisitor in addition to StateSetVisitor.
type GeometryVisitor interface {
	VisitGeometry(g *Geometry)
}

// An adapter for using plain functions as state set visitors.
type StateSetFunc func(ss *StateSet)

func (f StateSetFunc) VisitStateSet(ss *StateSet) { f(ss) }

// Traverse the graph rooted at root in depth-first order. For each node the
// visitor receives the node's state set before any child. Every distinct
// state set is visited exactly once even if several nodes reference it.
func Traverse(root Node, v StateSetVisitor) {
	if root == nil {
		return
	}

	geomVisitor, _ := v.(GeometryVisitor)
	visited := make(map[*StateSet]struct{})

	Walk(root, func(n Node) {
		if ss := n.StateSet(); ss != nil {
			if _, seen := visited[ss]; !seen {
				visited[ss] = struct{}{}
				v.VisitStateSet(ss)
			}
		}

		if g, isGeom := n.(*Geometry); isGeom && geomVisitor != nil {
			geomVisitor.VisitGeometry(g)
		}
	})
}

// Walk invokes fn for every node in the graph in depth-first pre-order.
func Walk(root Node, fn func(Node)) {
	if root == nil {
		return
	}

	fn(root)
	if g, isGroup := root.(*Group); isGroup {
		for _, child := range g.Children {
			Walk(child, fn)
		}
	}
}
