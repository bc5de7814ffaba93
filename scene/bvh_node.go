package scene

import "github.com/achilleasa/lumen/types"

// BvhNode is a node of a geometry's spatial index. Inner nodes reference
// their children by position in Geometry.Index; leaves reference a run of
// entries in Geometry.IndexTriangles.
type BvhNode struct {
	Min types.Vec3
	Max types.Vec3

	// Left/right child for inner nodes; first entry and count for leaves.
	First  uint32
	Second uint32
	Leaf   bool
}

// Set left and right child node indices.
func (n *BvhNode) SetChildNodes(left, right uint32) {
	n.First, n.Second, n.Leaf = left, right, false
}

// Get left and right child node indices.
func (n *BvhNode) ChildNodes() (left, right uint32) {
	return n.First, n.Second
}

// Turn the node into a leaf covering count triangles.
func (n *BvhNode) SetPrimitives(firstPrimIndex, count uint32) {
	n.First, n.Second, n.Leaf = firstPrimIndex, count, true
}

// Get primitive index and count.
func (n *BvhNode) GetPrimitives() (firstPrimIndex, count uint32) {
	return n.First, n.Second
}

func (n *BvhNode) IsLeaf() bool {
	return n.Leaf
}
