package scene

import "github.com/achilleasa/lumen/types"

// Node is implemented by every scene graph element. A scene graph is a tree;
// nodes are never shared between parents. State sets may be shared between
// nodes of the same scene.
type Node interface {
	// The node name as defined by the source file.
	Name() string

	// The state set attached to this node or nil.
	StateSet() *StateSet

	// Attach a state set to this node.
	SetStateSet(*StateSet)
}

// A Group node owns an ordered list of child nodes.
type Group struct {
	NodeName string
	State    *StateSet
	Children []Node
}

// Create a new named group.
func NewGroup(name string) *Group {
	return &Group{
		NodeName: name,
		Children: make([]Node, 0),
	}
}

func (g *Group) Name() string             { return g.NodeName }
func (g *Group) StateSet() *StateSet      { return g.State }
func (g *Group) SetStateSet(ss *StateSet) { g.State = ss }

// Append a child node.
func (g *Group) AddChild(n Node) {
	g.Children = append(g.Children, n)
}

// A Leaf is a childless node without geometry, e.g. a light or camera anchor.
type Leaf struct {
	NodeName string
	State    *StateSet
}

func (l *Leaf) Name() string             { return l.NodeName }
func (l *Leaf) StateSet() *StateSet      { return l.State }
func (l *Leaf) SetStateSet(ss *StateSet) { l.State = ss }

// Geometry stores an indexed triangle list together with per texture unit
// coordinate arrays and the spatial index built by the model loader.
type Geometry struct {
	NodeName string
	State    *StateSet

	Vertices []types.Vec3
	Normals  []types.Vec3

	// Triangle list; three entries per triangle.
	Indices []uint32

	// Texture coordinate arrays indexed by texture unit. A nil entry means
	// that the unit has no coordinates bound.
	TexCoords [][]types.Vec2

	// Spatial index over this geometry's triangles.
	Index []BvhNode

	// Triangle order referenced by bvh leafs.
	IndexTriangles []uint32
}

// Create a new named geometry node.
func NewGeometry(name string) *Geometry {
	return &Geometry{NodeName: name}
}

func (g *Geometry) Name() string             { return g.NodeName }
func (g *Geometry) StateSet() *StateSet      { return g.State }
func (g *Geometry) SetStateSet(ss *StateSet) { g.State = ss }

// Get the number of triangles in this geometry.
func (g *Geometry) NumTriangles() int {
	return len(g.Indices) / 3
}

// Get the vertices of the i-th triangle.
func (g *Geometry) Triangle(i int) [3]types.Vec3 {
	return [3]types.Vec3{
		g.Vertices[g.Indices[3*i]],
		g.Vertices[g.Indices[3*i+1]],
		g.Vertices[g.Indices[3*i+2]],
	}
}

// Get the texture coordinate array bound to unit or nil.
func (g *Geometry) TexCoordArray(unit int) []types.Vec2 {
	if unit < 0 || unit >= len(g.TexCoords) {
		return nil
	}
	return g.TexCoords[unit]
}

// Bind a texture coordinate array to a unit. Passing a nil array unbinds it.
func (g *Geometry) SetTexCoordArray(unit int, coords []types.Vec2) {
	if coords == nil && unit >= len(g.TexCoords) {
		return
	}
	for len(g.TexCoords) <= unit {
		g.TexCoords = append(g.TexCoords, nil)
	}
	g.TexCoords[unit] = coords
}

// True if the spatial index has been built.
func (g *Geometry) HasIndex() bool {
	return len(g.Index) != 0 || g.NumTriangles() == 0
}

// Get the geometry bounding box.
func (g *Geometry) BBox() [2]types.Vec3 {
	bbox := types.EmptyBBox()
	for _, v := range g.Vertices {
		bbox[0] = types.MinVec3(bbox[0], v)
		bbox[1] = types.MaxVec3(bbox[1], v)
	}
	return bbox
}

// Calculate the bounding box of a scene graph.
func BBox(root Node) [2]types.Vec3 {
	bbox := types.EmptyBBox()
	Walk(root, func(n Node) {
		if g, ok := n.(*Geometry); ok {
			bbox = types.UnionBBox(bbox, g.BBox())
		}
	})
	return bbox
}
