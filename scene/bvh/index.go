package bvh

import (
	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/types"
)

// Triangles per leaf used when indexing scene geometry.
const DefaultMinLeafTriangles = 4

// A triangle of a geometry node.
type triangle struct {
	index  uint32
	bbox   [2]types.Vec3
	center types.Vec3
}

func (t *triangle) BBox() [2]types.Vec3 { return t.bbox }
func (t *triangle) Center() types.Vec3  { return t.center }

// Build a spatial index for every geometry node in the graph. The index of
// each geometry is stored in its Index field; IndexTriangles holds the
// triangle ordering referenced by the leafs. Returns the number of indexed
// geometries.
func BuildIndex(root scene.Node, minLeafTriangles int) int {
	indexed := 0
	scene.Walk(root, func(n scene.Node) {
		if g, isGeom := n.(*scene.Geometry); isGeom {
			IndexGeometry(g, minLeafTriangles)
			indexed++
		}
	})
	return indexed
}

// Build the spatial index for a single geometry node.
func IndexGeometry(g *scene.Geometry, minLeafTriangles int) {
	triCount := g.NumTriangles()
	if triCount == 0 {
		g.Index = nil
		g.IndexTriangles = nil
		return
	}

	workList := make([]BoundedVolume, triCount)
	for i := 0; i < triCount; i++ {
		verts := g.Triangle(i)
		workList[i] = &triangle{
			index: uint32(i),
			bbox: [2]types.Vec3{
				types.MinVec3(verts[0], types.MinVec3(verts[1], verts[2])),
				types.MaxVec3(verts[0], types.MaxVec3(verts[1], verts[2])),
			},
			center: verts[0].Add(verts[1]).Add(verts[2]).Mul(1.0 / 3.0),
		}
	}

	order := make([]uint32, 0, triCount)
	leafCb := func(leaf *scene.BvhNode, itemList []BoundedVolume) {
		leaf.SetPrimitives(uint32(len(order)), uint32(len(itemList)))
		for _, item := range itemList {
			order = append(order, item.(*triangle).index)
		}
	}

	g.Index = Build(workList, minLeafTriangles, leafCb, SurfaceAreaHeuristic)
	g.IndexTriangles = order
}
