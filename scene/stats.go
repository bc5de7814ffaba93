package scene

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/olekukonko/tablewriter"
)

// Scene graph counters.
type Counters struct {
	Groups     int
	Leafs      int
	Geometries int
	Triangles  int
	StateSets  int
	Textures   int
	BvhNodes   int

	vertexBytes float32
	indexBytes  float32
	uvBytes     float32
	bvhBytes    float32
}

// Count the elements of a scene graph.
func Count(root Node) Counters {
	var c Counters
	Walk(root, func(n Node) {
		switch t := n.(type) {
		case *Group:
			c.Groups++
		case *Leaf:
			c.Leafs++
		case *Geometry:
			c.Geometries++
			c.Triangles += t.NumTriangles()
			c.BvhNodes += len(t.Index)
			c.vertexBytes += sizeOf(t.Vertices) + sizeOf(t.Normals)
			c.indexBytes += sizeOf(t.Indices) + sizeOf(t.IndexTriangles)
			c.bvhBytes += sizeOf(t.Index)
			for _, uv := range t.TexCoords {
				c.uvBytes += sizeOf(uv)
			}
		}
	})
	Traverse(root, StateSetFunc(func(ss *StateSet) {
		c.StateSets++
		for _, attrList := range ss.TextureAttributes {
			if _, isTex := attrList[AttributeTexture].(*Texture); isTex {
				c.Textures++
			}
		}
	}))
	return c
}

// Build a tabular representation of scene statistics.
func Stats(root Node) string {
	c := Count(root)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Element", "Count", "Size"})
	table.Append([]string{"Groups", fmt.Sprint(c.Groups), ""})
	table.Append([]string{"Leafs", fmt.Sprint(c.Leafs), ""})
	table.Append([]string{"Geometries", fmt.Sprint(c.Geometries), fmtSize(c.vertexBytes)})
	table.Append([]string{"Triangles", fmt.Sprint(c.Triangles), fmtSize(c.indexBytes)})
	table.Append([]string{"Tex. coords", "", fmtSize(c.uvBytes)})
	table.Append([]string{"BVH nodes", fmt.Sprint(c.BvhNodes), fmtSize(c.bvhBytes)})
	table.Append([]string{"State sets", fmt.Sprint(c.StateSets), ""})
	table.Append([]string{"Textures", fmt.Sprint(c.Textures), ""})
	table.SetFooter([]string{"Total", " ", fmtSize(c.vertexBytes + c.indexBytes + c.uvBytes + c.bvhBytes)})

	table.Render()
	return buf.String()
}

// Get the number of bytes used by a slice.
func sizeOf(item interface{}) float32 {
	v := reflect.ValueOf(item)
	if v.Len() == 0 {
		return 0
	}
	return float32(int(v.Type().Elem().Size()) * v.Len())
}

// Format a byte count with the appropriate byte/kb/mb unit.
func fmtSize(totalBytes float32) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
