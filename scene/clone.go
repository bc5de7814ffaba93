package scene

import "github.com/achilleasa/lumen/types"

// Create a deep copy of a scene graph. State sets shared inside the source
// graph remain shared inside the copy; nothing is shared between the two graphs.
func Clone(root Node) Node {
	c := cloner{stateSets: make(map[*StateSet]*StateSet)}
	return c.node(root)
}

type cloner struct {
	stateSets map[*StateSet]*StateSet
}

func (c *cloner) node(n Node) Node {
	switch t := n.(type) {
	case *Group:
		out := &Group{
			NodeName: t.NodeName,
			State:    c.stateSet(t.State),
			Children: make([]Node, 0, len(t.Children)),
		}
		for _, child := range t.Children {
			out.Children = append(out.Children, c.node(child))
		}
		return out
	case *Leaf:
		return &Leaf{NodeName: t.NodeName, State: c.stateSet(t.State)}
	case *Geometry:
		out := &Geometry{
			NodeName:       t.NodeName,
			State:          c.stateSet(t.State),
			Vertices:       append([]types.Vec3(nil), t.Vertices...),
			Normals:        append([]types.Vec3(nil), t.Normals...),
			Indices:        append([]uint32(nil), t.Indices...),
			Index:          append([]BvhNode(nil), t.Index...),
			IndexTriangles: append([]uint32(nil), t.IndexTriangles...),
		}
		for _, uv := range t.TexCoords {
			if uv == nil {
				out.TexCoords = append(out.TexCoords, nil)
				continue
			}
			out.TexCoords = append(out.TexCoords, append([]types.Vec2(nil), uv...))
		}
		return out
	}
	return nil
}

func (c *cloner) stateSet(ss *StateSet) *StateSet {
	if ss == nil {
		return nil
	}
	if out, exists := c.stateSets[ss]; exists {
		return out
	}

	out := &StateSet{Attributes: cloneAttributes(ss.Attributes)}
	for _, attrList := range ss.TextureAttributes {
		out.TextureAttributes = append(out.TextureAttributes, cloneAttributes(attrList))
	}
	for _, modeList := range ss.TextureModes {
		var modes ModeList
		if modeList != nil {
			modes = make(ModeList, len(modeList))
			for mode, value := range modeList {
				modes[mode] = value
			}
		}
		out.TextureModes = append(out.TextureModes, modes)
	}
	c.stateSets[ss] = out
	return out
}

func cloneAttributes(in AttributeList) AttributeList {
	if in == nil {
		return nil
	}
	out := make(AttributeList, len(in))
	for typ, attr := range in {
		out[typ] = CloneAttribute(attr)
	}
	return out
}

// Attributes that can produce an independent copy of themselves.
type Cloner interface {
	CloneAttribute() Attribute
}

// Copy an attribute. Attributes that do not implement Cloner are shared.
func CloneAttribute(attr Attribute) Attribute {
	switch t := attr.(type) {
	case *Texture:
		tex := *t
		return &tex
	case *TexEnv:
		env := *t
		return &env
	case *Material:
		mat := *t
		return &mat
	case *Shading:
		sh := *t
		return &sh
	case Cloner:
		return t.CloneAttribute()
	}
	return attr
}
