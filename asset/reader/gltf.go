package reader

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/lumen/asset"
	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/types"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

const texCoordPrefix = "TEXCOORD_"

type gltfSceneReader struct {
	logger log.Logger

	doc *gltf.Document

	// One state set per glTF material, shared by all primitives that use it.
	stateSets map[int]*scene.StateSet

	// Used by primitives without a material.
	defaultState *scene.StateSet

	numGeometries int
}

// Create a new glTF 2.0 reader. Both the json (.gltf) and the binary (.glb)
// containers are supported.
func newGltfReader() *gltfSceneReader {
	return &gltfSceneReader{
		logger:    log.New("gltf reader"),
		stateSets: make(map[int]*scene.StateSet),
	}
}

// Read scene definition.
func (r *gltfSceneReader) Read(sceneRes *asset.Resource) (*scene.Group, error) {
	r.logger.Infof(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	// External buffers and images resolve against the model directory.
	var dec *gltf.Decoder
	if sceneRes.IsRemote() {
		dec = gltf.NewDecoder(sceneRes)
	} else {
		dec = gltf.NewDecoderFS(sceneRes, os.DirFS(sceneRes.Dir()))
	}

	r.doc = new(gltf.Document)
	if err := dec.Decode(r.doc); err != nil {
		return nil, fmt.Errorf("gltf reader: could not decode %q: %w", sceneRes.Path(), err)
	}

	root := scene.NewGroup("root")
	for _, nodeIndex := range r.rootNodes() {
		node, err := r.convertNode(nodeIndex, 0)
		if err != nil {
			return nil, err
		}
		root.AddChild(node)
	}

	if r.numGeometries == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyScene, sceneRes.Path())
	}

	r.logger.Infof("parsed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return root, nil
}

// Get the top-level nodes of the default scene. Documents without scenes
// expose all of their nodes that are not referenced as children.
func (r *gltfSceneReader) rootNodes() []int {
	if len(r.doc.Scenes) != 0 {
		sceneIndex := 0
		if r.doc.Scene != nil && *r.doc.Scene < len(r.doc.Scenes) {
			sceneIndex = *r.doc.Scene
		}
		return r.doc.Scenes[sceneIndex].Nodes
	}

	isChild := make(map[int]bool)
	for _, n := range r.doc.Nodes {
		for _, child := range n.Children {
			isChild[child] = true
		}
	}
	roots := make([]int, 0)
	for index := range r.doc.Nodes {
		if !isChild[index] {
			roots = append(roots, index)
		}
	}
	return roots
}

// Convert a glTF node. Nodes with neither a mesh nor children become leafs.
func (r *gltfSceneReader) convertNode(index, depth int) (scene.Node, error) {
	if index < 0 || index >= len(r.doc.Nodes) {
		return nil, fmt.Errorf("gltf reader: node index %d out of bounds", index)
	}
	if depth > len(r.doc.Nodes) {
		return nil, fmt.Errorf("gltf reader: cycle detected at node %d", index)
	}

	src := r.doc.Nodes[index]
	name := src.Name
	if name == "" {
		name = "node" + strconv.Itoa(index)
	}

	if src.Mesh == nil && len(src.Children) == 0 {
		return &scene.Leaf{NodeName: name}, nil
	}

	group := scene.NewGroup(name)
	if src.Mesh != nil {
		geoms, err := r.convertMesh(*src.Mesh)
		if err != nil {
			return nil, err
		}
		for _, g := range geoms {
			group.AddChild(g)
		}
	}
	for _, child := range src.Children {
		node, err := r.convertNode(child, depth+1)
		if err != nil {
			return nil, err
		}
		group.AddChild(node)
	}
	return group, nil
}

// Convert each triangle primitive of a mesh into a geometry node.
func (r *gltfSceneReader) convertMesh(index int) ([]*scene.Geometry, error) {
	if index < 0 || index >= len(r.doc.Meshes) {
		return nil, fmt.Errorf("gltf reader: mesh index %d out of bounds", index)
	}

	mesh := r.doc.Meshes[index]
	out := make([]*scene.Geometry, 0, len(mesh.Primitives))
	for primIndex, prim := range mesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			r.logger.Warningf(`skipping primitive %d of mesh "%s": only triangle lists are supported`, primIndex, mesh.Name)
			continue
		}

		g, err := r.convertPrimitive(prim)
		if err != nil {
			return nil, fmt.Errorf("gltf reader: mesh %q primitive %d: %w", mesh.Name, primIndex, err)
		}
		g.NodeName = mesh.Name
		if len(mesh.Primitives) > 1 {
			g.NodeName = fmt.Sprintf("%s.%d", mesh.Name, primIndex)
		}
		out = append(out, g)
		r.numGeometries++
	}
	return out, nil
}

func (r *gltfSceneReader) convertPrimitive(prim *gltf.Primitive) (*scene.Geometry, error) {
	posIndex, hasPos := prim.Attributes[gltf.POSITION]
	if !hasPos {
		return nil, fmt.Errorf("missing %s attribute", gltf.POSITION)
	}

	positions, err := modeler.ReadPosition(r.doc, r.doc.Accessors[posIndex], nil)
	if err != nil {
		return nil, err
	}

	g := scene.NewGeometry("")
	g.Vertices = make([]types.Vec3, len(positions))
	for i, p := range positions {
		g.Vertices[i] = types.Vec3{p[0], p[1], p[2]}
	}

	if prim.Indices != nil {
		g.Indices, err = modeler.ReadIndices(r.doc, r.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, err
		}
	} else {
		g.Indices = make([]uint32, len(g.Vertices))
		for i := range g.Indices {
			g.Indices[i] = uint32(i)
		}
	}
	for _, vIndex := range g.Indices {
		if int(vIndex) >= len(g.Vertices) {
			return nil, fmt.Errorf("vertex index %d out of bounds", vIndex)
		}
	}

	if normIndex, hasNormals := prim.Attributes[gltf.NORMAL]; hasNormals {
		normals, err := modeler.ReadNormal(r.doc, r.doc.Accessors[normIndex], nil)
		if err != nil {
			return nil, err
		}
		g.Normals = make([]types.Vec3, len(normals))
		for i, n := range normals {
			g.Normals[i] = types.Vec3{n[0], n[1], n[2]}
		}
	}

	// TEXCOORD_n is bound to texture unit n.
	for attrName, accIndex := range prim.Attributes {
		if !strings.HasPrefix(attrName, texCoordPrefix) {
			continue
		}
		unit, err := strconv.Atoi(strings.TrimPrefix(attrName, texCoordPrefix))
		if err != nil || unit < 0 {
			continue
		}

		coords, err := modeler.ReadTextureCoord(r.doc, r.doc.Accessors[accIndex], nil)
		if err != nil {
			return nil, err
		}
		uv := make([]types.Vec2, len(coords))
		for i, c := range coords {
			uv[i] = types.Vec2{c[0], c[1]}
		}
		g.SetTexCoordArray(unit, uv)
	}

	g.SetStateSet(r.materialState(prim.Material))
	return g, nil
}

// Get (building it on first use) the state set for a glTF material.
func (r *gltfSceneReader) materialState(matIndex *int) *scene.StateSet {
	if matIndex == nil || *matIndex < 0 || *matIndex >= len(r.doc.Materials) {
		if r.defaultState == nil {
			r.defaultState = scene.NewStateSet()
			r.defaultState.SetAttribute(&scene.Material{Diffuse: types.Vec3{0.7, 0.7, 0.7}})
		}
		return r.defaultState
	}

	if ss, exists := r.stateSets[*matIndex]; exists {
		return ss
	}

	src := r.doc.Materials[*matIndex]
	mat := &scene.Material{
		Name:     src.Name,
		Diffuse:  types.Vec3{1, 1, 1},
		Emissive: types.Vec3{float32(src.EmissiveFactor[0]), float32(src.EmissiveFactor[1]), float32(src.EmissiveFactor[2])},
	}

	ss := scene.NewStateSet()
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			f := *pbr.BaseColorFactor
			mat.Diffuse = types.Vec3{float32(f[0]), float32(f[1]), float32(f[2])}
		}
		if info := pbr.BaseColorTexture; info != nil {
			if image := r.textureImage(info.Index); image != "" {
				ss.SetTextureAttributeAndModes(int(info.TexCoord), scene.NewTexture(image), scene.ValueOn)
			}
		}
	}
	ss.SetAttribute(mat)

	r.stateSets[*matIndex] = ss
	return ss
}

// Resolve the image reference of a texture. Embedded images are named after
// their index.
func (r *gltfSceneReader) textureImage(texIndex int) string {
	if texIndex < 0 || texIndex >= len(r.doc.Textures) {
		return ""
	}
	tex := r.doc.Textures[texIndex]
	if tex.Source == nil || *tex.Source < 0 || *tex.Source >= len(r.doc.Images) {
		return ""
	}

	img := r.doc.Images[*tex.Source]
	switch {
	case img.URI != "" && !img.IsEmbeddedResource():
		return img.URI
	case img.Name != "":
		return img.Name
	}
	return "image" + strconv.Itoa(*tex.Source)
}
