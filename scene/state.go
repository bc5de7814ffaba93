package scene

import "github.com/achilleasa/lumen/types"

// The type of a state attribute.
type AttributeType uint8

const (
	AttributeTexture AttributeType = iota
	AttributeTexEnv
	AttributeMaterial
	AttributeShading
)

// A rendering state attribute.
type Attribute interface {
	Type() AttributeType
}

// Fixed function modes that can be toggled per texture unit.
type Mode uint32

const (
	ModeTexture1D Mode = iota + 1
	ModeTexture2D
	ModeTexture3D
	ModeTextureCubeMap
)

// A mode value is a bitmask of the following flags.
type ModeValue uint32

const (
	ValueOff       ModeValue = 0
	ValueOn        ModeValue = 1 << 0
	ValueOverride  ModeValue = 1 << 1
	ValueProtected ModeValue = 1 << 2
	ValueInherit   ModeValue = 1 << 3
)

// Texture filtering.
type Filter uint8

const (
	FilterLinear Filter = iota
	FilterNearest
	FilterLinearMipmapLinear
)

// Texture wrapping.
type Wrap uint8

const (
	WrapRepeat Wrap = iota
	WrapClampToEdge
	WrapMirroredRepeat
)

// A texture bound to a texture unit.
type Texture struct {
	// Path to the image relative to the model file.
	Image string

	MinFilter Filter
	MagFilter Filter
	WrapS     Wrap
	WrapT     Wrap

	// Maximum anisotropic filtering level; 1 disables anisotropic filtering.
	MaxAnisotropy float32

	// Image dimensions; zero until the image header has been read.
	Width  uint32
	Height uint32
}

// Create a texture with default sampling settings.
func NewTexture(image string) *Texture {
	return &Texture{
		Image:         image,
		MinFilter:     FilterLinearMipmapLinear,
		MagFilter:     FilterLinear,
		MaxAnisotropy: 1.0,
	}
}

func (t *Texture) Type() AttributeType { return AttributeTexture }

// Texture environment combine modes.
type TexEnvMode uint8

const (
	TexEnvModulate TexEnvMode = iota
	TexEnvReplace
	TexEnvDecal
	TexEnvBlend
)

// A texture environment controls how a texture unit blends with the incoming fragment.
type TexEnv struct {
	Mode TexEnvMode
}

func (t *TexEnv) Type() AttributeType { return AttributeTexEnv }

// Surface material colors.
type Material struct {
	Name      string
	Diffuse   types.Vec3
	Specular  types.Vec3
	Emissive  types.Vec3
	Shininess float32
}

func (m *Material) Type() AttributeType { return AttributeMaterial }

// Shading selects the lighting model and shadow technique used to render a subtree.
type Shading struct {
	Model   string
	Shadows string
}

func (s *Shading) Type() AttributeType { return AttributeShading }

// Per texture unit attribute and mode lists.
type AttributeList map[AttributeType]Attribute
type ModeList map[Mode]ModeValue

// A StateSet groups the rendering state applied to a node subtree.
type StateSet struct {
	// Non-texture attributes.
	Attributes AttributeList

	// Texture attributes and modes indexed by texture unit.
	TextureAttributes []AttributeList
	TextureModes      []ModeList
}

// Create an empty state set.
func NewStateSet() *StateSet {
	return &StateSet{Attributes: make(AttributeList)}
}

// Set a non-texture attribute.
func (ss *StateSet) SetAttribute(attr Attribute) {
	if ss.Attributes == nil {
		ss.Attributes = make(AttributeList)
	}
	ss.Attributes[attr.Type()] = attr
}

// Get a non-texture attribute or nil.
func (ss *StateSet) Attribute(typ AttributeType) Attribute {
	return ss.Attributes[typ]
}

// Bind a texture attribute to a unit.
func (ss *StateSet) SetTextureAttribute(unit int, attr Attribute) {
	for len(ss.TextureAttributes) <= unit {
		ss.TextureAttributes = append(ss.TextureAttributes, nil)
	}
	if ss.TextureAttributes[unit] == nil {
		ss.TextureAttributes[unit] = make(AttributeList)
	}
	ss.TextureAttributes[unit][attr.Type()] = attr
}

// Get the texture attribute of the given type bound to unit or nil.
func (ss *StateSet) TextureAttribute(unit int, typ AttributeType) Attribute {
	if unit < 0 || unit >= len(ss.TextureAttributes) {
		return nil
	}
	return ss.TextureAttributes[unit][typ]
}

// Set a texture mode for a unit.
func (ss *StateSet) SetTextureMode(unit int, mode Mode, value ModeValue) {
	for len(ss.TextureModes) <= unit {
		ss.TextureModes = append(ss.TextureModes, nil)
	}
	if ss.TextureModes[unit] == nil {
		ss.TextureModes[unit] = make(ModeList)
	}
	ss.TextureModes[unit][mode] = value
}

// Get a texture mode for a unit. The second return value is false if the
// mode is not set for that unit.
func (ss *StateSet) TextureMode(unit int, mode Mode) (ModeValue, bool) {
	if unit < 0 || unit >= len(ss.TextureModes) {
		return ValueOff, false
	}
	value, found := ss.TextureModes[unit][mode]
	return value, found
}

// Bind a texture to a unit and enable 2D texturing for it.
func (ss *StateSet) SetTextureAttributeAndModes(unit int, tex *Texture, value ModeValue) {
	ss.SetTextureAttribute(unit, tex)
	ss.SetTextureMode(unit, ModeTexture2D, value)
}

// Get the number of texture units referenced by attributes or modes.
func (ss *StateSet) NumTextureUnits() int {
	if len(ss.TextureModes) > len(ss.TextureAttributes) {
		return len(ss.TextureModes)
	}
	return len(ss.TextureAttributes)
}
