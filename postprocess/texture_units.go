package postprocess

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/lumen/scene"
	"github.com/olekukonko/tablewriter"
)

// TextureUnitUsage accumulates, per texture unit, whether the unit appears
// in any state set, whether a texture attribute is bound to it and whether
// 2D texturing is enabled for it. Once set, a flag is never cleared by a
// later state set.
type TextureUnitUsage struct {
	Present         []bool
	AttributesFound []bool
	ModeEnabled     []bool
}

func grow(flags []bool, size int) []bool {
	for len(flags) < size {
		flags = append(flags, false)
	}
	return flags
}

func mark(flags *[]bool, unit int, set bool) {
	*flags = grow(*flags, unit+1)
	if set {
		(*flags)[unit] = true
	}
}

func (u *TextureUnitUsage) VisitStateSet(ss *scene.StateSet) {
	for unit, attrList := range ss.TextureAttributes {
		found := false
		for _, attr := range attrList {
			if attr != nil {
				found = true
				break
			}
		}
		mark(&u.AttributesFound, unit, found)
		mark(&u.Present, unit, len(attrList) != 0)
	}

	for unit, modeList := range ss.TextureModes {
		value, found := modeList[scene.ModeTexture2D]
		mark(&u.ModeEnabled, unit, found && value&scene.ValueOn != 0)
		mark(&u.Present, unit, len(modeList) != 0)
	}
}

// Number of texture unit slots referenced by any state set.
func (u *TextureUnitUsage) NumUnits() int {
	return len(u.Present)
}

// Number of units that carry at least one attribute or mode.
func (u *TextureUnitUsage) NumPresent() int {
	count := 0
	for _, present := range u.Present {
		if present {
			count++
		}
	}
	return count
}

// Returns true if 2D texturing is enabled for unit.
func (u *TextureUnitUsage) Enabled(unit int) bool {
	return unit < len(u.ModeEnabled) && u.ModeEnabled[unit]
}

// Returns true if a texture attribute is bound to unit.
func (u *TextureUnitUsage) Bound(unit int) bool {
	return unit < len(u.AttributesFound) && u.AttributesFound[unit]
}

// Returns true if content bound to texture unit 1 should be moved to unit
// 0: at least two units carry attributes or modes while 2D texturing is not
// enabled on unit 0.
func (u *TextureUnitUsage) NeedsRemediation() bool {
	return u.NumPresent() >= 2 && !u.Enabled(0)
}

// Build a tabular representation of the usage report.
func (u *TextureUnitUsage) String() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Unit", "Present", "Attributes", "2D mode"})
	for unit := 0; unit < u.NumUnits(); unit++ {
		table.Append([]string{fmt.Sprint(unit), fmt.Sprint(u.Present[unit]), fmt.Sprint(u.Bound(unit)), fmt.Sprint(u.Enabled(unit))})
	}
	table.Render()
	return buf.String()
}

// Analyze texture unit usage across the graph.
func AnalyzeTextureUnits(root scene.Node) *TextureUnitUsage {
	usage := &TextureUnitUsage{}
	scene.Traverse(root, usage)
	return usage
}

// TextureUnitMover relocates the attributes, modes and texture coordinate
// arrays of one texture unit to another, clearing the source unit.
type TextureUnitMover struct {
	From int
	To   int
}

func (m *TextureUnitMover) VisitStateSet(ss *scene.StateSet) {
	if m.From < len(ss.TextureAttributes) {
		attrs := ss.TextureAttributes[m.From]
		ss.TextureAttributes[m.From] = nil
		for len(ss.TextureAttributes) <= m.To {
			ss.TextureAttributes = append(ss.TextureAttributes, nil)
		}
		ss.TextureAttributes[m.To] = attrs
	}

	if m.From < len(ss.TextureModes) {
		modes := ss.TextureModes[m.From]
		ss.TextureModes[m.From] = nil
		for len(ss.TextureModes) <= m.To {
			ss.TextureModes = append(ss.TextureModes, nil)
		}
		ss.TextureModes[m.To] = modes
	}
}

func (m *TextureUnitMover) VisitGeometry(g *scene.Geometry) {
	coords := g.TexCoordArray(m.From)
	g.SetTexCoordArray(m.From, nil)
	g.SetTexCoordArray(m.To, coords)
}

// Move texture unit from to unit to across the graph.
func MoveTextureUnit(root scene.Node, from, to int) {
	scene.Traverse(root, &TextureUnitMover{From: from, To: to})
}
