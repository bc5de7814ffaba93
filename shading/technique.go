package shading

import (
	"fmt"
	"strings"
)

// Technique selects the shadow algorithm used by the shaded scene.
type Technique uint8

const (
	ShadowVolumes Technique = iota
	ShadowMap
	SoftShadowMap
	MinimalShadowMap
	LightSpacePerspectiveViewBounds
	LightSpacePerspectiveCullBounds
	LightSpacePerspectiveDrawBounds
	NoShadows
)

var techniqueNames = []string{"sv", "sm", "ssm", "msm", "lspsmvb", "lspsmcb", "lspsmdb", "none"}

func (t Technique) String() string {
	if int(t) < len(techniqueNames) {
		return techniqueNames[t]
	}
	return fmt.Sprintf("technique(%d)", t)
}

// Parse a technique name.
func ParseTechnique(name string) (Technique, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for index, techniqueName := range techniqueNames {
		if name == techniqueName {
			return Technique(index), nil
		}
	}
	return NoShadows, fmt.Errorf("shading: unknown shadow technique %q; supported techniques: %s", name, strings.Join(techniqueNames, ", "))
}

// Get the list of technique names.
func TechniqueNames() []string {
	return append([]string(nil), techniqueNames...)
}

// Implements encoding.TextUnmarshaler so techniques can be read from config files.
func (t *Technique) UnmarshalText(text []byte) error {
	parsed, err := ParseTechnique(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Implements encoding.TextMarshaler.
func (t Technique) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
