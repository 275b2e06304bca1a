package localize

import (
	"fmt"

	"amcl-go/gridmap"
	"amcl-go/pose"
)

// Region is an axis-aligned bounding box in world coordinates.
type Region struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether (x, y) falls within the region's bounds.
func (r Region) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// mapLayer pairs a named map with the world-coordinate bounds it covers, for
// buildings where a single robot's localizer swaps between one map per
// floor as it crosses stairwells or elevators.
type mapLayer struct {
	name   string
	bounds Region
	field  gridmap.Field
}

// MapSet manages the named maps available to a Loop and selects among them
// by bounding-box containment, the same bounds-check a multi-floor overlay
// uses to decide which floor a fused position belongs to.
type MapSet struct {
	layers  []mapLayer
	current string
}

// NewMapSet builds an empty registry.
func NewMapSet() *MapSet {
	return &MapSet{}
}

// AddLayer registers a named map covering bounds.
func (s *MapSet) AddLayer(name string, bounds Region, field gridmap.Field) {
	s.layers = append(s.layers, mapLayer{name: name, bounds: bounds, field: field})
}

// LayerAt returns the name of the layer whose bounds contain p, if any.
func (s *MapSet) LayerAt(p pose.Vector) (string, bool) {
	for _, l := range s.layers {
		if l.bounds.Contains(p.X, p.Y) {
			return l.name, true
		}
	}
	return "", false
}

// SelectFor swaps loop's map to whichever registered layer contains p, if it
// differs from the currently active layer. It returns the layer name that
// ended up active, or an error if p falls outside every registered layer.
func (s *MapSet) SelectFor(loop *Loop, p pose.Vector) (string, error) {
	name, ok := s.LayerAt(p)
	if !ok {
		return "", fmt.Errorf("localize: pose (%.2f, %.2f) is outside every registered map layer", p.X, p.Y)
	}
	if name == s.current {
		return name, nil
	}
	for _, l := range s.layers {
		if l.name == name {
			loop.ReplaceMap(l.field)
			s.current = name
			return name, nil
		}
	}
	return "", fmt.Errorf("localize: layer %q vanished from registry", name)
}

// Current returns the name of the currently active layer, if any has been
// selected yet.
func (s *MapSet) Current() (string, bool) {
	return s.current, s.current != ""
}
