// internal/models/resources.go
package models

import (
	"encoding/json"
	"fmt"
)

// ResourceType is one of the five tradeable resources.
type ResourceType int

const (
	Wood ResourceType = iota
	Clay
	Sheep
	Wheat
	Ore
)

// ResourceTypes lists every resource type in the fixed cyclic order used for stealing.
var ResourceTypes = [5]ResourceType{Wood, Clay, Sheep, Wheat, Ore}

var resourceNames = [5]string{"wood", "clay", "sheep", "wheat", "ore"}

// String returns the wire name of the resource.
func (r ResourceType) String() string {
	if r < Wood || r > Ore {
		return "unknown"
	}
	return resourceNames[r]
}

// Valid reports whether r is one of the five resource types.
func (r ResourceType) Valid() bool {
	return r >= Wood && r <= Ore
}

// ParseResourceType maps a wire name back to its type.
func ParseResourceType(s string) (ResourceType, error) {
	for i, n := range resourceNames {
		if n == s {
			return ResourceType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown resource type %q", s)
}

func (r ResourceType) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *ResourceType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseResourceType(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Resources is an exact bundle of resource units.
type Resources struct {
	Wood  int `json:"wood"`
	Clay  int `json:"clay"`
	Sheep int `json:"sheep"`
	Wheat int `json:"wheat"`
	Ore   int `json:"ore"`
}

// NewResources builds a bundle holding n of every type.
func NewResources(n int) Resources {
	return Resources{Wood: n, Clay: n, Sheep: n, Wheat: n, Ore: n}
}

// Single builds a bundle holding n units of one type.
func Single(t ResourceType, n int) Resources {
	var r Resources
	r.Set(t, n)
	return r
}

// Get returns the count of a type.
func (r Resources) Get(t ResourceType) int {
	switch t {
	case Wood:
		return r.Wood
	case Clay:
		return r.Clay
	case Sheep:
		return r.Sheep
	case Wheat:
		return r.Wheat
	case Ore:
		return r.Ore
	}
	return 0
}

// Set overwrites the count of a type.
func (r *Resources) Set(t ResourceType, n int) {
	switch t {
	case Wood:
		r.Wood = n
	case Clay:
		r.Clay = n
	case Sheep:
		r.Sheep = n
	case Wheat:
		r.Wheat = n
	case Ore:
		r.Ore = n
	}
}

// Total is the aggregate number of units, the only figure disclosed to non-owners.
func (r Resources) Total() int {
	return r.Wood + r.Clay + r.Sheep + r.Wheat + r.Ore
}

// IsEmpty reports whether the bundle holds nothing.
func (r Resources) IsEmpty() bool {
	return r.Total() == 0
}

// Add returns r + o.
func (r Resources) Add(o Resources) Resources {
	return Resources{
		Wood:  r.Wood + o.Wood,
		Clay:  r.Clay + o.Clay,
		Sheep: r.Sheep + o.Sheep,
		Wheat: r.Wheat + o.Wheat,
		Ore:   r.Ore + o.Ore,
	}
}

// Sub returns r - o. Callers check Covers first.
func (r Resources) Sub(o Resources) Resources {
	return Resources{
		Wood:  r.Wood - o.Wood,
		Clay:  r.Clay - o.Clay,
		Sheep: r.Sheep - o.Sheep,
		Wheat: r.Wheat - o.Wheat,
		Ore:   r.Ore - o.Ore,
	}
}

// Covers reports whether r holds at least o of every type.
func (r Resources) Covers(o Resources) bool {
	for _, t := range ResourceTypes {
		if r.Get(t) < o.Get(t) {
			return false
		}
	}
	return true
}

// HasNegative reports whether any counter is below zero.
func (r Resources) HasNegative() bool {
	for _, t := range ResourceTypes {
		if r.Get(t) < 0 {
			return true
		}
	}
	return false
}

// Overlaps reports whether some type is present in both bundles.
func (r Resources) Overlaps(o Resources) bool {
	for _, t := range ResourceTypes {
		if r.Get(t) > 0 && o.Get(t) > 0 {
			return true
		}
	}
	return false
}

// Min returns the per-type minimum of r and o.
func (r Resources) Min(o Resources) Resources {
	var out Resources
	for _, t := range ResourceTypes {
		out.Set(t, min(r.Get(t), o.Get(t)))
	}
	return out
}

// ResourceView is what goes on the wire: either exact counters or only a hidden total.
type ResourceView struct {
	Wood   *int `json:"wood,omitempty"`
	Clay   *int `json:"clay,omitempty"`
	Sheep  *int `json:"sheep,omitempty"`
	Wheat  *int `json:"wheat,omitempty"`
	Ore    *int `json:"ore,omitempty"`
	Hidden *int `json:"hidden,omitempty"`
}

// Exact is the owner's view.
func (r Resources) Exact() *ResourceView {
	w, c, s, wh, o := r.Wood, r.Clay, r.Sheep, r.Wheat, r.Ore
	return &ResourceView{Wood: &w, Clay: &c, Sheep: &s, Wheat: &wh, Ore: &o}
}

// Hidden is everybody else's view.
func (r Resources) Hidden() *ResourceView {
	t := r.Total()
	return &ResourceView{Hidden: &t}
}

// IsHidden reports whether only the total is disclosed.
func (v *ResourceView) IsHidden() bool {
	return v != nil && v.Hidden != nil && v.Wood == nil && v.Clay == nil && v.Sheep == nil && v.Wheat == nil && v.Ore == nil
}
