package sim

// Vector3 is a three-component vector in the simulation frame.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Bounds is an axis-aligned box clipping particle motion and rendering.
type Bounds struct {
	XMin float64 `json:"xMin"`
	XMax float64 `json:"xMax"`
	YMin float64 `json:"yMin"`
	YMax float64 `json:"yMax"`
	ZMin float64 `json:"zMin"`
	ZMax float64 `json:"zMax"`
}

// Valid reports whether every axis interval satisfies min <= max.
func (b Bounds) Valid() bool {
	return b.XMin <= b.XMax && b.YMin <= b.YMax && b.ZMin <= b.ZMax
}

// Contains reports whether p lies inside the box (inclusive).
func (b Bounds) Contains(p Vector3) bool {
	return p.X >= b.XMin && p.X <= b.XMax &&
		p.Y >= b.YMin && p.Y <= b.YMax &&
		p.Z >= b.ZMin && p.Z <= b.ZMax
}

// Clamp returns p moved to the nearest point inside the box.
func (b Bounds) Clamp(p Vector3) Vector3 {
	return Vector3{
		X: clamp(p.X, b.XMin, b.XMax),
		Y: clamp(p.Y, b.YMin, b.YMax),
		Z: clamp(p.Z, b.ZMin, b.ZMax),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
