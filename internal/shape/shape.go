package shape

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type Type int

const (
	TypeBox Type = iota
	TypeSphere
	TypeCapsule
	TypeMesh
	TypeHeightfield
)

func (t Type) String() string {
	switch t {
	case TypeBox:
		return "box"
	case TypeSphere:
		return "sphere"
	case TypeCapsule:
		return "capsule"
	case TypeMesh:
		return "mesh"
	case TypeHeightfield:
		return "heightfield"
	default:
		return fmt.Sprintf("shape.Type(%d)", int(t))
	}
}

// Def is a tagged shape description. Exactly one variant pointer matching Type
// is set; the others stay nil. Defs are consumed once when geometry is added
// to a collision world or a character volume is built, and never mutated after.
type Def struct {
	Type        Type
	Box         *Box
	Sphere      *Sphere
	Capsule     *Capsule
	Mesh        *Mesh
	Heightfield *Heightfield
}

// Box is an axis-aligned box given by its center and half extents.
type Box struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
}

type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

// Capsule is a vertical capsule. Height is the full end-to-end height
// including both hemispherical caps, so the inner segment has half length
// Height/2 - Radius (clamped to zero when Height <= 2*Radius, which
// degenerates to a sphere).
type Capsule struct {
	Center mgl64.Vec3
	Radius float64
	Height float64
}

// HalfSegment returns the half length of the capsule's inner segment.
func (c Capsule) HalfSegment() float64 {
	half := c.Height/2 - c.Radius
	if half < 0 {
		return 0
	}
	return half
}

// Mesh is an indexed triangle list in local coordinates. Every consecutive
// triple in Indices forms one triangle.
type Mesh struct {
	Vertices []mgl64.Vec3
	Indices  []uint32
}

// Heightfield is a regular grid of heights. Origin is the minimum corner;
// sample (row, col) sits at world X = Origin.X + col*CellSize,
// Z = Origin.Z + row*CellSize, Y = Origin.Y + Heights[row*Cols+col].
type Heightfield struct {
	Origin   mgl64.Vec3
	CellSize float64
	Rows     int
	Cols     int
	Heights  []float64
}

func NewBox(center, halfExtents mgl64.Vec3) (Def, error) {
	d := Def{Type: TypeBox, Box: &Box{Center: center, HalfExtents: halfExtents}}
	return d, d.Validate()
}

func NewSphere(center mgl64.Vec3, radius float64) (Def, error) {
	d := Def{Type: TypeSphere, Sphere: &Sphere{Center: center, Radius: radius}}
	return d, d.Validate()
}

func NewCapsule(center mgl64.Vec3, radius, height float64) (Def, error) {
	d := Def{Type: TypeCapsule, Capsule: &Capsule{Center: center, Radius: radius, Height: height}}
	return d, d.Validate()
}

func NewMesh(vertices []mgl64.Vec3, indices []uint32) (Def, error) {
	d := Def{Type: TypeMesh, Mesh: &Mesh{Vertices: vertices, Indices: indices}}
	return d, d.Validate()
}

func NewHeightfield(origin mgl64.Vec3, cellSize float64, rows, cols int, heights []float64) (Def, error) {
	d := Def{Type: TypeHeightfield, Heightfield: &Heightfield{
		Origin:   origin,
		CellSize: cellSize,
		Rows:     rows,
		Cols:     cols,
		Heights:  heights,
	}}
	return d, d.Validate()
}

func (d Def) Validate() error {
	switch d.Type {
	case TypeBox:
		if d.Box == nil {
			return fmt.Errorf("box def has no box data")
		}
		he := d.Box.HalfExtents
		if he.X() <= 0 || he.Y() <= 0 || he.Z() <= 0 {
			return fmt.Errorf("box half extents must be positive, got %v", he)
		}
	case TypeSphere:
		if d.Sphere == nil {
			return fmt.Errorf("sphere def has no sphere data")
		}
		if d.Sphere.Radius <= 0 {
			return fmt.Errorf("sphere radius must be positive, got %v", d.Sphere.Radius)
		}
	case TypeCapsule:
		if d.Capsule == nil {
			return fmt.Errorf("capsule def has no capsule data")
		}
		if d.Capsule.Radius <= 0 {
			return fmt.Errorf("capsule radius must be positive, got %v", d.Capsule.Radius)
		}
		if d.Capsule.Height <= 0 {
			return fmt.Errorf("capsule height must be positive, got %v", d.Capsule.Height)
		}
	case TypeMesh:
		if d.Mesh == nil {
			return fmt.Errorf("mesh def has no mesh data")
		}
		if len(d.Mesh.Indices) == 0 || len(d.Mesh.Indices)%3 != 0 {
			return fmt.Errorf("mesh index count must be a positive multiple of 3, got %d", len(d.Mesh.Indices))
		}
		for _, idx := range d.Mesh.Indices {
			if int(idx) >= len(d.Mesh.Vertices) {
				return fmt.Errorf("mesh index %d out of range (%d vertices)", idx, len(d.Mesh.Vertices))
			}
		}
	case TypeHeightfield:
		hf := d.Heightfield
		if hf == nil {
			return fmt.Errorf("heightfield def has no heightfield data")
		}
		if hf.Rows < 2 || hf.Cols < 2 {
			return fmt.Errorf("heightfield needs at least 2x2 samples, got %dx%d", hf.Rows, hf.Cols)
		}
		if hf.CellSize <= 0 {
			return fmt.Errorf("heightfield cell size must be positive, got %v", hf.CellSize)
		}
		if len(hf.Heights) != hf.Rows*hf.Cols {
			return fmt.Errorf("heightfield has %d samples, want %d", len(hf.Heights), hf.Rows*hf.Cols)
		}
	default:
		return fmt.Errorf("unknown shape type %d", int(d.Type))
	}
	return nil
}
