package collision

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/stride/internal/shape"
)

// Hit is the first contact found by a sweep: the fraction of the motion
// consumed before the contact and the surface normal pointing back at the
// swept volume.
type Hit struct {
	Fraction float64
	Normal   mgl64.Vec3
	Point    mgl64.Vec3
}

// Contact is one manifold point of an overlap query. Normal points out of the
// static geometry, Depth is how far the ghost volume penetrates along it.
type Contact struct {
	Point  mgl64.Vec3
	Normal mgl64.Vec3
	Depth  float64
}

// Action is stepped by the world once per simulation tick, after the caller
// advances whatever else it simulates. Controllers register themselves as
// actions rather than being driven directly.
type Action interface {
	UpdateAction(w *World, dt float64)
}

// Body is a piece of static world geometry.
type Body struct {
	name     string
	def      shape.Def
	position mgl64.Vec3
}

func (b *Body) Name() string { return b.name }

// Ghost is a registered capsule overlap-query proxy. The world keeps the
// manifold cache from the most recent Contacts call on the ghost itself.
type Ghost struct {
	radius   float64
	height   float64
	position mgl64.Vec3
	contacts []Contact
}

func (g *Ghost) Position() mgl64.Vec3     { return g.position }
func (g *Ghost) SetPosition(p mgl64.Vec3) { g.position = p }

// World holds static geometry and answers capsule sweeps and overlap queries
// for registered ghosts. All methods are synchronous and single-threaded,
// called from the simulation tick.
type World struct {
	gravity float64
	bodies  []*Body
	ghosts  []*Ghost
	actions []Action
}

func NewWorld(gravity float64) *World {
	if gravity < 0 {
		gravity = -gravity
	}
	return &World{gravity: gravity}
}

// Gravity returns the downward gravity magnitude.
func (w *World) Gravity() float64 { return w.gravity }

func (w *World) SetGravity(g float64) {
	if g < 0 {
		g = -g
	}
	w.gravity = g
}

func (w *World) AddBody(name string, def shape.Def, position mgl64.Vec3) (*Body, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("add body %q: %w", name, err)
	}
	b := &Body{name: name, def: def, position: position}
	w.bodies = append(w.bodies, b)
	slog.Debug("Added static body", "name", name, "shape", def.Type.String())
	return b, nil
}

// RegisterGhost adds a capsule overlap proxy at the given volume center.
func (w *World) RegisterGhost(radius, height float64, position mgl64.Vec3) *Ghost {
	g := &Ghost{radius: radius, height: height, position: position}
	w.ghosts = append(w.ghosts, g)
	return g
}

func (w *World) DeregisterGhost(g *Ghost) {
	for i, cur := range w.ghosts {
		if cur == g {
			w.ghosts = append(w.ghosts[:i], w.ghosts[i+1:]...)
			return
		}
	}
}

func (w *World) AddAction(a Action) {
	if a == nil {
		return
	}
	w.actions = append(w.actions, a)
}

func (w *World) RemoveAction(a Action) {
	for i, cur := range w.actions {
		if cur == a {
			w.actions = append(w.actions[:i], w.actions[i+1:]...)
			return
		}
	}
}

// Step advances every registered action by dt seconds.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for _, a := range w.actions {
		a.UpdateAction(w, dt)
	}
}

// SweepCapsule sweeps a vertical capsule (volume center moving from "from" to
// "to") against all static geometry and returns the nearest contact.
func (w *World) SweepCapsule(radius, height float64, from, to mgl64.Vec3) (Hit, bool) {
	a, b := capsuleSegment(from, radius, height)
	move := to.Sub(from)

	region := aabbOf(a, b, a.Add(move), b.Add(move)).expand(radius + contactSkin)

	best := Hit{Fraction: 2}
	found := false
	for _, body := range w.bodies {
		for _, query := range body.queries(region) {
			hit, ok := sweepPiece(a, b, radius, move, query)
			if ok && hit.Fraction < best.Fraction {
				best = hit
				found = true
			}
		}
	}
	if !found {
		return Hit{}, false
	}
	return best, true
}

// Contacts recomputes and returns the overlap manifold for a registered
// ghost. The result is cached on the ghost until the next call.
func (w *World) Contacts(g *Ghost) []Contact {
	if g == nil {
		return nil
	}
	a, b := capsuleSegment(g.position, g.radius, g.height)
	region := aabbOf(a, b).expand(g.radius + contactSkin)

	g.contacts = g.contacts[:0]
	for _, body := range w.bodies {
		for _, query := range body.queries(region) {
			if c, ok := pieceContact(a, b, g.radius, query); ok {
				g.contacts = append(g.contacts, c)
			}
		}
	}
	return g.contacts
}

func capsuleSegment(center mgl64.Vec3, radius, height float64) (mgl64.Vec3, mgl64.Vec3) {
	half := height/2 - radius
	if half < 0 {
		half = 0
	}
	offset := mgl64.Vec3{0, half, 0}
	return center.Sub(offset), center.Add(offset)
}

// queries returns one point query per convex piece of the body that could
// matter inside region. Boxes, spheres and capsules are single pieces;
// meshes and heightfields contribute their triangles.
func (b *Body) queries(region aabb) []pointQuery {
	var out []pointQuery
	switch b.def.Type {
	case shape.TypeBox:
		box := b.def.Box
		min := b.position.Add(box.Center).Sub(box.HalfExtents)
		max := b.position.Add(box.Center).Add(box.HalfExtents)
		if !region.overlaps(aabb{min: min, max: max}) {
			return nil
		}
		out = append(out, func(p mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3, float64) {
			return closestOnBox(p, min, max)
		})
	case shape.TypeSphere:
		s := b.def.Sphere
		center := b.position.Add(s.Center)
		bounds := aabb{min: center, max: center}.expand(s.Radius)
		if !region.overlaps(bounds) {
			return nil
		}
		out = append(out, func(p mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3, float64) {
			return closestOnSphere(p, center, s.Radius)
		})
	case shape.TypeCapsule:
		c := b.def.Capsule
		sa, sb := capsuleSegment(b.position.Add(c.Center), c.Radius, c.Height)
		bounds := aabbOf(sa, sb).expand(c.Radius)
		if !region.overlaps(bounds) {
			return nil
		}
		out = append(out, func(p mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3, float64) {
			return closestOnSegmentShape(p, sa, sb, c.Radius)
		})
	case shape.TypeMesh:
		m := b.def.Mesh
		for i := 0; i+2 < len(m.Indices); i += 3 {
			ta := b.position.Add(m.Vertices[m.Indices[i]])
			tb := b.position.Add(m.Vertices[m.Indices[i+1]])
			tc := b.position.Add(m.Vertices[m.Indices[i+2]])
			if !region.overlaps(aabbOf(ta, tb, tc)) {
				continue
			}
			out = append(out, triangleQuery(ta, tb, tc))
		}
	case shape.TypeHeightfield:
		out = b.heightfieldQueries(region, out)
	}
	return out
}

func (b *Body) heightfieldQueries(region aabb, out []pointQuery) []pointQuery {
	hf := b.def.Heightfield
	origin := b.position.Add(hf.Origin)

	colLo := int((region.min.X() - origin.X()) / hf.CellSize)
	colHi := int((region.max.X()-origin.X())/hf.CellSize) + 1
	rowLo := int((region.min.Z() - origin.Z()) / hf.CellSize)
	rowHi := int((region.max.Z()-origin.Z())/hf.CellSize) + 1
	colLo, colHi = clampi(colLo, 0, hf.Cols-2), clampi(colHi, 0, hf.Cols-2)
	rowLo, rowHi = clampi(rowLo, 0, hf.Rows-2), clampi(rowHi, 0, hf.Rows-2)

	sample := func(row, col int) mgl64.Vec3 {
		return mgl64.Vec3{
			origin.X() + float64(col)*hf.CellSize,
			origin.Y() + hf.Heights[row*hf.Cols+col],
			origin.Z() + float64(row)*hf.CellSize,
		}
	}

	for row := rowLo; row <= rowHi; row++ {
		for col := colLo; col <= colHi; col++ {
			p00 := sample(row, col)
			p01 := sample(row, col+1)
			p10 := sample(row+1, col)
			p11 := sample(row+1, col+1)
			if !region.overlaps(aabbOf(p00, p01, p10, p11)) {
				continue
			}
			out = append(out, triangleQuery(p00, p01, p10))
			out = append(out, triangleQuery(p11, p10, p01))
		}
	}
	return out
}

func triangleQuery(a, b, c mgl64.Vec3) pointQuery {
	return func(p mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3, float64) {
		return closestOnTriangle(p, a, b, c)
	}
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
