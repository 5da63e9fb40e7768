package collision

import "github.com/go-gl/mathgl/mgl64"

// pointQuery resolves the closest point on one convex surface to p. It returns
// the surface point, the outward normal there, and the signed distance from p
// to the surface (negative when p is inside the volume).
type pointQuery func(p mgl64.Vec3) (q, n mgl64.Vec3, d float64)

var worldUp = mgl64.Vec3{0, 1, 0}

func closestOnSphere(p, center mgl64.Vec3, radius float64) (mgl64.Vec3, mgl64.Vec3, float64) {
	delta := p.Sub(center)
	dist := delta.Len()
	if dist < 1e-12 {
		// Center hit: any direction works, pick up.
		return center.Add(worldUp.Mul(radius)), worldUp, -radius
	}
	n := delta.Mul(1 / dist)
	return center.Add(n.Mul(radius)), n, dist - radius
}

func closestOnBox(p, min, max mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3, float64) {
	clamped := mgl64.Vec3{
		clamp(p.X(), min.X(), max.X()),
		clamp(p.Y(), min.Y(), max.Y()),
		clamp(p.Z(), min.Z(), max.Z()),
	}
	delta := p.Sub(clamped)
	dist := delta.Len()
	if dist > 1e-12 {
		return clamped, delta.Mul(1 / dist), dist
	}

	// Inside (or exactly on the surface): project to the nearest face.
	bestGap := p.X() - min.X()
	q := mgl64.Vec3{min.X(), p.Y(), p.Z()}
	n := mgl64.Vec3{-1, 0, 0}
	if gap := max.X() - p.X(); gap < bestGap {
		bestGap, q, n = gap, mgl64.Vec3{max.X(), p.Y(), p.Z()}, mgl64.Vec3{1, 0, 0}
	}
	if gap := p.Y() - min.Y(); gap < bestGap {
		bestGap, q, n = gap, mgl64.Vec3{p.X(), min.Y(), p.Z()}, mgl64.Vec3{0, -1, 0}
	}
	if gap := max.Y() - p.Y(); gap < bestGap {
		bestGap, q, n = gap, mgl64.Vec3{p.X(), max.Y(), p.Z()}, mgl64.Vec3{0, 1, 0}
	}
	if gap := p.Z() - min.Z(); gap < bestGap {
		bestGap, q, n = gap, mgl64.Vec3{p.X(), p.Y(), min.Z()}, mgl64.Vec3{0, 0, -1}
	}
	if gap := max.Z() - p.Z(); gap < bestGap {
		bestGap, q, n = gap, mgl64.Vec3{p.X(), p.Y(), max.Z()}, mgl64.Vec3{0, 0, 1}
	}
	return q, n, -bestGap
}

func closestOnSegmentShape(p, a, b mgl64.Vec3, radius float64) (mgl64.Vec3, mgl64.Vec3, float64) {
	axis := closestPointOnSegment(p, a, b)
	return closestOnSphere(p, axis, radius)
}

func closestPointOnSegment(p, a, b mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq < 1e-18 {
		return a
	}
	t := clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	return a.Add(ab.Mul(t))
}

// closestOnTriangle treats the triangle as a two-sided surface: the signed
// distance is always non-negative and the normal points from the surface
// toward p (falling back to the plane normal when p lies on the triangle).
func closestOnTriangle(p, a, b, c mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3, float64) {
	q := closestPointOnTriangle(p, a, b, c)
	delta := p.Sub(q)
	dist := delta.Len()
	if dist > 1e-12 {
		return q, delta.Mul(1 / dist), dist
	}
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Len()
	if l < 1e-18 {
		return q, worldUp, 0
	}
	return q, n.Mul(1 / l), 0
}

// closestPointOnTriangle is the standard Voronoi-region walk.
func closestPointOnTriangle(p, a, b, c mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		t := d1 / (d1 - d3)
		return a.Add(ab.Mul(t))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		t := d2 / (d2 - d6)
		return a.Add(ac.Mul(t))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		t := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(t))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
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

type aabb struct {
	min, max mgl64.Vec3
}

func (b aabb) expand(r float64) aabb {
	d := mgl64.Vec3{r, r, r}
	return aabb{min: b.min.Sub(d), max: b.max.Add(d)}
}

func (b aabb) union(p mgl64.Vec3) aabb {
	return aabb{
		min: mgl64.Vec3{minf(b.min.X(), p.X()), minf(b.min.Y(), p.Y()), minf(b.min.Z(), p.Z())},
		max: mgl64.Vec3{maxf(b.max.X(), p.X()), maxf(b.max.Y(), p.Y()), maxf(b.max.Z(), p.Z())},
	}
}

func (b aabb) overlaps(o aabb) bool {
	return b.min.X() <= o.max.X() && b.max.X() >= o.min.X() &&
		b.min.Y() <= o.max.Y() && b.max.Y() >= o.min.Y() &&
		b.min.Z() <= o.max.Z() && b.max.Z() >= o.min.Z()
}

func aabbOf(points ...mgl64.Vec3) aabb {
	b := aabb{min: points[0], max: points[0]}
	for _, p := range points[1:] {
		b = b.union(p)
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
