package collision

import "github.com/go-gl/mathgl/mgl64"

const (
	// contactSkin is the gap at which a sweep reports contact. The swept
	// volume is never advanced closer than this, so a follow-up sweep from
	// the stop position starts with a usable non-zero gap.
	contactSkin = 1e-3

	sweepEpsilon = 1e-9

	// grazeTolerance dismisses contacts whose normal is near-perpendicular
	// to the motion. It must sit well above float noise: normals computed at
	// box corners carry errors around 1e-8, and a vertical sweep brushing a
	// ledge edge must read as a graze, not a head-on hit that pins the
	// capsule in place. Motion closing slower than this can never consume
	// the contact skin within a sweep anyway.
	grazeTolerance = 1e-6

	maxAdvanceIterations = 32
	ternarySearchRounds  = 48
)

// segmentClosest finds the point of the segment [a,b] nearest to the surface
// described by query. The signed distance from a point to a convex volume is
// convex along the segment, so a ternary search converges on the minimum.
func segmentClosest(a, b mgl64.Vec3, query pointQuery) (q, n mgl64.Vec3, d float64) {
	lo, hi := 0.0, 1.0
	for i := 0; i < ternarySearchRounds; i++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		_, _, d1 := query(lerp(a, b, m1))
		_, _, d2 := query(lerp(a, b, m2))
		if d1 < d2 {
			hi = m2
		} else {
			lo = m1
		}
	}
	return query(lerp(a, b, (lo+hi)/2))
}

// sweepPiece moves a capsule (inner segment [a,b], given radius) along move
// and reports the first contact with one convex piece. Conservative
// advancement: each round steps forward by the current clearance, which can
// never overshoot a translating contact, so tunneling is impossible.
//
// A piece only blocks while the motion points into its contact normal;
// touching or grazing motion tangent to the surface passes.
func sweepPiece(a, b mgl64.Vec3, radius float64, move mgl64.Vec3, query pointQuery) (Hit, bool) {
	total := move.Len()
	if total < sweepEpsilon {
		return Hit{}, false
	}
	dir := move.Mul(1 / total)

	traveled := 0.0
	var lastQ, lastN mgl64.Vec3
	for i := 0; i < maxAdvanceIterations; i++ {
		offset := dir.Mul(traveled)
		q, n, d := segmentClosest(a.Add(offset), b.Add(offset), query)
		gap := d - radius
		// The clearance is convex along the motion, so once the direction
		// stops pointing into the normal it can never shrink again: the
		// piece is missed, whether grazing at skin distance or receding.
		if dir.Dot(n) >= -grazeTolerance {
			return Hit{}, false
		}
		if gap <= contactSkin {
			return Hit{Fraction: traveled / total, Normal: n, Point: q}, true
		}
		lastQ, lastN = q, n
		// Stop short of the surface by half the skin so the stop position
		// keeps a usable clearance.
		traveled += gap - contactSkin/2
		if traveled >= total {
			return Hit{}, false
		}
	}
	// Clearance kept shrinking without reaching the skin (grazing approach).
	// Report contact at the deepest position reached.
	return Hit{Fraction: traveled / total, Normal: lastN, Point: lastQ}, true
}

// pieceContact reports the overlap between a capsule and one convex piece.
func pieceContact(a, b mgl64.Vec3, radius float64, query pointQuery) (Contact, bool) {
	q, n, d := segmentClosest(a, b, query)
	depth := radius - d
	if depth <= 0 {
		return Contact{}, false
	}
	return Contact{Point: q, Normal: n, Depth: depth}, true
}

func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
