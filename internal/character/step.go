package character

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/stride/internal/collision"
)

const (
	maxSlideIterations   = 10
	maxPenetrationPasses = 4

	// Fraction of the penetration depth recovered per de-penetration pass.
	// Partial pushes keep corner cases from oscillating between faces.
	penetrationRelax = 0.5

	penetrationEpsilon  = 1e-4
	displacementEpsilon = 1e-9
)

var worldUp = mgl64.Vec3{0, 1, 0}

// UpdateAction is the per-tick entry point, invoked by the collision world
// while it steps its registered actions. It runs the full resolution
// sequence and commits the result to the node.
func (c *Character) UpdateAction(w *collision.World, dt float64) {
	if dt <= 0 {
		return
	}

	c.updateAnimations()
	c.updateCurrentVelocity()

	c.colliding = false

	wasGrounded := c.grounded
	raised := c.stepUp(w)
	c.stepForwardAndStrafe(w, dt)
	c.stepDown(w, dt, raised, wasGrounded)
	c.fixCollision(w)

	c.commit()
}

// stepUp raises the capsule by up to the step height so the horizontal sweep
// clears ledge leading edges. Returns the height actually gained.
//
// The rise is budgeted against the last supported height: while unsupported
// the capsule never gets above stepDatum plus one step height, so a blocked
// ledge cannot be ratcheted up tick by tick.
func (c *Character) stepUp(w *collision.World) float64 {
	if c.maxStepHeight <= 0 {
		return 0
	}
	rise := c.stepDatum + c.maxStepHeight - c.currentPosition.Y()
	if rise <= 0 {
		return 0
	}
	if rise > c.maxStepHeight {
		rise = c.maxStepHeight
	}
	target := c.currentPosition.Add(worldUp.Mul(rise))
	if hit, ok := w.SweepCapsule(c.capsule.Radius, c.capsule.Height, c.currentPosition, target); ok {
		rise *= hit.Fraction
	}
	c.currentPosition = c.currentPosition.Add(worldUp.Mul(rise))
	return rise
}

// stepForwardAndStrafe sweeps the capsule along the blended displacement,
// sliding along contact planes. The iteration budget bounds degenerate
// corners; whatever displacement was achieved when it runs out stands.
func (c *Character) stepForwardAndStrafe(w *collision.World, dt float64) {
	if c.moveFlags&MoveRotate != 0 {
		c.faceVelocity()
	}
	if c.moveFlags&MoveTranslate == 0 {
		return
	}

	move := c.currentVelocity.Mul(dt)
	for i := 0; i < maxSlideIterations; i++ {
		if move.Len() < displacementEpsilon {
			return
		}
		target := c.currentPosition.Add(move)
		hit, ok := w.SweepCapsule(c.capsule.Radius, c.capsule.Height, c.currentPosition, target)
		if !ok {
			c.currentPosition = target
			return
		}

		c.currentPosition = c.currentPosition.Add(move.Mul(hit.Fraction))
		c.colliding = true
		c.collisionNormal = hit.Normal

		// Drop the velocity component pointing into the surface and retry
		// with the tangential remainder.
		normal := c.wallNormal(hit.Normal)
		remaining := move.Mul(1 - hit.Fraction)
		move = remaining.Sub(normal.Mul(remaining.Dot(normal)))
	}
}

// wallNormal flattens a contact normal that is too steep to stand on. A wall
// or ledge lip must deflect motion sideways, never upward, or the slide would
// carry the capsule up surfaces the slope limit forbids. Walkable normals
// pass through so ramps deflect the move along their incline.
func (c *Character) wallNormal(n mgl64.Vec3) mgl64.Vec3 {
	if n.Dot(worldUp) >= c.cosSlopeAngle {
		return n
	}
	flat := n.Sub(worldUp.Mul(n.Dot(worldUp)))
	if flat.Len() < displacementEpsilon {
		// Facing straight up or down (a ceiling): nothing sideways to keep.
		return n
	}
	return flat.Normalize()
}

// faceVelocity snaps the node's yaw to the horizontal movement direction.
func (c *Character) faceVelocity() {
	dx, dz := c.currentVelocity.X(), c.currentVelocity.Z()
	if dx*dx+dz*dz < velocityEpsilon {
		return
	}
	yaw := math.Atan2(-dx, -dz)
	c.targetRotation = mgl64.QuatRotate(yaw, worldUp)
	c.hasTargetRotation = true
}

// stepDown finds the floor below the capsule. The search range covers the
// height gained by stepUp, an extra step height when the character was
// grounded (so it follows stairs and ramps downward), and the vertical
// ballistic displacement for this tick.
func (c *Character) stepDown(w *collision.World, dt float64, raised float64, wasGrounded bool) {
	drop := raised - c.fallVelocity.Y()*dt
	if wasGrounded {
		drop += c.maxStepHeight
	}

	c.grounded = false
	move := worldUp.Mul(-drop)
	hit, ok := w.SweepCapsule(c.capsule.Radius, c.capsule.Height, c.currentPosition, c.currentPosition.Add(move))
	if !ok {
		c.currentPosition = c.currentPosition.Add(move)
		c.fall(dt)
		return
	}

	c.currentPosition = c.currentPosition.Add(move.Mul(hit.Fraction))
	c.colliding = true
	c.collisionNormal = hit.Normal

	if drop < 0 {
		// Moving upward and hit a ceiling: the ascent ends here.
		if c.fallVelocity.Y() > 0 {
			c.fallVelocity = mgl64.Vec3{}
		}
		c.fall(dt)
		return
	}

	if hit.Normal.Dot(worldUp) >= c.cosSlopeAngle {
		c.grounded = true
		c.fallVelocity = mgl64.Vec3{}
		c.stepDatum = c.currentPosition.Y()
		return
	}

	// Too steep to stand on: a wall, not a floor. The character stays at the
	// contact without grounding and keeps accumulating fall velocity; the
	// next ticks' sweeps carry it off the surface.
	c.fall(dt)
}

// fall integrates gravity into the vertical accumulator for an airborne tick.
func (c *Character) fall(dt float64) {
	c.fallVelocity = c.fallVelocity.Sub(worldUp.Mul(c.world.Gravity() * dt))
}

// fixCollision resolves residual interpenetration reported by the overlap
// manifold, pushing the capsule out along contact normals over a bounded
// number of passes. Leftover overlap after the budget is accepted for this
// tick.
func (c *Character) fixCollision(w *collision.World) {
	residual := 0.0
	for pass := 0; pass < maxPenetrationPasses; pass++ {
		c.ghost.SetPosition(c.currentPosition)
		adjusted := false
		residual = 0
		for _, contact := range w.Contacts(c.ghost) {
			if contact.Depth <= penetrationEpsilon {
				continue
			}
			c.currentPosition = c.currentPosition.Add(contact.Normal.Mul(contact.Depth * penetrationRelax))
			c.colliding = true
			c.collisionNormal = contact.Normal
			if contact.Depth > residual {
				residual = contact.Depth
			}
			adjusted = true
		}
		if !adjusted {
			return
		}
	}
	slog.Debug("Penetration not fully recovered this tick",
		"character", c.node.Name(), "residual", residual)
}
