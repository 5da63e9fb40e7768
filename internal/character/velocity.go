package character

import "github.com/go-gl/mathgl/mgl64"

// MoveFlags selects which parts of the pose the blended velocity drives.
type MoveFlags uint

const (
	MoveTranslate MoveFlags = 1 << iota
	MoveRotate
)

const velocityEpsilon = 1e-9

// SetVelocity replaces the raw movement velocity and the move flags. Both
// persist until the next call.
func (c *Character) SetVelocity(v mgl64.Vec3, flags MoveFlags) {
	c.rawVelocity = v
	c.moveFlags = flags
}

// SetForwardVelocity sets a scalar multiplier along the node's forward axis.
// The axis is read at blend time, so turning the node between the call and
// the next tick changes the resulting world-space direction.
func (c *Character) SetForwardVelocity(speed float64) {
	c.forwardSpeed = speed
}

// SetRightVelocity sets a scalar multiplier along the node's right axis,
// resolved at blend time like SetForwardVelocity.
func (c *Character) SetRightVelocity(speed float64) {
	c.rightSpeed = speed
}

// CurrentVelocity is the blended velocity used by the last (or next) step.
func (c *Character) CurrentVelocity() mgl64.Vec3 { return c.currentVelocity }

// updateCurrentVelocity recomputes the blended velocity: raw velocity plus
// the forward/right scalars resolved against the node's current axes, scaled
// by the movement animation's embedded speed. A unit direction with a
// nonzero anim speed lets the animation set the pace; with no animation
// active the input magnitude is the speed. Either factor at zero keeps the
// character stationary.
func (c *Character) updateCurrentVelocity() {
	v := c.rawVelocity
	if c.forwardSpeed != 0 {
		v = v.Add(c.node.Forward().Mul(c.forwardSpeed))
	}
	if c.rightSpeed != 0 {
		v = v.Add(c.node.Right().Mul(c.rightSpeed))
	}

	c.currentVelocity = mgl64.Vec3{}
	if v.Len() < velocityEpsilon {
		return
	}
	animSpeed := c.movementAnimSpeed()
	if animSpeed == 0 {
		return
	}
	c.currentVelocity = v.Mul(animSpeed)
}
