package character

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/stride/internal/collision"
	"github.com/Versifine/stride/internal/scene"
	"github.com/Versifine/stride/internal/shape"
)

// Config carries the construction parameters for a character. Radius and
// Height describe the capsule volume; Center offsets the volume center from
// the node origin in local space.
type Config struct {
	Radius float64
	Height float64
	Center mgl64.Vec3

	// MaxStepHeight is the tallest ledge the character walks over.
	MaxStepHeight float64
	// MaxSlopeAngle, in degrees within [0, 90), is the steepest surface the
	// character stands on.
	MaxSlopeAngle float64
	// MovementLayer is the animation layer whose active animation
	// contributes its move speed to velocity blending.
	MovementLayer int
}

// Character is a kinematic capsule controller: it integrates a blended
// velocity each tick, sweeps the capsule through the collision world, and
// writes the resolved pose back to its node. The capsule volume and its
// overlap ghost are owned exclusively by the character and released by
// Destroy.
//
// A character is two capabilities wired to its collaborators: a
// collision.Action stepped by the world, and a scene.TransformListener
// resynchronizing after external pose edits.
type Character struct {
	node    *scene.Node
	world   *collision.World
	ghost   *collision.Ghost
	capsule shape.Capsule
	center  mgl64.Vec3

	maxStepHeight float64
	maxSlopeAngle float64
	cosSlopeAngle float64

	rawVelocity     mgl64.Vec3
	forwardSpeed    float64
	rightSpeed      float64
	currentVelocity mgl64.Vec3
	fallVelocity    mgl64.Vec3
	moveFlags       MoveFlags

	colliding       bool
	collisionNormal mgl64.Vec3
	grounded        bool

	// stepDatum is the height of the last supported position. stepUp budgets
	// its rise against it so unsupported ticks cannot stack step heights.
	stepDatum float64

	// currentPosition tracks the capsule volume center. It may diverge from
	// the node briefly within a tick; commit reconciles them.
	currentPosition   mgl64.Vec3
	targetRotation    mgl64.Quat
	hasTargetRotation bool

	// ignoreTransformChanged suppresses the transform listener while the
	// character writes its own pose.
	ignoreTransformChanged int

	movementLayer int
	animations    map[string]*CharacterAnimation
	layers        map[int]*animationLayer
}

var (
	_ collision.Action        = (*Character)(nil)
	_ scene.TransformListener = (*Character)(nil)
)

// New validates cfg, registers the capsule ghost with the world, subscribes
// to the node's transform changes, and registers the character as a world
// action.
func New(node *scene.Node, world *collision.World, cfg Config) (*Character, error) {
	if node == nil {
		return nil, fmt.Errorf("character needs a node")
	}
	if world == nil {
		return nil, fmt.Errorf("character needs a collision world")
	}
	capsule, err := shape.NewCapsule(mgl64.Vec3{}, cfg.Radius, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("character %q: %w", node.Name(), err)
	}
	if cfg.MaxStepHeight < 0 {
		return nil, fmt.Errorf("character %q: max step height must not be negative, got %v", node.Name(), cfg.MaxStepHeight)
	}
	if cfg.MaxSlopeAngle < 0 || cfg.MaxSlopeAngle >= 90 {
		return nil, fmt.Errorf("character %q: max slope angle must be in [0, 90), got %v", node.Name(), cfg.MaxSlopeAngle)
	}

	c := &Character{
		node:          node,
		world:         world,
		capsule:       *capsule.Capsule,
		center:        cfg.Center,
		maxStepHeight: cfg.MaxStepHeight,
		moveFlags:     MoveTranslate | MoveRotate,
		movementLayer: cfg.MovementLayer,
		animations:    make(map[string]*CharacterAnimation),
		layers:        make(map[int]*animationLayer),
	}
	c.setSlopeAngle(cfg.MaxSlopeAngle)
	c.currentPosition = c.volumeCenter()
	c.stepDatum = c.currentPosition.Y()
	c.ghost = world.RegisterGhost(cfg.Radius, cfg.Height, c.currentPosition)
	node.AddListener(c)
	world.AddAction(c)
	return c, nil
}

// Destroy releases the ghost and unhooks the character from its
// collaborators. The character must not be used afterwards.
func (c *Character) Destroy() {
	c.world.RemoveAction(c)
	c.node.RemoveListener(c)
	c.world.DeregisterGhost(c.ghost)
	c.ghost = nil
}

func (c *Character) Node() *scene.Node { return c.node }

// Position is the tracked capsule volume center.
func (c *Character) Position() mgl64.Vec3 { return c.currentPosition }

func (c *Character) Grounded() bool { return c.grounded }

func (c *Character) Colliding() bool { return c.colliding }

// CollisionNormal is the most recent contact normal observed during
// resolution. Only meaningful while Colliding reports true.
func (c *Character) CollisionNormal() mgl64.Vec3 { return c.collisionNormal }

func (c *Character) MaxStepHeight() float64 { return c.maxStepHeight }

func (c *Character) SetMaxStepHeight(h float64) {
	if h < 0 {
		h = 0
	}
	c.maxStepHeight = h
}

func (c *Character) MaxSlopeAngle() float64 { return c.maxSlopeAngle }

// SetMaxSlopeAngle sets the slope limit in degrees and refreshes the cached
// cosine used by the per-tick floor classification.
func (c *Character) SetMaxSlopeAngle(degrees float64) {
	if degrees < 0 {
		degrees = 0
	}
	if degrees >= 90 {
		degrees = math.Nextafter(90, 0)
	}
	c.setSlopeAngle(degrees)
}

func (c *Character) setSlopeAngle(degrees float64) {
	c.maxSlopeAngle = degrees
	c.cosSlopeAngle = math.Cos(degrees * math.Pi / 180)
}

// Jump seeds the vertical accumulator so the following ticks trace a
// ballistic arc peaking at the given height under the world's gravity.
func (c *Character) Jump(height float64) {
	if height <= 0 {
		return
	}
	v := math.Sqrt(2 * c.world.Gravity() * height)
	c.fallVelocity = mgl64.Vec3{c.fallVelocity.X(), v, c.fallVelocity.Z()}
	c.grounded = false
}

// FallVelocity is the accumulated vertical velocity (positive up).
func (c *Character) FallVelocity() mgl64.Vec3 { return c.fallVelocity }

// TransformChanged resynchronizes the tracked position and the overlap ghost
// after an external pose edit. Writes performed by the character itself are
// suppressed by the reentrancy guard so its own commit cannot feed back.
func (c *Character) TransformChanged(_ *scene.Node) {
	if c.ignoreTransformChanged > 0 {
		return
	}
	c.currentPosition = c.volumeCenter()
	c.stepDatum = c.currentPosition.Y()
	if c.ghost != nil {
		c.ghost.SetPosition(c.currentPosition)
	}
}

// commit writes the resolved pose to the node under the reentrancy guard and
// realigns the ghost.
func (c *Character) commit() {
	rotation := c.node.Rotation()
	if c.hasTargetRotation {
		rotation = c.targetRotation
		c.hasTargetRotation = false
	}
	position := c.currentPosition.Sub(rotation.Rotate(c.center))

	c.ignoreTransformChanged++
	c.node.SetPose(position, rotation)
	c.ignoreTransformChanged--

	c.ghost.SetPosition(c.currentPosition)
}

// volumeCenter derives the capsule volume center from the node's pose.
func (c *Character) volumeCenter() mgl64.Vec3 {
	return c.node.Position().Add(c.node.Rotation().Rotate(c.center))
}
