package character

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Versifine/stride/internal/anim"
)

var (
	ErrDuplicateAnimation = errors.New("animation already registered")
	ErrUnknownAnimation   = errors.New("unknown animation")
)

// AnimationFlags controls how Play runs a clip.
type AnimationFlags int

const (
	// AnimationStop plays once; the layer goes idle on completion.
	AnimationStop AnimationFlags = iota
	// AnimationResume plays once; on completion the animation that was
	// active on the layer when Play was called resumes.
	AnimationResume
	// AnimationRepeat loops until another Play replaces it.
	AnimationRepeat
)

// CharacterAnimation is one registered animation: the clip it drives, the
// movement speed it embeds, and its playback bookkeeping.
type CharacterAnimation struct {
	name      string
	clip      anim.Clip
	moveSpeed float64

	// Playback defaults, used when a caller plays by name without choosing
	// a layer or loop mode.
	defaultLayer int
	loop         bool

	layer   int
	playing bool
	flags   AnimationFlags
	speed   float64
	blend   time.Duration
}

func (a *CharacterAnimation) Name() string { return a.name }

func (a *CharacterAnimation) Clip() anim.Clip { return a.clip }

func (a *CharacterAnimation) MoveSpeed() float64 { return a.moveSpeed }

func (a *CharacterAnimation) Playing() bool { return a.playing }

// SetPlaybackDefaults records the layer the animation belongs to and whether
// it loops, for callers that play by name alone.
func (a *CharacterAnimation) SetPlaybackDefaults(layer int, loop bool) {
	a.defaultLayer = layer
	a.loop = loop
}

func (a *CharacterAnimation) DefaultLayer() int { return a.defaultLayer }

func (a *CharacterAnimation) Looping() bool { return a.loop }

// animationLayer holds the single active animation for one layer plus the
// stack of preempted animations waiting to resume. Each Play with
// AnimationResume pushes one entry; each natural completion pops one.
type animationLayer struct {
	active *CharacterAnimation
	resume []*CharacterAnimation
}

// AddAnimation registers a named animation. Re-registering a name is a
// configuration error; the existing entry is left untouched.
func (c *Character) AddAnimation(name string, clip anim.Clip, moveSpeed float64) (*CharacterAnimation, error) {
	if name == "" {
		return nil, fmt.Errorf("animation name must not be empty")
	}
	if clip == nil {
		return nil, fmt.Errorf("animation %q has no clip", name)
	}
	if _, exists := c.animations[name]; exists {
		return nil, fmt.Errorf("add animation %q: %w", name, ErrDuplicateAnimation)
	}
	a := &CharacterAnimation{name: name, clip: clip, moveSpeed: moveSpeed, speed: 1}
	c.animations[name] = a
	return a, nil
}

// Animation looks up a registered animation. A missing name returns nil; it
// is not an error.
func (c *Character) Animation(name string) *CharacterAnimation {
	return c.animations[name]
}

// AnimationDefaults reports the registered playback defaults for name. ok is
// false for an unregistered name.
func (c *Character) AnimationDefaults(name string) (layer int, loop bool, ok bool) {
	a, found := c.animations[name]
	if !found {
		return 0, false, false
	}
	return a.defaultLayer, a.loop, true
}

// Play starts the named animation on the given layer, preempting whatever is
// active there with a cross-fade over blend. An empty name stops the layer.
// speed <= 0 plays at normal speed. Playing an unregistered name returns
// ErrUnknownAnimation and changes nothing.
func (c *Character) Play(name string, flags AnimationFlags, speed float64, blend time.Duration, layer int) error {
	if name == "" {
		c.stopLayer(layer, blend)
		return nil
	}
	a, ok := c.animations[name]
	if !ok {
		slog.Warn("Play of unregistered animation ignored", "character", c.node.Name(), "animation", name)
		return fmt.Errorf("play %q: %w", name, ErrUnknownAnimation)
	}
	if speed <= 0 {
		speed = 1
	}

	l := c.layer(layer)
	prev := l.active
	if prev != nil && prev != a {
		prev.clip.Stop(blend)
		prev.playing = false
		if flags == AnimationResume {
			l.resume = append(l.resume, prev)
		} else {
			// A non-resuming play defines the layer's future on its own.
			l.resume = l.resume[:0]
		}
	}

	a.layer = layer
	a.flags = flags
	a.speed = speed
	a.blend = blend
	a.playing = true
	l.active = a
	a.clip.Play(speed, blend, flags == AnimationRepeat)
	return nil
}

func (c *Character) stopLayer(layer int, blend time.Duration) {
	l, ok := c.layers[layer]
	if !ok {
		return
	}
	if l.active != nil {
		l.active.clip.Stop(blend)
		l.active.playing = false
		l.active = nil
	}
	l.resume = l.resume[:0]
}

func (c *Character) layer(id int) *animationLayer {
	l, ok := c.layers[id]
	if !ok {
		l = &animationLayer{}
		c.layers[id] = l
	}
	return l
}

// updateAnimations polls for one-shot completions and unwinds the resume
// stack one link per completion.
func (c *Character) updateAnimations() {
	for _, l := range c.layers {
		a := l.active
		if a == nil || !a.playing || a.flags == AnimationRepeat {
			continue
		}
		if a.clip.Playing() {
			continue
		}
		a.playing = false
		l.active = nil
		if a.flags != AnimationResume || len(l.resume) == 0 {
			continue
		}
		prev := l.resume[len(l.resume)-1]
		l.resume = l.resume[:len(l.resume)-1]
		prev.playing = true
		l.active = prev
		prev.clip.Play(prev.speed, prev.blend, prev.flags == AnimationRepeat)
	}
}

// movementAnimSpeed is the contribution of the movement layer to the blended
// velocity: the active animation's move speed, or 1 when the layer is idle so
// raw input drives the character directly.
func (c *Character) movementAnimSpeed() float64 {
	l, ok := c.layers[c.movementLayer]
	if !ok || l.active == nil || !l.active.playing {
		return 1
	}
	return l.active.moveSpeed
}
