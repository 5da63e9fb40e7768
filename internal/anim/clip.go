package anim

import "time"

// Clip is the playback-engine side of an animation. The character controller
// only issues play/stop commands and polls Playing; it never samples curves.
type Clip interface {
	// Play starts (or restarts) the clip at the given speed multiplier,
	// cross-fading in over blend. A looping clip runs until stopped.
	Play(speed float64, blend time.Duration, loop bool)
	// Stop fades the clip out over blend.
	Stop(blend time.Duration)
	// Playing reports whether the clip still contributes output. A one-shot
	// clip stops reporting true once it has run its full length.
	Playing() bool
}

// TimedClip is a minimal Clip driven by explicit time advancement instead of
// a real sampling engine. The demo binary and tests tick it alongside the
// simulation; blend durations are honored only as fade bookkeeping.
type TimedClip struct {
	name    string
	length  time.Duration
	speed   float64
	elapsed time.Duration
	loop    bool
	playing bool
	fading  time.Duration
}

func NewTimedClip(name string, length time.Duration) *TimedClip {
	return &TimedClip{name: name, length: length, speed: 1}
}

func (c *TimedClip) Name() string { return c.name }

func (c *TimedClip) Length() time.Duration { return c.length }

func (c *TimedClip) Play(speed float64, blend time.Duration, loop bool) {
	if speed <= 0 {
		speed = 1
	}
	c.speed = speed
	c.loop = loop
	c.elapsed = 0
	c.fading = 0
	c.playing = true
	_ = blend // fade-in has no observable effect on a timed clip
}

func (c *TimedClip) Stop(blend time.Duration) {
	if !c.playing {
		return
	}
	if blend <= 0 {
		c.playing = false
		return
	}
	c.fading = blend
}

func (c *TimedClip) Playing() bool { return c.playing }

// Elapsed returns how far the clip has advanced into its current run.
func (c *TimedClip) Elapsed() time.Duration { return c.elapsed }

// Advance moves the clip forward by dt of wall/simulation time, applying the
// playback speed. One-shot clips stop at their length; fading clips stop when
// the fade-out completes.
func (c *TimedClip) Advance(dt time.Duration) {
	if !c.playing || dt <= 0 {
		return
	}
	if c.fading > 0 {
		if dt >= c.fading {
			c.fading = 0
			c.playing = false
			return
		}
		c.fading -= dt
	}
	c.elapsed += time.Duration(float64(dt) * c.speed)
	if c.loop {
		for c.length > 0 && c.elapsed >= c.length {
			c.elapsed -= c.length
		}
		return
	}
	if c.elapsed >= c.length {
		c.elapsed = c.length
		c.playing = false
	}
}
