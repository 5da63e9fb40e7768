package character

import (
	"errors"
	"testing"
)

func TestCharacter_AddAnimation(t *testing.T) {
	w := newFlatWorld(t, 9.81)
	_, c := newTestCharacter(t, w)

	first := &mockClip{}
	a, err := c.AddAnimation("walk", first, 1.5)
	if err != nil {
		t.Fatalf("add animation: %v", err)
	}
	if a.Name() != "walk" || a.MoveSpeed() != 1.5 || a.Clip() != first {
		t.Errorf("registered animation mismatched: %+v", a)
	}

	if _, err := c.AddAnimation("walk", &mockClip{}, 2); !errors.Is(err, ErrDuplicateAnimation) {
		t.Fatalf("duplicate AddAnimation error = %v, want ErrDuplicateAnimation", err)
	}
	// The original registration survives the rejected duplicate.
	if got := c.Animation("walk"); got == nil || got.Clip() != first {
		t.Errorf("duplicate AddAnimation clobbered the original entry")
	}

	if got := c.Animation("missing"); got != nil {
		t.Errorf("Animation(missing) = %v, want nil", got)
	}
}

func TestCharacter_PlayUnknownAnimation(t *testing.T) {
	w := newFlatWorld(t, 9.81)
	_, c := newTestCharacter(t, w)

	walk := &mockClip{}
	if _, err := c.AddAnimation("walk", walk, 1); err != nil {
		t.Fatalf("add animation: %v", err)
	}
	if err := c.Play("walk", AnimationRepeat, 1, 0, 0); err != nil {
		t.Fatalf("play: %v", err)
	}

	if err := c.Play("sprint", AnimationRepeat, 1, 0, 0); !errors.Is(err, ErrUnknownAnimation) {
		t.Fatalf("Play(unknown) error = %v, want ErrUnknownAnimation", err)
	}
	// The failed play changes nothing on the layer.
	if !walk.playing || walk.stops != 0 {
		t.Errorf("failed play disturbed the active animation")
	}
}

func TestCharacter_PlayPreemptsActive(t *testing.T) {
	w := newFlatWorld(t, 9.81)
	_, c := newTestCharacter(t, w)

	walk, runClip := &mockClip{}, &mockClip{}
	c.AddAnimation("walk", walk, 1)
	c.AddAnimation("run", runClip, 2)

	c.Play("walk", AnimationRepeat, 1, 0, 0)
	c.Play("run", AnimationRepeat, 1, 0, 0)

	if walk.playing || walk.stops != 1 {
		t.Errorf("preempted clip: playing=%v stops=%d, want stopped once", walk.playing, walk.stops)
	}
	if !runClip.playing || !runClip.lastLoop {
		t.Errorf("new clip not playing looped")
	}
	if active := c.layers[0].active; active == nil || active.Name() != "run" {
		t.Errorf("layer active = %v, want run", active)
	}
	if c.Animation("walk").Playing() {
		t.Errorf("preempted animation still reports playing")
	}
}

func TestCharacter_OneShotCompletionGoesIdle(t *testing.T) {
	w := newFlatWorld(t, 9.81)
	_, c := newTestCharacter(t, w)

	jump := &mockClip{}
	c.AddAnimation("jump", jump, 0.5)
	c.Play("jump", AnimationStop, 1, 0, 0)

	jump.finish()
	run(w, 1)

	if c.layers[0].active != nil {
		t.Errorf("layer still active after one-shot completion")
	}
	if c.Animation("jump").Playing() {
		t.Errorf("completed animation still reports playing")
	}
	// Idle movement layer means input drives speed directly again.
	if got := c.movementAnimSpeed(); got != 1 {
		t.Errorf("movementAnimSpeed = %v on idle layer, want 1", got)
	}
}

func TestCharacter_ResumeChainUnwinds(t *testing.T) {
	w := newFlatWorld(t, 9.81)
	_, c := newTestCharacter(t, w)

	idle, wave, point := &mockClip{}, &mockClip{}, &mockClip{}
	c.AddAnimation("idle", idle, 0)
	c.AddAnimation("wave", wave, 0)
	c.AddAnimation("point", point, 0)

	c.Play("idle", AnimationRepeat, 1, 0, 0)
	c.Play("wave", AnimationResume, 1, 0, 0)
	c.Play("point", AnimationResume, 1, 0, 0)

	if active := c.layers[0].active.Name(); active != "point" {
		t.Fatalf("active = %q, want point", active)
	}
	if got := len(c.layers[0].resume); got != 2 {
		t.Fatalf("resume stack depth = %d, want 2", got)
	}

	point.finish()
	run(w, 1)
	if active := c.layers[0].active; active == nil || active.Name() != "wave" {
		t.Fatalf("after point completes, active = %v, want wave", active)
	}
	if wave.plays != 2 {
		t.Errorf("wave plays = %d, want replayed once", wave.plays)
	}

	wave.finish()
	run(w, 1)
	if active := c.layers[0].active; active == nil || active.Name() != "idle" {
		t.Fatalf("after wave completes, active = %v, want idle", active)
	}
	if !idle.lastLoop {
		t.Errorf("idle resumed without its looping flag")
	}
	if got := len(c.layers[0].resume); got != 0 {
		t.Errorf("resume stack depth = %d after unwinding, want 0", got)
	}
}

func TestCharacter_NonResumePlayClearsResumeStack(t *testing.T) {
	w := newFlatWorld(t, 9.81)
	_, c := newTestCharacter(t, w)

	idle, wave, roll := &mockClip{}, &mockClip{}, &mockClip{}
	c.AddAnimation("idle", idle, 0)
	c.AddAnimation("wave", wave, 0)
	c.AddAnimation("roll", roll, 0)

	c.Play("idle", AnimationRepeat, 1, 0, 0)
	c.Play("wave", AnimationResume, 1, 0, 0)
	// A plain play declares a fresh start: nothing comes back afterwards.
	c.Play("roll", AnimationStop, 1, 0, 0)

	if got := len(c.layers[0].resume); got != 0 {
		t.Fatalf("resume stack depth = %d after non-resume play, want 0", got)
	}

	roll.finish()
	run(w, 1)
	if c.layers[0].active != nil {
		t.Errorf("layer resumed %q after a non-resume play completed", c.layers[0].active.Name())
	}
}

func TestCharacter_LayersAreIndependent(t *testing.T) {
	w := newFlatWorld(t, 9.81)
	_, c := newTestCharacter(t, w)

	walk, gesture := &mockClip{}, &mockClip{}
	c.AddAnimation("walk", walk, 1)
	c.AddAnimation("gesture", gesture, 0)

	c.Play("walk", AnimationRepeat, 1, 0, 0)
	c.Play("gesture", AnimationStop, 1, 0, 1)

	if !walk.playing || !gesture.playing {
		t.Fatalf("both layers should be playing")
	}

	gesture.finish()
	run(w, 1)

	if !walk.playing {
		t.Errorf("layer 0 disturbed by layer 1 completion")
	}
	if got := c.layers[1].active; got != nil {
		t.Errorf("layer 1 active = %v after completion, want nil", got)
	}
	if active := c.layers[0].active; active == nil || active.Name() != "walk" {
		t.Errorf("layer 0 active = %v, want walk", active)
	}
}

func TestCharacter_PlayEmptyNameStopsLayer(t *testing.T) {
	w := newFlatWorld(t, 9.81)
	_, c := newTestCharacter(t, w)

	idle, wave := &mockClip{}, &mockClip{}
	c.AddAnimation("idle", idle, 0)
	c.AddAnimation("wave", wave, 0)

	c.Play("idle", AnimationRepeat, 1, 0, 0)
	c.Play("wave", AnimationResume, 1, 0, 0)

	if err := c.Play("", AnimationStop, 1, 0, 0); err != nil {
		t.Fatalf("stop via empty name: %v", err)
	}
	if c.layers[0].active != nil {
		t.Errorf("layer still active after stop")
	}
	if got := len(c.layers[0].resume); got != 0 {
		t.Errorf("resume stack depth = %d after stop, want 0", got)
	}
	if wave.playing {
		t.Errorf("stopped clip still playing")
	}
	if wave.stops == 0 {
		t.Errorf("stopped clip never received Stop")
	}
}

func TestCharacter_PlayClampsSpeed(t *testing.T) {
	w := newFlatWorld(t, 9.81)
	_, c := newTestCharacter(t, w)

	clip := &mockClip{}
	c.AddAnimation("walk", clip, 1)

	c.Play("walk", AnimationRepeat, -3, 0, 0)
	if clip.lastSpeed != 1 {
		t.Errorf("clip speed = %v for non-positive request, want 1", clip.lastSpeed)
	}
}

func TestCharacter_AnimationDefaults(t *testing.T) {
	w := newFlatWorld(t, 9.81)
	_, c := newTestCharacter(t, w)

	a, err := c.AddAnimation("wave", &mockClip{}, 0)
	if err != nil {
		t.Fatalf("add animation: %v", err)
	}

	layer, loop, ok := c.AnimationDefaults("wave")
	if !ok || layer != 0 || loop {
		t.Errorf("fresh defaults = (%d, %t, %t), want (0, false, true)", layer, loop, ok)
	}

	a.SetPlaybackDefaults(2, true)
	layer, loop, ok = c.AnimationDefaults("wave")
	if !ok || layer != 2 || !loop {
		t.Errorf("defaults = (%d, %t, %t) after setting layer 2 looping", layer, loop, ok)
	}
	if a.DefaultLayer() != 2 || !a.Looping() {
		t.Errorf("accessors disagree: layer %d looping %t", a.DefaultLayer(), a.Looping())
	}

	if _, _, ok := c.AnimationDefaults("missing"); ok {
		t.Errorf("defaults reported for an unregistered name")
	}
}
