package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

type recordingListener struct {
	calls int
	last  mgl64.Vec3
}

func (r *recordingListener) TransformChanged(n *Node) {
	r.calls++
	r.last = n.Position()
}

func approxVec(t *testing.T, got, want mgl64.Vec3, tol float64, field string) {
	t.Helper()
	if got.Sub(want).Len() > tol {
		t.Fatalf("%s = %v, want %v (tol=%v)", field, got, want, tol)
	}
}

func TestNode_ListenerNotifiedOnWrites(t *testing.T) {
	n := NewNode("player")
	l := &recordingListener{}
	n.AddListener(l)

	n.SetPosition(mgl64.Vec3{1, 2, 3})
	if l.calls != 1 {
		t.Fatalf("calls = %d, want 1", l.calls)
	}
	approxVec(t, l.last, mgl64.Vec3{1, 2, 3}, 1e-12, "listener position")

	n.SetPose(mgl64.Vec3{4, 5, 6}, mgl64.QuatIdent())
	if l.calls != 2 {
		t.Fatalf("calls = %d, want 2 (SetPose must notify once)", l.calls)
	}

	n.RemoveListener(l)
	n.SetPosition(mgl64.Vec3{})
	if l.calls != 2 {
		t.Fatalf("calls = %d after removal, want 2", l.calls)
	}
}

func TestNode_ForwardAndRightFollowRotation(t *testing.T) {
	n := NewNode("player")

	approxVec(t, n.Forward(), mgl64.Vec3{0, 0, -1}, 1e-12, "forward")
	approxVec(t, n.Right(), mgl64.Vec3{1, 0, 0}, 1e-12, "right")

	// Quarter turn to the left about world up: forward becomes -X.
	n.SetRotation(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}))
	approxVec(t, n.Forward(), mgl64.Vec3{-1, 0, 0}, 1e-9, "forward after yaw")
	approxVec(t, n.Right(), mgl64.Vec3{0, 0, -1}, 1e-9, "right after yaw")
}
