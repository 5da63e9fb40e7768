package scene

import "github.com/go-gl/mathgl/mgl64"

// TransformListener receives a callback after a node's pose changes.
// Listeners run synchronously on the caller's goroutine.
type TransformListener interface {
	TransformChanged(n *Node)
}

// Node is an externally-owned transform: anything may reposition it (scripts,
// animation, a controller), and every write notifies the registered listeners.
type Node struct {
	name      string
	position  mgl64.Vec3
	rotation  mgl64.Quat
	listeners []TransformListener
}

func NewNode(name string) *Node {
	return &Node{name: name, rotation: mgl64.QuatIdent()}
}

func (n *Node) Name() string { return n.name }

func (n *Node) Position() mgl64.Vec3 { return n.position }

func (n *Node) Rotation() mgl64.Quat { return n.rotation }

// Forward is the node's facing direction, -Z in local space.
func (n *Node) Forward() mgl64.Vec3 {
	return n.rotation.Rotate(mgl64.Vec3{0, 0, -1})
}

// Right is the node's +X axis in world space.
func (n *Node) Right() mgl64.Vec3 {
	return n.rotation.Rotate(mgl64.Vec3{1, 0, 0})
}

func (n *Node) SetPosition(p mgl64.Vec3) {
	n.position = p
	n.notify()
}

func (n *Node) SetRotation(q mgl64.Quat) {
	n.rotation = q
	n.notify()
}

// SetPose updates position and rotation with a single notification.
func (n *Node) SetPose(p mgl64.Vec3, q mgl64.Quat) {
	n.position = p
	n.rotation = q
	n.notify()
}

func (n *Node) AddListener(l TransformListener) {
	if l == nil {
		return
	}
	n.listeners = append(n.listeners, l)
}

func (n *Node) RemoveListener(l TransformListener) {
	for i, cur := range n.listeners {
		if cur == l {
			n.listeners = append(n.listeners[:i], n.listeners[i+1:]...)
			return
		}
	}
}

func (n *Node) notify() {
	for _, l := range n.listeners {
		l.TransformChanged(n)
	}
}
