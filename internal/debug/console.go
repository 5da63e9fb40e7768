package debug

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/term"

	"github.com/Versifine/stride/internal/character"
	"github.com/Versifine/stride/internal/scene"
)

const (
	defaultTickInterval = time.Second / 60
	defaultMovePulse    = 180 * time.Millisecond
	defaultWalkSpeed    = 2.0
	defaultJumpHeight   = 1.0
)

// Pawn is the slice of the character surface the console drives.
type Pawn interface {
	SetForwardVelocity(speed float64)
	SetRightVelocity(speed float64)
	Jump(height float64)
	Play(name string, flags character.AnimationFlags, speed float64, blend time.Duration, layer int) error
	AnimationDefaults(name string) (layer int, loop bool, ok bool)
	Node() *scene.Node
	Position() mgl64.Vec3
	FallVelocity() mgl64.Vec3
	Grounded() bool
	Colliding() bool
	MaxStepHeight() float64
	SetMaxStepHeight(h float64)
	MaxSlopeAngle() float64
	SetMaxSlopeAngle(degrees float64)
}

// Console runs an interactive raw-terminal session around a simulation
// tick: W/S/A/D pulse movement, Space jumps, and a ':' command line pokes
// at the character's tunables.
type Console struct {
	pawn Pawn
	// step advances the world and any clips by dt.
	step         func(dt float64)
	tickInterval time.Duration
	movePulse    time.Duration

	mu            sync.Mutex
	walkSpeed     float64
	forwardUntil  time.Time
	backwardUntil time.Time
	leftUntil     time.Time
	rightUntil    time.Time
	commandMode   bool
	commandBuf    []rune
	statusWidth   int
	// pending holds character mutations queued by the input goroutine. The
	// tick goroutine owns all character state; commands run between steps.
	pending []func()
}

func NewConsole(pawn Pawn, step func(dt float64)) *Console {
	return &Console{
		pawn:         pawn,
		step:         step,
		tickInterval: defaultTickInterval,
		movePulse:    defaultMovePulse,
		walkSpeed:    defaultWalkSpeed,
	}
}

func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("console is nil")
	}
	if c.pawn == nil {
		return fmt.Errorf("console pawn is nil")
	}
	if c.step == nil {
		return fmt.Errorf("console step function is nil")
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set terminal raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Print("\r\n")
	}()

	fmt.Print("[debug] console started (W/A/S/D pulse, Space jump, X stop, : commands)\r\n")
	c.renderStatusLine()

	go c.tickLoop(ctx)

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read console input: %w", err)
		}
		c.handleKey(b)
	}
}

func (c *Console) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick()
			c.renderStatusLine()
		}
	}
}

// tick runs one simulation step: queued commands first, then the movement
// axes, then the world.
func (c *Console) tick() {
	for _, f := range c.drainPending() {
		f()
	}
	forward, right := c.currentAxes()
	c.pawn.SetForwardVelocity(forward)
	c.pawn.SetRightVelocity(right)
	c.step(c.tickInterval.Seconds())
}

// enqueue defers a character mutation to the start of the next tick.
func (c *Console) enqueue(f func()) {
	c.mu.Lock()
	c.pending = append(c.pending, f)
	c.mu.Unlock()
}

func (c *Console) drainPending() []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil
	}
	drained := c.pending
	c.pending = nil
	return drained
}

// currentAxes folds the active movement pulses into forward/right scalars.
func (c *Console) currentAxes() (forward, right float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if !c.forwardUntil.IsZero() && now.Before(c.forwardUntil) {
		forward += c.walkSpeed
	}
	if !c.backwardUntil.IsZero() && now.Before(c.backwardUntil) {
		forward -= c.walkSpeed
	}
	if !c.rightUntil.IsZero() && now.Before(c.rightUntil) {
		right += c.walkSpeed
	}
	if !c.leftUntil.IsZero() && now.Before(c.leftUntil) {
		right -= c.walkSpeed
	}
	return forward, right
}

func (c *Console) handleKey(b byte) {
	if c.isCommandMode() {
		c.handleCommandByte(b)
		return
	}

	switch b {
	case ':':
		c.enterCommandMode()
	case 'w', 'W':
		c.pulse(&c.forwardUntil, &c.backwardUntil)
	case 's', 'S':
		c.pulse(&c.backwardUntil, &c.forwardUntil)
	case 'a', 'A':
		c.pulse(&c.leftUntil, &c.rightUntil)
	case 'd', 'D':
		c.pulse(&c.rightUntil, &c.leftUntil)
	case ' ':
		c.enqueue(func() { c.pawn.Jump(defaultJumpHeight) })
	case 'x', 'X':
		c.clearInput()
	}
}

// pulse arms one movement direction for a short burst and disarms its
// opposite.
func (c *Console) pulse(dir, opposite *time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*dir = time.Now().Add(c.movePulse)
	*opposite = time.Time{}
}

func (c *Console) clearInput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forwardUntil = time.Time{}
	c.backwardUntil = time.Time{}
	c.leftUntil = time.Time{}
	c.rightUntil = time.Time{}
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	fmt.Print("\r\n:")
}

func (c *Console) handleCommandByte(b byte) {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		fmt.Print("\r\n")
		if cmd != "" {
			c.executeCommand(cmd)
		}
		c.renderStatusLine()
	case 27: // ESC cancels command mode
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		fmt.Print("\r\n[debug] command cancelled\r\n")
		c.renderStatusLine()
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Printf("\r:%s ", buf)
		fmt.Printf("\r:%s", buf)
	default:
		if b < 32 || b > 126 {
			return
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Printf("\r:%s", buf)
	}
}

func (c *Console) executeCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "help":
		c.printHelp()
	case "state":
		pos := c.pawn.Position()
		fall := c.pawn.FallVelocity()
		fmt.Printf("[debug] pos=(%.3f,%.3f,%.3f) fall=%.3f grounded=%t colliding=%t step=%.2f slope=%.1f\r\n",
			pos.X(), pos.Y(), pos.Z(), fall.Y(),
			c.pawn.Grounded(), c.pawn.Colliding(),
			c.pawn.MaxStepHeight(), c.pawn.MaxSlopeAngle())
	case "tp":
		if len(parts) != 4 {
			fmt.Print("[debug] usage: :tp <x> <y> <z>\r\n")
			return
		}
		x, err1 := strconv.ParseFloat(parts[1], 64)
		y, err2 := strconv.ParseFloat(parts[2], 64)
		z, err3 := strconv.ParseFloat(parts[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			fmt.Print("[debug] invalid tp args\r\n")
			return
		}
		// Set through the node so the teleport takes the same path as any
		// external pose edit.
		c.enqueue(func() { c.pawn.Node().SetPosition(mgl64.Vec3{x, y, z}) })
		fmt.Printf("[debug] teleported to (%.3f, %.3f, %.3f)\r\n", x, y, z)
	case "jump":
		height := defaultJumpHeight
		if len(parts) == 2 {
			h, err := strconv.ParseFloat(parts[1], 64)
			if err != nil || h <= 0 {
				fmt.Print("[debug] invalid jump height\r\n")
				return
			}
			height = h
		}
		c.enqueue(func() { c.pawn.Jump(height) })
	case "step":
		c.setTunable(parts, "step height", c.pawn.SetMaxStepHeight)
	case "slope":
		c.setTunable(parts, "slope angle", c.pawn.SetMaxSlopeAngle)
	case "speed":
		if len(parts) != 2 {
			fmt.Print("[debug] usage: :speed <m/s>\r\n")
			return
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil || v < 0 {
			fmt.Print("[debug] invalid speed\r\n")
			return
		}
		c.mu.Lock()
		c.walkSpeed = v
		c.mu.Unlock()
	case "play":
		if len(parts) < 2 || len(parts) > 3 {
			fmt.Print("[debug] usage: :play <animation> [layer]\r\n")
			return
		}
		name := parts[1]
		// The animation's registered defaults choose the layer and loop
		// mode; an explicit layer argument overrides.
		layer, loop, known := c.pawn.AnimationDefaults(name)
		if !known {
			layer, loop = 0, true
		}
		if len(parts) == 3 {
			l, err := strconv.Atoi(parts[2])
			if err != nil {
				fmt.Print("[debug] invalid layer\r\n")
				return
			}
			layer = l
		}
		flags := character.AnimationStop
		if loop {
			flags = character.AnimationRepeat
		}
		c.enqueue(func() {
			if err := c.pawn.Play(name, flags, 1, 100*time.Millisecond, layer); err != nil {
				fmt.Printf("\r\n[debug] %v\r\n", err)
			}
		})
	case "stop":
		layer := 0
		if len(parts) == 2 {
			l, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Print("[debug] invalid layer\r\n")
				return
			}
			layer = l
		}
		c.enqueue(func() {
			_ = c.pawn.Play("", character.AnimationStop, 1, 100*time.Millisecond, layer)
		})
	default:
		fmt.Printf("[debug] unknown command: %s\r\n", parts[0])
	}
}

func (c *Console) setTunable(parts []string, what string, set func(float64)) {
	if len(parts) != 2 {
		fmt.Printf("[debug] usage: :%s <value>\r\n", parts[0])
		return
	}
	v, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		fmt.Printf("[debug] invalid %s\r\n", what)
		return
	}
	c.enqueue(func() { set(v) })
	fmt.Printf("[debug] %s set to %v\r\n", what, v)
}

func (c *Console) printHelp() {
	fmt.Print("[debug] keys:\r\n")
	fmt.Print("  W/S/A/D: pulse movement (~180ms)\r\n")
	fmt.Print("  Space: jump\r\n")
	fmt.Print("  X: clear movement\r\n")
	fmt.Print("  : enter command mode\r\n")
	fmt.Print("[debug] commands:\r\n")
	fmt.Print("  :tp <x> <y> <z>\r\n")
	fmt.Print("  :jump [height]\r\n")
	fmt.Print("  :step <height>\r\n")
	fmt.Print("  :slope <degrees>\r\n")
	fmt.Print("  :speed <m/s>\r\n")
	fmt.Print("  :play <animation> [layer]\r\n")
	fmt.Print("  :stop [layer]\r\n")
	fmt.Print("  :state\r\n")
	fmt.Print("  :help\r\n")
}

func (c *Console) renderStatusLine() {
	c.mu.Lock()
	if c.commandMode {
		c.mu.Unlock()
		return
	}
	width := c.statusWidth
	c.mu.Unlock()

	pos := c.pawn.Position()
	line := fmt.Sprintf(
		"[X:%.2f Y:%.2f Z:%.2f | fall:%.2f grounded:%t colliding:%t]",
		pos.X(), pos.Y(), pos.Z(),
		c.pawn.FallVelocity().Y(),
		c.pawn.Grounded(),
		c.pawn.Colliding(),
	)

	padding := ""
	if width > len(line) {
		padding = strings.Repeat(" ", width-len(line))
	}
	fmt.Printf("\r%s%s", line, padding)

	c.mu.Lock()
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()
}
