package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Versifine/stride/internal/anim"
	"github.com/Versifine/stride/internal/character"
	"github.com/Versifine/stride/internal/collision"
	"github.com/Versifine/stride/internal/config"
	"github.com/Versifine/stride/internal/debug"
	"github.com/Versifine/stride/internal/logger"
	"github.com/Versifine/stride/internal/scene"
	"github.com/Versifine/stride/internal/shape"
)

func main() {
	configPath := flag.String("config", "configs/stride.yaml", "configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("Failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	var logOut *os.File
	if cfg.Logging.File != "" {
		logOut, err = os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.Error("Failed to open log file", "path", cfg.Logging.File, "error", err)
			os.Exit(1)
		}
		defer logOut.Close()
	}
	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: logWriter(logOut),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := collision.NewWorld(cfg.World.Gravity)
	if err := buildArena(w); err != nil {
		slog.Error("Failed to build arena", "error", err)
		os.Exit(1)
	}

	node := scene.NewNode("player")
	node.SetPosition(mgl64.Vec3{0, cfg.Character.Height / 2, 0})
	char, err := character.New(node, w, characterConfig(cfg))
	if err != nil {
		slog.Error("Failed to create character", "error", err)
		os.Exit(1)
	}
	defer char.Destroy()

	clips := make([]*anim.TimedClip, 0, len(cfg.Animations))
	for _, a := range cfg.Animations {
		clip := anim.NewTimedClip(a.Name, a.Length())
		ca, err := char.AddAnimation(a.Name, clip, a.MoveSpeed)
		if err != nil {
			slog.Error("Failed to register animation", "animation", a.Name, "error", err)
			os.Exit(1)
		}
		ca.SetPlaybackDefaults(a.Layer, a.Loop)
		clips = append(clips, clip)
	}
	slog.Info("Character ready",
		"radius", cfg.Character.Radius, "height", cfg.Character.Height,
		"step", cfg.Character.MaxStepHeight, "slope", cfg.Character.MaxSlopeAngle,
		"animations", len(clips))

	// Changes land between ticks, never mid-step.
	var pendingMu sync.Mutex
	var pending *config.Config
	watcher, err := config.Watch(*configPath, func(next *config.Config) {
		pendingMu.Lock()
		pending = next
		pendingMu.Unlock()
	})
	if err != nil {
		slog.Debug("Config watch unavailable", "error", err)
	} else {
		defer watcher.Close()
	}

	step := func(dt float64) {
		pendingMu.Lock()
		next := pending
		pending = nil
		pendingMu.Unlock()
		if next != nil {
			w.SetGravity(next.World.Gravity)
			char.SetMaxStepHeight(next.Character.MaxStepHeight)
			char.SetMaxSlopeAngle(next.Character.MaxSlopeAngle)
		}

		d := time.Duration(dt * float64(time.Second))
		for _, clip := range clips {
			clip.Advance(d)
		}
		w.Step(dt)
	}

	console := debug.NewConsole(char, step)
	if err := console.Start(ctx); err != nil {
		slog.Error("Console exited", "error", err)
		os.Exit(1)
	}
}

func logWriter(f *os.File) *os.File {
	if f != nil {
		return f
	}
	return os.Stdout
}

func characterConfig(cfg *config.Config) character.Config {
	center := mgl64.Vec3{}
	if len(cfg.Character.Center) == 3 {
		center = mgl64.Vec3{cfg.Character.Center[0], cfg.Character.Center[1], cfg.Character.Center[2]}
	}
	return character.Config{
		Radius:        cfg.Character.Radius,
		Height:        cfg.Character.Height,
		Center:        center,
		MaxStepHeight: cfg.Character.MaxStepHeight,
		MaxSlopeAngle: cfg.Character.MaxSlopeAngle,
		MovementLayer: cfg.Character.MovementLayer,
	}
}

// buildArena populates the world with a test course: flat ground, a stair
// run, a wall, a boulder, a pillar, a walkable mesh ramp and a steep
// heightfield slope.
func buildArena(w *collision.World) error {
	add := func(name string, def shape.Def, err error, pos mgl64.Vec3) error {
		if err != nil {
			return err
		}
		_, err = w.AddBody(name, def, pos)
		return err
	}

	floor, err := shape.NewBox(mgl64.Vec3{}, mgl64.Vec3{20, 0.5, 20})
	if err := add("floor", floor, err, mgl64.Vec3{0, -0.5, 0}); err != nil {
		return err
	}

	// Three stairs, each 0.25 high and 1 deep, climbing toward +X.
	for i := 0; i < 3; i++ {
		stair, err := shape.NewBox(mgl64.Vec3{}, mgl64.Vec3{0.5, 0.125 * float64(i+1), 2})
		pos := mgl64.Vec3{3.5 + float64(i), 0.125 * float64(i+1), 0}
		if err := add("stair", stair, err, pos); err != nil {
			return err
		}
	}

	wall, err := shape.NewBox(mgl64.Vec3{}, mgl64.Vec3{0.5, 2, 4})
	if err := add("wall", wall, err, mgl64.Vec3{-5, 2, 0}); err != nil {
		return err
	}

	boulder, err := shape.NewSphere(mgl64.Vec3{}, 0.8)
	if err := add("boulder", boulder, err, mgl64.Vec3{-2, 0.4, -4}); err != nil {
		return err
	}

	pillar, err := shape.NewCapsule(mgl64.Vec3{}, 0.4, 3)
	if err := add("pillar", pillar, err, mgl64.Vec3{2, 1.5, -4}); err != nil {
		return err
	}

	// Walkable 30 degree mesh ramp rising toward -Z.
	rampTop := 3.0 * 0.5774
	rampVerts := []mgl64.Vec3{
		{-2, 0, 0}, {2, 0, 0},
		{-2, rampTop, -3}, {2, rampTop, -3},
	}
	rampIdx := []uint32{0, 1, 2, 2, 1, 3}
	ramp, err := shape.NewMesh(rampVerts, rampIdx)
	if err := add("ramp", ramp, err, mgl64.Vec3{0, 0, -6}); err != nil {
		return err
	}

	// Steep 60 degree heightfield slope rising toward +Z; too steep to
	// stand on with the default slope limit.
	const rows, cols = 6, 9
	heights := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			heights[r*cols+c] = 1.732 * float64(r)
		}
	}
	cliff, err := shape.NewHeightfield(mgl64.Vec3{-4, 0, 0}, 1, rows, cols, heights)
	return add("cliff", cliff, err, mgl64.Vec3{0, 0, 6})
}
