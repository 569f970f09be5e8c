// Command hillplay opens a window in which a person drives the car of
// a hill racing environment with the keyboard.
//
// Controls:
//
//	Right arrow or D    gas
//	Left arrow or A     reverse
//	R                   new episode
//	Escape              quit
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/joho/godotenv"
	"github.com/samuelfneumann/hillracing/environment/box2d/hillracing"
	"github.com/samuelfneumann/hillracing/environment/envconfig"
	"github.com/samuelfneumann/hillracing/render"
	"gonum.org/v1/gonum/mat"
)

var (
	configPath = flag.String("config", os.Getenv("HILLRACING_CONFIG"),
		"JSON environment configuration (defaults if unset)")
	seed = flag.Uint64("seed", 0, "seed of the environment's random source")
)

// Game drives a hill racing environment from keyboard input
type Game struct {
	env    hillracing.Env
	action *mat.VecDense
	frame  *ebiten.Image
	over   bool
	best   int
}

// NewGame returns a new Game playing env
func NewGame(env hillracing.Env) (*Game, error) {
	action, err := hillracing.ActionFor(env.ActionSpace(), hillracing.Gas)
	if err != nil {
		return nil, err
	}
	return &Game{
		env:    env,
		action: action,
		frame:  ebiten.NewImage(render.Width, render.Height),
	}, nil
}

// command returns the motor command held down on the keyboard
func command() hillracing.Command {
	switch {
	case ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		ebiten.IsKeyPressed(ebiten.KeyD):
		return hillracing.Gas
	case ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		ebiten.IsKeyPressed(ebiten.KeyA):
		return hillracing.Reverse
	}
	return hillracing.Idle
}

// Update steps the environment once per tick
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if _, err := g.env.Reset(); err != nil {
			return err
		}
		g.over = false
		return nil
	}
	if g.over {
		return nil
	}

	// Keep the previous action for commands the action space cannot
	// express
	if action, err := hillracing.ActionFor(g.env.ActionSpace(),
		command()); err == nil {
		g.action = action
	}

	_, last, err := g.env.Step(g.action)
	if err != nil {
		return err
	}
	if last {
		g.over = true
		if score := g.env.Score(); score > g.best {
			g.best = score
		}
	}
	return nil
}

// Draw draws the environment
func (g *Game) Draw(screen *ebiten.Image) {
	img := render.Draw(g.env.Snapshot())
	if rgba, ok := img.(*image.RGBA); ok {
		g.frame.WritePixels(rgba.Pix)
	} else {
		g.frame = ebiten.NewImageFromImage(img)
	}
	screen.DrawImage(g.frame, nil)

	help := fmt.Sprintf("Best: %d", g.best)
	if g.over {
		help += "\nPress R to play again"
	}
	ebitenutil.DebugPrintAt(screen, help, 10, 60)
}

// Layout returns the game screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return render.Width, render.Height
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	flag.Parse()

	config := envconfig.Default()
	if *configPath != "" {
		var err error
		if config, err = envconfig.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	config.RenderMode = envconfig.None

	env, _, err := config.Create(*seed, nil)
	if err != nil {
		log.Fatal(err)
	}

	game, err := NewGame(env)
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowSize(render.Width, render.Height)
	ebiten.SetWindowTitle("Hill Racing")
	ebiten.SetTPS(int(hillracing.FPS))

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
