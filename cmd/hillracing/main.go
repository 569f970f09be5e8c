// Command hillracing runs, serves, and inspects hill racing
// environments.
//
// It supports three subcommands:
//  1. "run" drives episodes with a fixed policy, optionally saving
//     frames and per-episode records
//  2. "serve" runs an environment in real time and streams it to
//     websocket viewers, who drive the car
//  3. "terrain" prints a generated terrain profile as CSV
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/samuelfneumann/hillracing/environment/box2d/hillracing"
	"github.com/samuelfneumann/hillracing/environment/envconfig"
	"github.com/samuelfneumann/hillracing/environment/wrappers"
	"github.com/samuelfneumann/hillracing/render"
	"github.com/samuelfneumann/hillracing/render/stream"
	"github.com/samuelfneumann/hillracing/utils/progressbar"
	"github.com/urfave/cli/v3"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	Version = "1.0.0"
	AppName = "Hill Racing"
)

var configFlag = &cli.StringFlag{
	Name:    "config",
	Usage:   "JSON environment configuration (defaults if unset)",
	Sources: cli.EnvVars("HILLRACING_CONFIG"),
}

var seedFlag = &cli.UintFlag{
	Name:    "seed",
	Usage:   "seed of the environment's random source",
	Value:   0,
	Sources: cli.EnvVars("HILLRACING_SEED"),
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	app := &cli.Command{
		Name:    "hillracing",
		Usage:   "hill climb driving environment",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(ctx context.Context,
			cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			runCommand(),
			serveCommand(),
			terrainCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig returns the configuration at path, or the default
// configuration if path is empty
func loadConfig(path string) (envconfig.Config, error) {
	if path == "" {
		return envconfig.Default(), nil
	}
	return envconfig.Load(path)
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "drive episodes with a fixed policy",
		Flags: []cli.Flag{
			configFlag,
			seedFlag,
			&cli.IntFlag{
				Name:  "episodes",
				Usage: "number of episodes to run",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "policy",
				Usage: "policy to drive with: gas or random",
				Value: "gas",
			},
			&cli.StringFlag{
				Name:  "frames",
				Usage: "directory to save PNG frames to (no frames if unset)",
			},
			&cli.StringFlag{
				Name:  "monitor",
				Usage: "file to save episode records to (not saved if unset)",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	config, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	seed := uint64(cmd.Uint("seed"))

	episodes := int(cmd.Int("episodes"))
	if episodes <= 0 {
		return fmt.Errorf("run: episodes must be positive but got %v",
			episodes)
	}

	var renderer hillracing.Renderer
	if dir := cmd.String("frames"); dir != "" {
		if renderer, err = render.NewPNG(dir); err != nil {
			return err
		}
		config.RenderMode = envconfig.Human
	}

	env, _, err := config.Create(seed, renderer)
	if err != nil {
		return err
	}

	policy, err := newPolicy(cmd.String("policy"), env, seed)
	if err != nil {
		return err
	}

	monitor := wrappers.NewMonitor(env, cmd.String("monitor"))
	log.Printf("Starting %s v%s: %v with %v policy", AppName, Version,
		env.ActionSpace(), cmd.String("policy"))

	bar := progressbar.New(os.Stdout, 40, episodes)
	for episode := 0; episode < episodes; episode++ {
		if _, err := monitor.Reset(); err != nil {
			return err
		}

		for last := false; !last; {
			if err := ctx.Err(); err != nil {
				bar.Close()
				return err
			}
			if _, last, err = monitor.Step(policy()); err != nil {
				return err
			}
		}

		record := monitor.Episodes()[episode]
		bar.Increment()
		bar.Display(fmt.Sprintf("score: %v return: %.2f", record.Score,
			record.Return))
	}
	bar.Close()

	for i, record := range monitor.Episodes() {
		log.Printf("Episode %d: score %d, return %.2f, length %d, "+
			"terminated %v", i, record.Score, record.Return, record.Length,
			record.Terminated)
	}

	if cmd.String("monitor") != "" {
		return monitor.Save()
	}
	return nil
}

// newPolicy returns a function which selects actions for env
func newPolicy(name string, env hillracing.Env,
	seed uint64) (func() *mat.VecDense, error) {
	switch name {
	case "gas":
		action, err := hillracing.ActionFor(env.ActionSpace(), hillracing.Gas)
		if err != nil {
			return nil, err
		}
		return func() *mat.VecDense { return action }, nil

	case "random":
		spec := env.ActionSpec()
		low, high := spec.LowerBound.AtVec(0), spec.UpperBound.AtVec(0)
		src := rand.NewSource(seed)

		if env.ActionSpace() == hillracing.ContinuousWheelSpeed {
			dist := distuv.Uniform{Min: low, Max: high, Src: src}
			return func() *mat.VecDense {
				return mat.NewVecDense(1, []float64{dist.Rand()})
			}, nil
		}

		dist := distuv.Uniform{Min: low, Max: high + 1, Src: src}
		return func() *mat.VecDense {
			a := math.Min(math.Floor(dist.Rand()), high)
			return mat.NewVecDense(1, []float64{a})
		}, nil
	}
	return nil, fmt.Errorf("newPolicy: no such policy %q", name)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "stream an environment to websocket viewers who drive the car",
		Flags: []cli.Flag{
			configFlag,
			seedFlag,
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "HTTP listen address",
				Value:   "localhost:8080",
				Sources: cli.EnvVars("HILLRACING_ADDR"),
			},
		},
		Action: serve,
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	config, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	config.RenderMode = envconfig.Human

	hub := stream.NewHub()
	env, _, err := config.Create(uint64(cmd.Uint("seed")), hub)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go hub.Run(ctx)

	router := http.NewServeMux()
	router.HandleFunc("/ws", hub.ServeWS)

	httpServer := &http.Server{
		Addr:        cmd.String("addr"),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Streaming %s on ws://%s/ws", AppName, httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err,
			http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	err = drive(ctx, env, hub)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		5*time.Second)
	defer shutdownCancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Printf("Server shutdown error: %v", shutdownErr)
	}

	select {
	case listenErr := <-serverErr:
		return listenErr
	default:
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// drive steps env in real time with the commands viewers send to hub,
// resetting env whenever an episode ends
func drive(ctx context.Context, env hillracing.Env, hub *stream.Hub) error {
	second := float64(time.Second)
	ticker := time.NewTicker(time.Duration(second / hillracing.FPS))
	defer ticker.Stop()

	action, err := hillracing.ActionFor(env.ActionSpace(), hillracing.Gas)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		// Keep the previous action for commands the action space
		// cannot express
		if next, err := hillracing.ActionFor(env.ActionSpace(),
			hub.LatestCommand()); err == nil {
			action = next
		}

		_, last, err := env.Step(action)
		if err != nil {
			return err
		}
		if last {
			info := env.Info()
			log.Printf("Episode over: score %d, dead %v", info.Score,
				info.Dead)
			if _, err := env.Reset(); err != nil {
				return err
			}
		}
	}
}

func terrainCommand() *cli.Command {
	return &cli.Command{
		Name:  "terrain",
		Usage: "print a generated terrain profile as x,y CSV in pixels",
		Flags: []cli.Flag{
			seedFlag,
			&cli.FloatFlag{
				Name:  "difficulty",
				Usage: "terrain difficulty, from -250 (easiest) to 80",
				Value: hillracing.DefaultDifficulty,
			},
			&cli.IntFlag{
				Name:  "attempts",
				Usage: "maximum number of terrains to generate",
				Value: 1000,
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "file to write to (stdout if unset)",
			},
		},
		Action: terrain,
	}
}

func terrain(_ context.Context, cmd *cli.Command) error {
	src := rand.NewSource(uint64(cmd.Uint("seed")))
	profile, err := hillracing.GenerateTerrain(src, cmd.Float("difficulty"),
		int(cmd.Int("attempts")))
	if err != nil {
		return err
	}

	out := os.Stdout
	if path := cmd.String("out"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("terrain: %v", err)
		}
		defer file.Close()
		out = file
	}

	w := csv.NewWriter(out)
	w.Write([]string{"x", "y"})
	for _, vertex := range profile.Samples() {
		w.Write([]string{
			strconv.FormatFloat(vertex.X*hillracing.Scale, 'f', 2, 64),
			strconv.FormatFloat(vertex.Y*hillracing.Scale, 'f', 2, 64),
		})
	}
	w.Flush()
	return w.Error()
}
