// Package main provides the quiz game server binary: one TCP listener
// hosting one session from lobby to game over.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridquiz/internal/config"
	"github.com/cory-johannsen/gridquiz/internal/game/session"
	"github.com/cory-johannsen/gridquiz/internal/game/station"
	"github.com/cory-johannsen/gridquiz/internal/game/world"
	"github.com/cory-johannsen/gridquiz/internal/observability"
	"github.com/cory-johannsen/gridquiz/internal/quiz"
	"github.com/cory-johannsen/gridquiz/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty = built-in defaults")
	questionsPath := flag.String("questions", "", "path to question bank YAML; overrides the configured path")
	flag.Parse()

	var (
		cfg config.Config
		err error
	)
	if *configPath == "" {
		cfg = config.Default()
	} else {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Load quiz content. A missing or empty bank is not fatal: the session
	// runs with zero stations and ends on the time limit alone.
	path := cfg.Questions.Path
	if *questionsPath != "" {
		path = *questionsPath
	}
	questions, err := quiz.LoadQuestionsFromFile(path)
	if err != nil {
		logger.Warn("loading question bank, starting with no stations",
			zap.String("path", path),
			zap.Error(err),
		)
		questions = nil
	}
	logger.Info("question bank loaded",
		zap.String("path", path),
		zap.Int("questions", len(questions)),
	)

	grid, err := world.New(cfg.Game.MapWidth, cfg.Game.MapHeight, world.DefaultObstacles())
	if err != nil {
		logger.Fatal("creating world grid", zap.Error(err))
	}

	seed := uint64(time.Now().UnixNano())
	rng := rand.New(rand.NewPCG(seed, seed>>17))
	initial, bank := quiz.Split(questions, cfg.Game.InitialStations, rng)

	sess := session.New(grid, cfg.Server.MaxPlayers, cfg.Game.TimeLimit, logger)
	stations := station.NewManager(grid, initial, bank, cfg.Game.CooldownGrace, rng, logger)

	srv := server.New(cfg.Server, cfg.Game.Countdown, sess, stations, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("quiz-server", &server.FuncService{
		StartFn: srv.ListenAndServe,
		StopFn:  srv.Stop,
	})

	logger.Info("starting quiz game server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("max_players", cfg.Server.MaxPlayers),
		zap.Int("grid_width", grid.Width()),
		zap.Int("grid_height", grid.Height()),
		zap.Int("initial_stations", len(initial)),
		zap.Int("banked_questions", bank.Len()),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("running services", zap.Error(err))
	}
}
