package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type App struct {
	cfg     Config
	log     *zap.Logger
	store   store
	trainer *trainerClient
	metrics *metrics
	now     func() time.Time
}

func newApp(ctx context.Context, cfg Config, log *zap.Logger) (*App, error) {
	st, err := newMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	return newAppWithStore(cfg, log, st), nil
}

// newAppWithStore wires an App around an existing store.
func newAppWithStore(cfg Config, log *zap.Logger, st store) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		cfg:     cfg,
		log:     log,
		store:   st,
		trainer: newTrainerClient(cfg.TrainerURI),
		metrics: newMetrics(),
		now:     time.Now,
	}
}

func (a *App) close(ctx context.Context) {
	if err := a.store.Close(ctx); err != nil {
		a.log.Warn("store close", zap.Error(err))
	}
}
