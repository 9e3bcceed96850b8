// Package server assembles the HTTP API and starts the server.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matthewbaird/tapestry/internal/engine"
	"github.com/matthewbaird/tapestry/internal/event"
	"github.com/matthewbaird/tapestry/internal/graph"
	"github.com/matthewbaird/tapestry/internal/handler"
)

// Config holds server wiring.
type Config struct {
	Listen   string
	Engine   *engine.Engine
	Store    graph.Store
	Recorder *event.RingRecorder
	Live     http.Handler
	Log      *zap.Logger
}

// Router builds the chi router with all routes registered.
func Router(cfg Config) chi.Router {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	vh := handler.NewViewHandler(cfg.Engine, log)
	eh := handler.NewEntityHandler(cfg.Engine, cfg.Store, log)

	r := chi.NewRouter()
	r.Use(handler.Recovery(log))
	r.Use(handler.Logging(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/views", vh.ListViews)
		r.Get("/views/{id}", vh.GetView)
		r.Post("/views/{id}/render", vh.RenderView)
		r.Post("/views/{id}/sync", vh.SyncView)

		r.Post("/mutations", eh.ApplyMutations)
		r.Post("/entities", eh.CreateEntities)
		r.Get("/entities/{type}/{id}", eh.GetEntity)
		r.Get("/relationships/infer", eh.InferRelationship)

		if cfg.Recorder != nil {
			r.Get("/events", handler.NewEventsHandler(cfg.Recorder).ListEvents)
		}
		if cfg.Live != nil {
			r.Handle("/live/ws", cfg.Live)
		}
	})
	return r
}

// Run starts the HTTP server and shuts it down gracefully when the context
// is cancelled.
func Run(ctx context.Context, cfg Config) error {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: Router(cfg),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown", zap.Error(err))
		}
	}()

	log.Info("starting server", zap.String("addr", cfg.Listen))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
