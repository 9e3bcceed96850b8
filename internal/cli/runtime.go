package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matthewbaird/tapestry/internal/config"
	"github.com/matthewbaird/tapestry/internal/engine"
	"github.com/matthewbaird/tapestry/internal/eventbus"
	"github.com/matthewbaird/tapestry/internal/graph"
	"github.com/matthewbaird/tapestry/internal/relate"
	"github.com/matthewbaird/tapestry/internal/view"
)

// runtime is the assembled application: stores, resolver, and engine.
type runtime struct {
	cfg    *config.Config
	log    *zap.Logger
	store  graph.Store
	views  view.Store
	cache  view.Cache
	engine *engine.Engine

	closers []func() error
}

// buildRuntime wires a runtime from configuration. The bus is optional;
// serve attaches one, one-shot commands do not.
func buildRuntime(ctx context.Context, cfg *config.Config, log *zap.Logger, bus *eventbus.Bus) (*runtime, error) {
	rt := &runtime{cfg: cfg, log: log}

	switch cfg.Store.Driver {
	case "sqlite":
		store, err := graph.OpenSQLite(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		rt.store = store
		rt.closers = append(rt.closers, store.Close)
	default:
		rt.store = graph.NewMemoryStore()
	}

	rules, err := relate.LoadSchemaFile(cfg.SchemaPath)
	if err != nil {
		return nil, err
	}

	rt.views = view.NewFileStore(cfg.ViewsDir, log)
	rt.cache = view.NewMapCache()
	rt.engine = engine.New(engine.Config{
		Views:    rt.views,
		Cache:    rt.cache,
		Graph:    rt.store,
		Resolver: relate.NewResolver(rules...),
		Origin:   cfg.Origin,
		Log:      log,
		Bus:      bus,
	})
	return rt, nil
}

func (rt *runtime) Close() {
	for _, closeFn := range rt.closers {
		if err := closeFn(); err != nil {
			rt.log.Warn("close error", zap.Error(err))
		}
	}
}
