package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/tapestry/internal/event"
	"github.com/matthewbaird/tapestry/internal/eventbus"
	"github.com/matthewbaird/tapestry/internal/live"
	"github.com/matthewbaird/tapestry/internal/server"
	"github.com/matthewbaird/tapestry/internal/worker"
)

func newServeCmd(state *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			bus := eventbus.New(256, state.log)
			recorder := event.NewRingRecorder(256)
			bus.Subscribe("log", eventbus.NewLogConsumer(state.log))
			bus.Subscribe("history", recorder)
			bus.Start(ctx)

			rt, err := buildRuntime(ctx, state.cfg, state.log, bus)
			if err != nil {
				return err
			}
			defer rt.Close()

			watcher := worker.NewViewWatcher(state.cfg.ViewsDir, rt.cache, 2*time.Second, state.log)
			go watcher.Run(ctx)

			sessions := live.NewManager(30 * time.Minute)
			liveHandler := live.NewHandler(sessions, rt.engine, state.log)

			return server.Run(ctx, server.Config{
				Listen:   state.cfg.Listen,
				Engine:   rt.engine,
				Store:    rt.store,
				Recorder: recorder,
				Live:     liveHandler,
				Log:      state.log,
			})
		},
	}
	return cmd
}
