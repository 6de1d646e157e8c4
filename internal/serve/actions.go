package serve

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/blog-pulse/internal/common"
	"github.com/dtnitsch/blog-pulse/pkg/views"
)

func ServeAction(c *cli.Context) error {
	rt, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	addr := rt.Config.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	s, err := rt.NewScraper()
	if err != nil {
		return cli.Exit(err.Error(), common.ExitRuntime)
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewServer(rt.NewAggregator(views.NopObserver{}, nil), s, rt.Logger).Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		rt.Logger.Info().Str("addr", addr).Msg("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return cli.Exit(err.Error(), common.ExitRuntime)
		}
		return nil
	case <-ctx.Done():
	}

	rt.Logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return cli.Exit(err.Error(), common.ExitRuntime)
	}
	return nil
}
