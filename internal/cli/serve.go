package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"llamalink/internal/httpapi"
)

func newServeCmd(o *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve link plans over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = o.cfg.Addr
			}
			if addr == "" {
				addr = ":8089"
			}
			libRoot, dirRoot, err := o.cfg.Roots()
			if err != nil {
				return err
			}
			httpapi.SetCORSOptions(len(o.cfg.CORSOrigins) > 0, o.cfg.CORSOrigins)
			svc := &httpapi.ResolverService{Resolver: o.resolver(), LibRoot: libRoot, DirRoot: dirRoot, Env: processEnv}
			srv := &http.Server{Addr: addr, Handler: httpapi.NewMux(svc), ReadHeaderTimeout: 5 * time.Second}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				o.log.Info().Str("addr", addr).Str("plugin_dir", dirRoot).Msg("llamalink listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				o.log.Warn().Err(err).Msg("graceful shutdown error")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envStr(envAddr, ""), "HTTP listen address (defaults LLAMALINK_ADDR, config addr or :8089)")
	return cmd
}
