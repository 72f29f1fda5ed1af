package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formguard/components/cities"
	"github.com/goliatone/go-formguard/pkg/booking"
)

func embedCmd(app *App) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Load the booking widget and print its markup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []booking.Option
			if timeout > 0 {
				opts = append(opts, booking.WithTimeout(timeout))
			}
			embed := app.svc.NewBookingEmbed(opts...)
			defer embed.Close()

			embed.Start(cmd.Context())
			state, err := embed.Wait(cmd.Context())
			if err != nil && !errors.Is(err, booking.ErrTimeout) && !errors.Is(err, booking.ErrUnconfigured) {
				return err
			}
			app.log.Info("booking embed settled", "state", string(state))

			markup, err := embed.Render()
			if err != nil {
				return err
			}
			if tag := embed.ScriptTag(); tag != "" && state == booking.StateReady {
				app.printf("%s\n", tag)
			}
			app.printf("%s\n", markup)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "How long to wait for the widget; overrides config")
	return cmd
}

func citiesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cities",
		Short: "Look up service cities",
	}

	var limit int
	search := &cobra.Command{
		Use:   "search [query]",
		Short: "Search service cities by name or ZIP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			for _, c := range app.cities().Search(query, limit) {
				app.printf("%s\n", c.Label)
			}
			return nil
		},
	}
	search.Flags().IntVar(&limit, "limit", 0, "Maximum results")

	check := &cobra.Command{
		Use:   "check <zip>",
		Short: "Check whether a ZIP code is in the service area",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			res := app.cities().CheckZIP(args[0])
			switch {
			case res.City != "":
				app.printf("%s: served (%s)\n", res.Value, res.City)
			case res.InArea:
				app.printf("%s: served\n", res.Value)
			default:
				app.printf("%s: %s\n", res.Value, res.Message)
			}
			return nil
		},
	}

	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the city lookup endpoint and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return app.serve(cmd.Context(), ln)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")

	cmd.AddCommand(search, check, serve)
	return cmd
}

func (a *App) cities() *cities.Component {
	return cities.New(
		cities.WithCities(a.svc.Cities()),
		cities.WithServiceArea(a.svc.ServiceArea()),
	)
}

// newMux mounts the city lookup and the metrics endpoint.
func (a *App) newMux() (*http.ServeMux, string, error) {
	mux := http.NewServeMux()
	pattern, err := a.cities().RegisterRoutes(mux, "/")
	if err != nil {
		return nil, "", err
	}
	mux.Handle("/metrics", a.svc.Metrics().Handler())
	return mux, pattern, nil
}

// serve runs until ctx ends, then shuts down gracefully.
func (a *App) serve(ctx context.Context, ln net.Listener) error {
	mux, pattern, err := a.newMux()
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	a.log.Info("serving", "addr", ln.Addr().String(), "cities", pattern, "metrics", "/metrics")
	a.printf("listening on http://%s%s\n", ln.Addr(), strings.TrimSuffix(pattern, "/"))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
