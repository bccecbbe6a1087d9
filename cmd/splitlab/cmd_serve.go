package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spboyer/splitlab/internal/dataset"
	"github.com/spboyer/splitlab/internal/engine"
	"github.com/spboyer/splitlab/internal/identity"
	"github.com/spboyer/splitlab/internal/models"
	"github.com/spboyer/splitlab/internal/projectconfig"
	"github.com/spboyer/splitlab/internal/validation"
	"github.com/spboyer/splitlab/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var port int
	var noBrowser bool
	var serveEvents string
	var replayInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve <experiment.yaml>",
		Short: "Serve a live dashboard for an experiment",
		Long: `Serve a live dashboard for an experiment.

Starts an HTTP server exposing the experiment state, variant metrics,
significance, and an HTML report. With --events, a recorded event stream
is replayed into the experiment in the background, paced by
--replay-interval, so the dashboard shows the experiment progressing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specPath := args[0]

			schemaErrs, err := validation.ValidateExperimentFile(specPath)
			if err != nil {
				return fmt.Errorf("failed to validate spec: %w", err)
			}
			if len(schemaErrs) > 0 {
				return fmt.Errorf("spec %s has %d schema error(s)", specPath, len(schemaErrs))
			}

			spec, err := models.LoadExperimentSpec(specPath)
			if err != nil {
				return fmt.Errorf("failed to load spec: %w", err)
			}

			if !cmd.Flags().Changed("port") {
				if pc, err := projectconfig.Load(filepath.Dir(specPath)); err == nil && pc.Server.Port > 0 {
					port = pc.Server.Port
				}
			}

			var ctrlOpts []engine.Option
			var records []dataset.EventRecord
			if serveEvents != "" {
				records, err = dataset.LoadEvents(serveEvents)
				if err != nil {
					return fmt.Errorf("loading events: %w", err)
				}
				ctrlOpts = append(ctrlOpts, engine.WithResolver(identity.NewStatic(dataset.Segments(records))))
			}

			ctrl, err := engine.New(spec, ctrlOpts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if len(records) > 0 {
				go replayIntoController(ctx, ctrl, records, replayInterval)
			}

			srv, err := webserver.New(webserver.Config{
				Port:       port,
				NoBrowser:  noBrowser,
				Controller: ctrl,
				Logger:     slog.Default(),
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", projectconfig.DefaultServerPort, "Port to listen on")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open the dashboard in a browser")
	cmd.Flags().StringVar(&serveEvents, "events", "", "Recorded event CSV to replay in the background")
	cmd.Flags().DurationVar(&replayInterval, "replay-interval", 250*time.Millisecond, "Pacing between replayed events")

	return cmd
}

// replayIntoController feeds recorded events into the controller at a fixed
// pace so the dashboard shows live movement. It stops on completion,
// context cancellation, or stream exhaustion.
func replayIntoController(ctx context.Context, ctrl *engine.Controller, records []dataset.EventRecord, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	entered := make(map[string]bool)
	for _, rec := range records {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !entered[rec.SubjectID] {
			if _, err := ctrl.EnterExperiment(rec.SubjectID); err != nil {
				if errors.Is(err, engine.ErrCompleted) {
					return
				}
				slog.Warn("replay entry failed", "subject", rec.SubjectID, "error", err)
				continue
			}
			entered[rec.SubjectID] = true
		}

		switch {
		case rec.IsConversion():
			if err := ctrl.TrackConversion(rec.SubjectID); err != nil {
				slog.Warn("replay conversion failed", "subject", rec.SubjectID, "error", err)
			}
		case rec.IsImpression():
			// Entry markers only trigger enrollment, handled above.
		default:
			if _, err := ctrl.TrackEngagement(rec.SubjectID, rec.EventType); err != nil {
				slog.Warn("replay engagement failed", "subject", rec.SubjectID, "error", err)
			}
		}

		if ctrl.State() == engine.StateCompleted {
			return
		}
	}
}
