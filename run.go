package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/HARSHv95/Focus-Mode-Scheduler/daemon"
	"github.com/HARSHv95/Focus-Mode-Scheduler/lottery"
	"github.com/HARSHv95/Focus-Mode-Scheduler/metrics"
	log "github.com/HARSHv95/Focus-Mode-Scheduler/pkg/pidlog"
	"github.com/HARSHv95/Focus-Mode-Scheduler/pkg/privilege"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func daemonCommand() *cli.Command {
	return &cli.Command{
		Name:      "daemon",
		Usage:     `run the lottery scheduler until interrupted`,
		ArgsUsage: "<timeslice_ms>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on this address, e.g. :9100",
			},
		},
		Action: func(c *cli.Context) error {
			timeslice := conf.Timeslice()
			if c.Args().Len() > 0 {
				n, err := parsePositive("timeslice_ms", c.Args().Get(0))
				if err != nil {
					return err
				}
				timeslice = time.Duration(n) * time.Millisecond
			}
			if timeslice <= 0 {
				return fmt.Errorf("usage: %s daemon <timeslice_ms>: %w", c.App.Name, daemon.ErrInvalidTimeslice)
			}
			addr := conf.MetricsAddr
			if c.IsSet("metrics-addr") {
				addr = c.String("metrics-addr")
			}
			return Run(c.Context, timeslice, addr)
		},
	}
}

// Run sets up the groups and schedules until SIGINT or SIGTERM.
func Run(parent context.Context, timeslice time.Duration, metricsAddr string) error {
	if missing, err := privilege.Missing(); err != nil {
		log.Warnf("cannot read capabilities: %v", err)
	} else if len(missing) > 0 {
		log.Warnf("running without %v, cgroup writes may be refused", missing)
	}

	h := hierarchy()
	if err := h.Init(conf.FocusWeight, conf.BackgroundWeight); err != nil {
		log.Errorf("failed to init cgroups: %v", err)
		return err
	}

	rec := metrics.NewRecorder()
	d, err := daemon.NewDaemon(daemon.Config{
		Timeslice:  timeslice,
		Focus:      conf.FocusGroup,
		Background: conf.BackgroundGroup,
	}, store(), lottery.NewTimeSeeded(), h, rec)
	if err != nil {
		return err
	}
	log.Infof("reading (pid, tickets) entries from %s", conf.StateFile)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.Run(ctx)
	})
	if metricsAddr != "" {
		server := &http.Server{Addr: metricsAddr, Handler: metricsMux(rec)}
		g.Go(func() error {
			log.Infof("serving metrics on %s", metricsAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func metricsMux(rec *metrics.Recorder) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	return mux
}
