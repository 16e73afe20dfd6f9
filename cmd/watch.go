package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/etnz/tracker"
	"github.com/etnz/tracker/metrics"
	"github.com/etnz/tracker/renderer"
	"github.com/etnz/tracker/store"
	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type watchCmd struct {
	refresh time.Duration
	listen  string
	quiet   bool
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "re-evaluate the portfolio periodically and on ledger changes" }
func (*watchCmd) Usage() string {
	return `pnl watch [-refresh <duration>] [-listen <addr>] [-quiet]

  Evaluates the portfolio every refresh period, and whenever the ledger
  changes, printing the holdings each time.

  With -listen, also serves:
    /metrics   Prometheus metrics of the evaluations
    /snapshot  the last snapshot as JSON (503 if the last evaluation failed)
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.refresh, "refresh", 0, "Refresh period, overrides the configuration")
	f.StringVar(&c.listen, "listen", "", "HTTP address, overrides the configuration")
	f.BoolVar(&c.quiet, "quiet", false, "do not print the holdings")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, ledger, status := openLedger()
	if status != subcommands.ExitSuccess {
		return status
	}
	defer ledger.Close()

	refresh := cfg.Refresh
	if c.refresh > 0 {
		refresh = c.refresh
	}
	listen := cfg.Listen
	if c.listen != "" {
		listen = c.listen
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	w := &watcher{
		eval: &tracker.Evaluator{
			Ledger:  ledger,
			Quotes:  cfg.QuoteProvider(),
			Options: cfg.Options(),
		},
		recorder: metrics.NewRecorder(reg),
	}
	if !c.quiet {
		w.onUpdate = printUpdate
	}

	if listen != "" {
		gin.SetMode(gin.ReleaseMode)
		server := &http.Server{
			Addr:         listen,
			Handler:      w.router(reg),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Printf("serving metrics and snapshot on http://%s", listen)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server failed: %v", err)
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("http server shutdown: %v", err)
			}
		}()
	}

	w.run(ctx, ledger, refresh)
	return subcommands.ExitSuccess
}

func printUpdate(s tracker.Snapshot, err error) {
	fmt.Printf("\n--- %s ---\n", time.Now().Format(time.DateTime))
	switch {
	case errors.Is(err, tracker.ErrStorage):
		fmt.Fprintf(os.Stderr, "Error: could not read ledger: %v\n", err)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: invalid ledger: %v\n", err)
	default:
		printMarkdown(renderer.RenderHolding(renderer.NewHolding(s)))
	}
}

// watcher keeps the last evaluation of a ledger.
type watcher struct {
	eval     *tracker.Evaluator
	recorder *metrics.Recorder
	onUpdate func(tracker.Snapshot, error) // optional

	mu      sync.RWMutex
	last    tracker.Snapshot
	lastErr error
	updated time.Time
}

// refresh evaluates the ledger and records the result.
func (w *watcher) refresh(ctx context.Context) {
	start := time.Now()
	s, err := w.eval.Evaluate(ctx)
	d := time.Since(start)

	if w.recorder != nil {
		w.recorder.Observe(s, d, err)
	}
	if err == nil && s.Degraded() {
		log.Printf("evaluation degraded: %d position(s) valued at cost", len(s.Stale()))
	}

	w.mu.Lock()
	w.last, w.lastErr, w.updated = s, err, time.Now()
	w.mu.Unlock()

	if w.onUpdate != nil {
		w.onUpdate(s, err)
	}
}

// snapshot returns the last evaluation.
func (w *watcher) snapshot() (tracker.Snapshot, time.Time, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last, w.updated, w.lastErr
}

// run refreshes immediately, then every period and on each ledger change,
// until ctx is done.
func (w *watcher) run(ctx context.Context, ledger store.Store, every time.Duration) {
	changes := make(chan struct{}, 1)
	go func() {
		err := ledger.Watch(ctx, func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		})
		if err != nil {
			log.Printf("not watching ledger changes: %v", err)
		}
	}()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx)
		case <-changes:
			log.Println("ledger changed, reloading")
			w.refresh(ctx)
		}
	}
}

// router serves the Prometheus metrics of gatherer and the last snapshot.
func (w *watcher) router(gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/snapshot", func(c *gin.Context) {
		s, updated, err := w.snapshot()
		switch {
		case updated.IsZero():
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "not evaluated yet"})
		case err != nil:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "updated": updated.Format(time.RFC3339)})
		default:
			c.Header("Last-Modified", updated.UTC().Format(http.TimeFormat))
			c.JSON(http.StatusOK, s)
		}
	})
	return r
}
