// driftrelay is the relay peer chat clients point at: it persists the
// shared graph and fans ops out to every connected client, the way the
// original app leaned on a public sync peer.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nordgaard/driftroom/pkg/graph"
)

var rootCmd = &cobra.Command{
	Use:   "driftrelay",
	Short: "Graph-sync relay peer for driftroom clients",
	RunE:  runRelay,
}

var (
	flagPort     int
	flagDataPath string
	flagDebug    bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.IntVar(&flagPort, "port", 8780, "HTTP listen port")
	flags.StringVar(&flagDataPath, "data-path", "", "optional directory to persist the graph via PebbleDB")
	flags.BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute relay command")
	}
}

func runRelay(cmd *cobra.Command, args []string) error {
	if flagDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []graph.Option{graph.WithLogger(log.Logger)}
	if flagDataPath != "" {
		opts = append(opts, graph.WithDataDir(flagDataPath))
	}
	g := graph.New(opts...)

	h := newHub(g)

	r := chi.NewRouter()
	r.Get("/sync", func(w http.ResponseWriter, req *http.Request) { h.handleWS(w, req) })
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			graph.Stats
			Peers int `json:"peers"`
		}{Stats: g.Stats(), Peers: h.peerCount()})
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", flagPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		log.Info().Int("port", flagPort).Msg("[relay] listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("[relay] http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	h.closeAll()
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("[relay] http shutdown error")
	}
	if err := g.Close(); err != nil {
		log.Warn().Err(err).Msg("[relay] graph close error")
	}
	log.Info().Msg("[relay] shutdown complete")
	return nil
}
