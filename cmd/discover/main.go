// Copyright 2025 The Arcan Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command discover broadcasts and tracks local discovery beacons.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zengwei2000/arcan/pkg/beacon"
	"github.com/zengwei2000/arcan/pkg/keystore"
	"github.com/zengwei2000/arcan/pkg/log"
	"github.com/zengwei2000/arcan/private/discovery"
)

func main() {
	var configFile string

	cmd := &cobra.Command{
		Use:           "discover",
		Short:         "Local network discovery beacons",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file")
	cmd.AddCommand(
		newRunCommand(&configFile, "listen", "Track discovery beacons on the local network",
			runListener),
		newRunCommand(&configFile, "announce", "Broadcast discovery beacons for the keystore",
			runEmitter),
		newRunCommand(&configFile, "run", "Announce and listen at the same time",
			runEmitter, runListener),
		newSampleConfigCommand(),
	)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serviceFunc func(ctx context.Context, cfg *Config, store *keystore.Store,
	metrics *discovery.Metrics) error

func newRunCommand(configFile *string, use, short string, services ...serviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg Config
			if err := loadConfig(*configFile, &cfg); err != nil {
				return err
			}
			if err := log.Setup(cfg.Logging); err != nil {
				return err
			}
			defer log.Flush()
			return run(&cfg, services)
		},
	}
}

func run(cfg *Config, services []serviceFunc) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := keystore.LoadDirectory(ctx, cfg.Discovery.Keystore)
	if err != nil {
		return err
	}
	log.Info("Keystore loaded", "dir", cfg.Discovery.Keystore, "keys", store.Len())

	metrics := discovery.NewMetrics()
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Prometheus != "" {
		runMetricsExporter(ctx, g, cfg.Metrics.Prometheus)
	}
	for _, service := range services {
		g.Go(func() error {
			defer log.HandlePanic()
			return service(ctx, cfg, store, metrics)
		})
	}
	return g.Wait()
}

func runListener(ctx context.Context, cfg *Config, store *keystore.Store,
	metrics *discovery.Metrics) error {

	listener := &discovery.Listener{
		Addr:     netip.AddrPortFrom(netip.IPv4Unspecified(), cfg.Discovery.Port),
		Keys:     store,
		Metrics:  metrics,
		OnBeacon: logDiscovery,
	}
	log.Info("Listening for beacons", "port", cfg.Discovery.Port)
	return listener.Run(ctx)
}

func runEmitter(ctx context.Context, cfg *Config, store *keystore.Store,
	metrics *discovery.Metrics) error {

	emitter := &discovery.Emitter{
		Keys: store,
		Destination: netip.AddrPortFrom(
			netip.AddrFrom4([4]byte{255, 255, 255, 255}), cfg.Discovery.Port),
		RescanInterval: time.Duration(cfg.Discovery.Timesleep) * time.Second,
		SentBeacons:    metrics.BeaconsSent,
	}
	log.Info("Broadcasting beacons", "port", cfg.Discovery.Port)
	return emitter.Run(ctx)
}

func logDiscovery(public [beacon.MemberSize]byte, challenge [8]byte, tag, source string) bool {
	if public == beacon.NullKey {
		log.Info("Peer present", "source", source,
			"challenge", hex.EncodeToString(challenge[:]))
		return true
	}
	log.Info("Peer discovered", "source", source, "tag", tag,
		"key", hex.EncodeToString(public[:8]))
	return true
}

func runMetricsExporter(ctx context.Context, g *errgroup.Group, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}
	g.Go(func() error {
		defer log.HandlePanic()
		log.Info("Metrics exporter listening", "addr", addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer log.HandlePanic()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
}

func newSampleConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sample-config",
		Short: "Print a sample configuration file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), configSample)
		},
	}
}
