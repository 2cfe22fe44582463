// Command sleepd runs HippoGraph's maintenance scheduler as a
// long-lived background process, so light sleep fires as notes are
// added elsewhere and deep sleep fires on its wall-clock interval
// even when no `hippograph add` happens to be running (§4.9).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/artemMprokhorov/hippograph-pro/infrastructure/di"
	"github.com/artemMprokhorov/hippograph-pro/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "path to hippograph.yaml")
	tickInterval := flag.Duration("tick", time.Hour, "how often to check whether deep sleep is due")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("sleepd: loading config: %v", err)
	}

	container, err := di.New(cfg)
	if err != nil {
		log.Fatalf("sleepd: initializing container: %v", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container.Logger.Info("sleepd starting", zap.Duration("tick_interval", *tickInterval))
	container.Scheduler.Start(ctx, *tickInterval)

	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath, cfg, container.Logger)
		if err != nil {
			container.Logger.Warn("config hot reload disabled", zap.Error(err))
		} else {
			watcher.OnChange(func(reloaded *config.Config) {
				container.Scheduler.SetConfig(reloaded.DomainConfig())
			})
			defer watcher.Stop()
		}
	}

	<-ctx.Done()
	container.Logger.Info("sleepd stopping")
	container.Scheduler.Stop()
}
