package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/signalhouse/replaycore/internal/api"
	"github.com/signalhouse/replaycore/internal/auth"
	"github.com/signalhouse/replaycore/internal/config"
	"github.com/signalhouse/replaycore/internal/events"
	"github.com/signalhouse/replaycore/internal/ledger"
	"github.com/signalhouse/replaycore/internal/ledger/sqlstore"
	"github.com/signalhouse/replaycore/internal/registry"
)

func main() {
	if err := runFn(os.Args[1:], os.Getenv, listenAndServe, newServer); err != nil {
		fatalf("server error: %v", err)
	}
}

var runFn = run
var fatalf = log.Fatalf

func newServer(cfg config.Config) (*http.Server, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	reg := registry.NewInMemoryRegistry()
	if cfg.RegistryPath != "" {
		loaded, err := registry.LoadSnapshot(cfg.RegistryPath)
		if err != nil {
			return nil, fmt.Errorf("load registry: %w", err)
		}
		reg = loaded
	}

	emitter, err := newEmitter(cfg)
	if err != nil {
		return nil, err
	}

	service := api.NewReplayService(store, reg, cfg.ReportsDir, emitter)
	h := &api.Handler{
		Auth:    auth.NewAuthenticatorFromEnv(),
		Service: service,
	}

	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}

func openStore(cfg config.Config) (ledger.Store, error) {
	switch cfg.DB.Driver {
	case "sqlite":
		store, err := sqlstore.OpenSQLite(cfg.DB.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := ledger.Migrate(store.DB()); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return store, nil
	default:
		return ledger.NewInMemoryStore(), nil
	}
}

func newEmitter(cfg config.Config) (events.Emitter, error) {
	if cfg.Events.PubSubTopic == "" {
		return events.NewLogEmitter(), nil
	}
	pub, err := events.NewPubSubEmitter(context.Background(), cfg.Events.PubSubProject, cfg.Events.PubSubTopic)
	if err != nil {
		return nil, fmt.Errorf("pubsub emitter: %w", err)
	}
	return events.NewMultiEmitter(events.NewLogEmitter(), pub), nil
}

type envFn func(string) string
type listenFn func(*http.Server) error
type serverFactory func(cfg config.Config) (*http.Server, error)

func run(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
	fs := flag.NewFlagSet("replay-gateway", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to replaycore config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = getenv("REPLAYCORE_CONFIG_PATH")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	server, err := factory(cfg)
	if err != nil {
		return err
	}

	log.Printf("replay-gateway listening on %s", cfg.ListenAddr)
	if err := listen(server); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func listenAndServe(server *http.Server) error {
	return server.ListenAndServe()
}
