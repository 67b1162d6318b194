// Command careagent runs the healthcare agent dispatch gateway, either as an
// HTTP service or as a one-shot query from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Protocol-Lattice/go-careagent/internal/config"
	"github.com/Protocol-Lattice/go-careagent/pkg/agents"
	"github.com/Protocol-Lattice/go-careagent/pkg/dispatch"
	"github.com/Protocol-Lattice/go-careagent/pkg/gateway"
	"github.com/Protocol-Lattice/go-careagent/pkg/models"
	"github.com/Protocol-Lattice/go-careagent/pkg/schema"
	"github.com/Protocol-Lattice/go-careagent/pkg/session"
	"github.com/Protocol-Lattice/go-careagent/pkg/usage"
)

var version = "0.1.0"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	rootCmd := &cobra.Command{
		Use:     "careagent",
		Short:   "Healthcare agent dispatch gateway",
		Version: version,
		Long: `careagent routes healthcare questions to specialist agents backed by a
remote medical tool gateway (FDA data, PubMed, clinical trials, ICD-10).

  careagent serve          Run the HTTP API
  careagent ask <query>    Ask a question from the terminal`,
	}

	rootCmd.AddCommand(newServeCmd(log), newAskCmd(log))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the wired runtime shared by serve and ask.
type app struct {
	cfg        config.Config
	dispatcher *dispatch.Dispatcher
	agents     *agents.Registry
	sessions   *session.Manager
	usage      *usage.Store
	history    *session.HistoryStore
	log        *slog.Logger
}

func newApp(ctx context.Context, log *slog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	schemas := schema.Default()
	registry, err := agents.Default(schemas)
	if err != nil {
		return nil, err
	}

	model, err := models.NewProvider(ctx, cfg.Provider, cfg.Model)
	if err != nil {
		return nil, err
	}

	client, err := gateway.NewClient(cfg.MCPBaseURL, gateway.Options{DisableCache: cfg.DisableToolCache})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, agents: registry, sessions: session.NewManager(), log: log}

	if cfg.UsageDBPath != "" {
		store, err := usage.Open(cfg.UsageDBPath)
		if err != nil {
			return nil, err
		}
		a.usage = store
	}

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		a.history = session.NewHistoryStore(redis.NewClient(redisOpts))
	}

	dispatchOpts := dispatch.Options{
		Agents:  registry,
		Schemas: schemas,
		Model:   model,
		Gateway: client,
		Logger:  log,
	}
	if a.usage != nil {
		dispatchOpts.Usage = a.usage
	}
	a.dispatcher, err = dispatch.New(dispatchOpts)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	if a.usage != nil {
		if err := a.usage.Close(); err != nil {
			a.log.Warn("closing usage store", "error", err)
		}
	}
}
