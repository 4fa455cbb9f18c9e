// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/doxa"
	"github.com/poiesic/doxa/audit"
	"github.com/poiesic/doxa/config"
	"github.com/poiesic/doxa/core"
	"github.com/poiesic/doxa/corpus"
	"github.com/poiesic/doxa/ingestion"
	"github.com/poiesic/doxa/metrics"
	"github.com/poiesic/doxa/storage/postgres"
	"github.com/urfave/cli/v2"
)

// openDatabase is replaced in tests.
var openDatabase = doxa.NewDatabase

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// storageFlags returns fresh flag values; flags keep parse state and must
// not be shared between commands.
func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Chunk store: postgres or badger",
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Postgres connection string (overrides DATABASE_URL)",
			Aliases: []string{"D"},
		},
		&cli.StringFlag{
			Name:  "badger-path",
			Usage: "Directory of the embedded chunk store",
		},
		&cli.StringFlag{
			Name:  "scope",
			Usage: "Index scope: figure or paper",
		},
		&cli.IntFlag{
			Name:  "dimensions",
			Usage: "Expected embedding length (0 accepts the model's)",
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "doxa",
		Usage: "Ingest curated position statements into a retrieval corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML run configuration",
				Value:   "doxa.yaml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file",
				Value: ".env",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create the pgvector extension and the paper_chunks table",
				Action: migrateCommand,
				Flags:  storageFlags(),
			},
			{
				Name:      "inspect",
				Usage:     "Parse corpus files and report statements and rejected entries",
				ArgsUsage: "FILE...",
				Action:    inspectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "author",
						Usage: "Author for JSON databases and unlabeled lines",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Embed and store every statement of the given corpus files",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: append(storageFlags(),
					&cli.StringFlag{
						Name:  "author",
						Usage: "Author for JSON databases and unlabeled lines",
					},
					&cli.StringFlag{
						Name:  "cache-path",
						Usage: "Directory of the embedding cache (disabled when empty)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (overrides EMBEDDING_MODEL)",
					},
					&cli.StringFlag{
						Name:  "embedding-text",
						Usage: "Embedded text: domain or plain",
					},
					&cli.StringFlag{
						Name:  "display",
						Usage: "Stored content: same or rich",
					},
					&cli.IntFlag{
						Name:  "start-index",
						Usage: "First chunk index of an empty scope",
					},
					&cli.IntFlag{
						Name:  "pace-every",
						Usage: "Pause after every N embedding calls",
					},
					&cli.DurationFlag{
						Name:  "pace-delay",
						Usage: "Length of each pause",
					},
					&cli.Float64Flag{
						Name:  "rate",
						Usage: "Embedding calls per second (replaces pacing)",
					},
					&cli.IntFlag{
						Name:  "max-persisted",
						Usage: "Stop after N chunks were stored (0 for no limit)",
					},
					&cli.IntFlag{
						Name:  "max-failures",
						Usage: "Abort after N failed statements (0 for no limit)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N statements",
					},
					&cli.StringFlag{
						Name:  "metrics-addr",
						Usage: "Serve Prometheus metrics on this address",
					},
				),
			},
			{
				Name:   "audit",
				Usage:  "Check stored chunks for index gaps and mixed embedding lengths",
				Action: auditCommand,
				Flags: append(storageFlags(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of scopes inspected at once",
						Value: 4,
					},
				),
			},
		},
	}
}

// loadConfig reads the file, the environment and the command's flags, in
// increasing precedence.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	if err := config.LoadDotEnv(c.String("env-file")); err != nil {
		return nil, err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)

	stringFlags := map[string]*string{
		"backend":         &cfg.Storage.Backend,
		"database-url":    &cfg.Storage.DatabaseURL,
		"badger-path":     &cfg.Storage.BadgerPath,
		"cache-path":      &cfg.Storage.CachePath,
		"scope":           &cfg.Ingestion.ScopeMode,
		"embedding-model": &cfg.Embedding.Model,
		"embedding-text":  &cfg.Ingestion.EmbeddingText,
		"display":         &cfg.Ingestion.DisplayContent,
		"metrics-addr":    &cfg.Metrics.Addr,
	}
	for name, target := range stringFlags {
		if c.IsSet(name) {
			*target = c.String(name)
		}
	}

	intFlags := map[string]*int{
		"dimensions":      &cfg.Embedding.Dimensions,
		"start-index":     &cfg.Ingestion.StartIndex,
		"pace-every":      &cfg.Ingestion.PaceEvery,
		"max-persisted":   &cfg.Ingestion.MaxPersisted,
		"max-failures":    &cfg.Ingestion.MaxFailures,
		"report-interval": &cfg.Ingestion.ProgressEvery,
	}
	for name, target := range intFlags {
		if c.IsSet(name) {
			*target = c.Int(name)
		}
	}

	if c.IsSet("pace-delay") {
		cfg.Ingestion.PaceDelay = c.Duration("pace-delay")
	}
	if c.IsSet("rate") {
		cfg.Ingestion.RatePerSecond = c.Float64("rate")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrateCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Storage.Backend != config.BackendPostgres {
		return fmt.Errorf("migrate only applies to the postgres backend, not %q", cfg.Storage.Backend)
	}

	if err := postgres.Migrate(c.Context, cfg.Storage.DatabaseURL, cfg.Embedding.Dimensions); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Schema is up to date")
	return nil
}

func loadCorpus(c *cli.Context) (*corpus.Corpus, error) {
	if c.NArg() == 0 {
		return nil, fmt.Errorf("at least one corpus file is required")
	}

	var opts []corpus.LoadOption
	if author := c.String("author"); author != "" {
		opts = append(opts, corpus.WithAuthor(author))
	}
	return corpus.LoadFiles(c.Args().Slice(), opts...)
}

func inspectCommand(c *cli.Context) error {
	loaded, err := loadCorpus(c)
	if err != nil {
		return err
	}

	w := c.App.Writer
	for _, section := range loaded.Sections {
		count := 0
		for _, topic := range section.Topics {
			count += len(topic.Statements) + len(topic.Positions)
		}
		fmt.Fprintf(w, "%s (%s): %d topics, %d statements\n", section.Author, section.FigureID, len(section.Topics), count)
	}
	for _, rejection := range loaded.Rejected {
		fmt.Fprintf(w, "REJECTED %s\n", rejection)
	}
	fmt.Fprintf(w, "Total: %d statements, %d rejected\n", loaded.Len(), len(loaded.Rejected))

	return loaded.Validate()
}

func ingestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	loaded, err := loadCorpus(c)
	if err != nil {
		return err
	}
	for _, rejection := range loaded.Rejected {
		slog.Warn("rejected corpus entry", "location", rejection.Location, "reason", rejection.Reason)
	}
	statements := slices.Collect(loaded.Statements())

	m := metrics.New(metrics.WithDefaultCollectors())
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
				slog.Error("metrics server failed", "err", err)
			}
		}()
	}

	db, err := openDatabase(ctx, cfg, doxa.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	fmt.Fprintf(os.Stderr, "Backend: %s\n", cfg.Storage.Backend)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintf(os.Stderr, "Statements: %d (%d rejected)\n", len(statements), len(loaded.Rejected))
	fmt.Fprintln(os.Stderr)

	start := time.Now()
	result, runErr := db.Ingest(ctx, statements,
		ingestion.WithProgress(os.Stderr, cfg.Ingestion.ProgressEvery))
	if result != nil {
		printResult(c, result, time.Since(start))
	}
	if runErr != nil {
		return fmt.Errorf("ingestion failed: %w", runErr)
	}
	return nil
}

func printResult(c *cli.Context, result *core.Result, elapsed time.Duration) {
	w := c.App.Writer
	fmt.Fprintf(w, "Processed: %d  Persisted: %d  Skipped: %d  Failed: %d  (%s)\n",
		result.Processed, result.Persisted, result.Skipped, result.Failed, elapsed.Round(time.Millisecond))
	if result.Limited {
		fmt.Fprintln(w, "Stopped at the persist limit; run again to continue")
	}
	for _, f := range result.Failures {
		fmt.Fprintf(w, "FAILED #%d [%s] %s: %s: %s\n", f.Position, f.Topic, f.Prefix, f.State, f.Err)
	}
}

func auditCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store, err := doxa.OpenStore(c.Context, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	auditor, err := audit.NewAuditor(store,
		audit.WithPoolSize(c.Int("workers")),
		audit.WithByPaper(cfg.Ingestion.ScopeMode == ingestion.ScopeByPaper.String()),
		audit.WithDimensions(cfg.Embedding.Dimensions))
	if err != nil {
		return err
	}
	defer auditor.Release()

	report, err := auditor.Run(c.Context)
	if err != nil {
		return err
	}
	if err := report.Write(c.App.Writer); err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("audit found %d issues", len(report.Issues))
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
