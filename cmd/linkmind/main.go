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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/linkmind"
	"github.com/poiesic/linkmind/ai"
	"github.com/poiesic/linkmind/api"
	"github.com/poiesic/linkmind/core"
	"github.com/poiesic/linkmind/ingestion"
	"github.com/poiesic/linkmind/reembed"
)

func main() {
	app := &cli.App{
		Name:   "linkmind",
		Usage:  "Link archiver with AI summaries and recommendations",
		Before: setupLogger,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the archiver API and processing workers",
				Action: serveCommand,
				Flags: append(dbFlags(), aiFlags(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "HTTP listen address",
						Value: ":8080",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of processing workers (0 = half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Processing attempts before a link fails permanently",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-interval",
						Usage: "How often to re-queue failed links (0 disables)",
						Value: time.Hour,
					},
				),
			},
			{
				Name:      "add",
				Usage:     "Queue one or more URLs for archiving",
				ArgsUsage: "URL [URL ...]",
				Action:    addCommand,
				Flags:     dbFlags(),
			},
			{
				Name:      "status",
				Usage:     "Show the processing state of a link",
				ArgsUsage: "ID",
				Action:    statusCommand,
				Flags:     dbFlags(),
			},
			{
				Name:      "recommend",
				Usage:     "List links similar to a completed link",
				ArgsUsage: "ID",
				Action:    recommendCommand,
				Flags: append(dbFlags(),
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"k"},
						Usage:   "Number of recommendations",
						Value:   5,
					},
				),
			},
			{
				Name:   "retry-failed",
				Usage:  "Re-queue failed links that have attempts left",
				Action: retryFailedCommand,
				Flags:  dbFlags(),
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate embeddings for all completed links",
				Action: reembedCommand,
				Flags: append(dbFlags(),
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of links to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N links",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
			Value:   "./linkmind_db",
		},
	}
}

func aiFlags() cli.Flag {
	return &cli.StringFlag{
		Name:  "ai-host",
		Usage: "OpenAI-compatible service host URL",
		Value: "http://localhost:11434/v1",
	}
}

func openArchive(c *cli.Context, opts ...linkmind.ArchiveOption) (*linkmind.Archive, error) {
	archive, err := linkmind.NewArchive(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return archive, nil
}

func serveCommand(c *cli.Context) error {
	aiConfig := ai.NewConfig(ai.WithHost(c.String("ai-host")))

	archive, err := openArchive(c, linkmind.WithAIConfig(aiConfig))
	if err != nil {
		return err
	}
	defer archive.Close()

	pipelineOpts := []ingestion.Option{
		ingestion.WithMaxAttempts(c.Int("max-attempts")),
	}
	if workers := c.Int("workers"); workers > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithWorkers(workers))
	}

	pipeline, err := archive.NewPipeline(pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	engine, err := archive.NewRecommendEngine()
	if err != nil {
		return fmt.Errorf("failed to create recommendation engine: %w", err)
	}

	server, err := api.NewServer(pipeline, engine)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	pipeline.Start()
	defer pipeline.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Periodic retry of failed links with attempts remaining.
	if interval := c.Duration("retry-interval"); interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if _, err := pipeline.RetryFailed(ctx); err != nil {
						slog.Error("error re-queueing failed links", "err", err)
					}
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(c.String("addr"))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func addCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one URL is required")
	}

	archive, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	pipeline, err := archive.NewPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	ctx := context.Background()
	for _, url := range c.Args().Slice() {
		id, err := pipeline.Submit(ctx, url)
		if err != nil {
			return fmt.Errorf("failed to submit %s: %w", url, err)
		}
		fmt.Printf("%d\t%s\n", id, url)
	}

	fmt.Fprintln(os.Stderr, "Queued. Links are processed while `linkmind serve` is running.")
	return nil
}

func statusCommand(c *cli.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	archive, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	pipeline, err := archive.NewPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	state, err := pipeline.GetStatus(context.Background(), id)
	if err != nil {
		return err
	}

	fmt.Printf("ID:       %d\n", state.Id)
	fmt.Printf("Status:   %s\n", state.Status)
	fmt.Printf("Attempts: %d\n", state.AttemptCount)
	if state.Summary != "" {
		fmt.Printf("Tags:     %s\n", strings.Join(state.Tags, ", "))
		fmt.Printf("Summary:\n%s\n", state.Summary)
	}
	if state.FailedReason != "" {
		fmt.Printf("Failure:  %s\n", state.FailedReason)
	}
	return nil
}

func recommendCommand(c *cli.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	archive, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	engine, err := archive.NewRecommendEngine()
	if err != nil {
		return fmt.Errorf("failed to create recommendation engine: %w", err)
	}

	ctx := context.Background()
	results, err := engine.Recommend(ctx, id, c.Int("count"))
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No similar links found.")
		return nil
	}

	for _, r := range results {
		link, err := archive.LinkRepository().GetLink(ctx, r.LinkID)
		if err != nil {
			return err
		}
		fmt.Printf("%d\t%.4f\t%s\n", r.LinkID, r.Distance, link.URL)
	}
	return nil
}

func retryFailedCommand(c *cli.Context) error {
	archive, err := openArchive(c)
	if err != nil {
		return err
	}
	defer archive.Close()

	pipeline, err := archive.NewPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	requeued, err := pipeline.RetryFailed(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Re-queued %d failed links\n", requeued)
	return nil
}

func reembedCommand(c *cli.Context) error {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)

	archive, err := openArchive(c, linkmind.WithAIConfig(aiConfig))
	if err != nil {
		return err
	}
	defer archive.Close()

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := archive.NewReembedder(reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(context.Background()); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

func parseID(c *cli.Context) (core.ID, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("exactly one link ID is required")
	}
	raw, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid link ID %q", c.Args().First())
	}
	return core.ID(raw), nil
}

func setupLogger(c *cli.Context) error {
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
