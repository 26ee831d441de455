package main

import (
	"bufio"
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"

	"github.com/poiesic/linkmind"
	"github.com/poiesic/linkmind/ai/mock"
)

// urls is a small built-in seed set for exercising a fresh database.
var urls = []string{
	"https://en.wikipedia.org/wiki/Information_retrieval",
	"https://en.wikipedia.org/wiki/Vector_space_model",
	"https://en.wikipedia.org/wiki/Cosine_similarity",
	"https://en.wikipedia.org/wiki/Word_embedding",
	"https://en.wikipedia.org/wiki/Sentence_embedding",
	"https://en.wikipedia.org/wiki/Automatic_summarization",
	"https://en.wikipedia.org/wiki/Recommender_system",
	"https://en.wikipedia.org/wiki/Collaborative_filtering",
	"https://en.wikipedia.org/wiki/Content-based_filtering",
	"https://en.wikipedia.org/wiki/Web_crawler",
	"https://en.wikipedia.org/wiki/Readability",
	"https://en.wikipedia.org/wiki/Bookmark_(digital)",
	"https://en.wikipedia.org/wiki/Message_queue",
	"https://en.wikipedia.org/wiki/Exponential_backoff",
	"https://en.wikipedia.org/wiki/Idempotence",
}

var (
	seedFileName = flag.String("src", "", "file with one URL per line")
	dbPath       = flag.String("db", "./linkmind_db", "path to BadgerDB database directory")
	useMockAI    = flag.Bool("mock-ai", false, "use mock AI services (no external dependencies)")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

func main() {
	var opts []linkmind.ArchiveOption
	if *useMockAI {
		opts = append(opts, linkmind.WithProvider(mock.NewMockProvider()))
	}

	archive, err := linkmind.NewArchive(*dbPath, opts...)
	if err != nil {
		panic(err)
	}
	defer archive.Close()

	pipeline, err := archive.NewPipeline()
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	ctx := context.Background()

	var source iter.Seq[string]
	if seedFileName != nil && *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(urls)
	}

	queued := 0
	for url := range source {
		if url == "" {
			continue
		}
		id, err := pipeline.Submit(ctx, url)
		if err != nil {
			slog.Error("error submitting url", "url", url, "err", err)
			continue
		}
		slog.Info("queued", "id", id, "url", url)
		queued++
	}

	slog.Info("seeding complete", "queued", queued)
}
