// Copyright 2025 Fathomlight
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
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/fathomlight/docsmith"
	"github.com/fathomlight/docsmith/config"
	"github.com/fathomlight/docsmith/core"
	"github.com/fathomlight/docsmith/search"
	"github.com/fathomlight/docsmith/storage"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "docsmith",
		Usage: "Document ingestion and semantic search over a local vector store",
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
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the vector store directory (overrides config)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a document from a local file or URL",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Document ID (generated when omitted)",
					},
					&cli.StringFlag{
						Name:  "owner",
						Usage: "Owner ID recorded on the document and its chunks",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "Fetch content from this URL instead of a local file",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search ingested documents",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   search.DefaultTopK,
					},
					&cli.StringFlag{
						Name:  "owner",
						Usage: "Restrict results to this owner",
					},
					&cli.StringSliceFlag{
						Name:  "document",
						Usage: "Restrict results to these document IDs (repeatable)",
					},
					&cli.StringFlag{
						Name:  "file-type",
						Usage: "Restrict results to documents of this file type",
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Drop results below this similarity score",
					},
				},
			},
			{
				Name:      "status",
				Usage:     "Show a document's processing status",
				ArgsUsage: "<document-id>",
				Action:    statusCommand,
			},
			{
				Name:   "list",
				Usage:  "List all ingested documents",
				Action: listCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and all its chunks",
				ArgsUsage: "<document-id>",
				Action:    deleteCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openIndex builds an Index from the resolved configuration, with
// command-line overrides applied on top.
func openIndex(c *cli.Context) (*docsmith.Index, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if db := c.String("db"); db != "" {
		cfg.Store.Path = db
		cfg.Store.InMemory = false
	}

	return docsmith.OpenFromConfig(cfg)
}

func ingestCommand(c *cli.Context) error {
	url := c.String("url")
	file := c.Args().First()
	if file == "" && url == "" {
		return fmt.Errorf("a file argument or --url is required")
	}

	var (
		content string
		source  string
	)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		content = string(data)
		source = filepath.Base(file)
	} else {
		source = url
	}

	id := c.String("id")
	if id == "" {
		id = core.NewDocumentID()
	}
	name := c.String("name")
	if name == "" {
		name = source
	}

	doc := &core.Document{
		ID:          id,
		OwnerID:     c.String("owner"),
		Name:        name,
		FileType:    strings.TrimPrefix(filepath.Ext(name), "."),
		Size:        int64(len(content)),
		StoragePath: url,
	}

	idx, err := openIndex(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	fmt.Fprintf(os.Stderr, "Ingesting %s as %s\n", source, id)
	result, err := idx.Process(context.Background(), doc, content, func(completed, total int) {
		fmt.Fprintf(os.Stderr, "\rProgress: %3d%%", completed*100/total)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Document:  %s\n", result.DocumentID)
	fmt.Printf("Outcome:   %s\n", result.Outcome)
	fmt.Printf("Chunks:    %d stored, %d failed of %d\n",
		result.SuccessfulChunks, result.FailedChunks, result.TotalChunks)
	fmt.Printf("Elapsed:   %s\n", result.Elapsed.Round(1e6))
	for _, w := range result.Warnings {
		fmt.Printf("Warning:   %s\n", w)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	queryText := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if queryText == "" {
		return fmt.Errorf("a query argument is required")
	}

	idx, err := openIndex(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	results, err := idx.Search(context.Background(), &search.Query{
		Text:        queryText,
		TopK:        c.Int("top-k"),
		OwnerID:     c.String("owner"),
		DocumentIDs: c.StringSlice("document"),
		FileType:    c.String("file-type"),
		MinScore:    float32(c.Float64("min-score")),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%2d. [%.3f] %s (%s, chunk %d)\n", i+1, r.Score,
			r.Chunk.DocumentName, r.Chunk.DocumentID, r.Chunk.Index)
		fmt.Printf("    %s\n", excerpt(r.Chunk.Content, 200))
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("a document-id argument is required")
	}

	idx, err := openIndex(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	doc, err := idx.Status(context.Background(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("document %s not found", id)
		}
		return err
	}

	fmt.Printf("Document:  %s\n", doc.ID)
	fmt.Printf("Name:      %s\n", doc.Name)
	fmt.Printf("Status:    %s (%d%%)\n", doc.Status, doc.Progress)
	fmt.Printf("Chunks:    %d\n", doc.ChunkCount)
	if doc.EmbeddingModel != "" {
		fmt.Printf("Model:     %s\n", doc.EmbeddingModel)
	}
	if doc.ErrorMessage != "" {
		fmt.Printf("Error:     %s\n", doc.ErrorMessage)
	}
	if !doc.UpdatedAt.IsZero() {
		fmt.Printf("Updated:   %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func listCommand(c *cli.Context) error {
	idx, err := openIndex(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	docs, err := idx.Documents(context.Background())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents.")
		return nil
	}
	for _, doc := range docs {
		fmt.Printf("%-36s  %-10s %3d%%  %4d chunks  %s\n",
			doc.ID, doc.Status, doc.Progress, doc.ChunkCount, doc.Name)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("a document-id argument is required")
	}

	idx, err := openIndex(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	if err := idx.Delete(context.Background(), id); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
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

// excerpt trims s to at most n characters on a word boundary.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	cut := strings.LastIndex(s[:n], " ")
	if cut <= 0 {
		cut = n
	}
	return s[:cut] + "…"
}
