// Seeder populates a local docsmith index with sample documents, or with
// the files of a directory, for manual testing of search quality.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fathomlight/docsmith"
	"github.com/fathomlight/docsmith/core"
	"github.com/fathomlight/docsmith/ingest"
)

var (
	dbPath  = flag.String("db", "./docsmith_db", "path to the vector store directory")
	seedDir = flag.String("dir", "", "seed every regular file under this directory instead of the built-in samples")
	owner   = flag.String("owner", "seeder", "owner ID recorded on seeded documents")
	workers = flag.Int("workers", 2, "concurrent ingestion workers")
)

var samples = map[string]string{
	"raft-notes.md": `# Raft in brief

Raft elects a single leader per term. Followers grant their vote to the
first candidate whose log is at least as up to date as their own.

## Log replication

The leader appends entries locally, then replicates them to followers.
An entry is committed once a majority of the cluster has stored it.

## Safety

A leader never overwrites or deletes entries in its own log. Committed
entries survive leader changes because voting rules prevent a stale
candidate from winning.`,

	"sourdough.md": `# Sourdough starter

Mix equal weights of flour and water and leave the jar loosely covered
at room temperature. Discard half and feed daily.

After about a week the starter doubles within a few hours of feeding
and smells pleasantly sour. It is now ready for baking.

Keep the mature starter in the fridge and feed it weekly.`,

	"onboarding.md": `# Service onboarding checklist

Every new service needs an owner, an on-call rotation, and a dashboard
before it takes production traffic.

Request database credentials through the platform portal. Secrets are
injected at deploy time and must never be committed to the repository.

Add the service to the weekly capacity review once it serves more than
one thousand requests per second.`,
}

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	idx, err := docsmith.Open(*dbPath)
	if err != nil {
		logger.Error("failed to open index", "path", *dbPath, "err", err)
		os.Exit(1)
	}
	defer idx.Close()

	docs, err := collect()
	if err != nil {
		logger.Error("failed to collect seed documents", "err", err)
		os.Exit(1)
	}

	svc, err := idx.NewService(ingest.WithPoolSize(*workers))
	if err != nil {
		logger.Error("failed to create ingestion service", "err", err)
		os.Exit(1)
	}

	for name, content := range docs {
		doc := &core.Document{
			ID:       core.NewDocumentID(),
			OwnerID:  *owner,
			Name:     name,
			FileType: strings.TrimPrefix(filepath.Ext(name), "."),
			Size:     int64(len(content)),
		}
		if err := svc.Enqueue(doc, content); err != nil {
			logger.Error("failed to enqueue document", "name", name, "err", err)
		}
	}
	svc.Release()

	listed, err := idx.Documents(context.Background())
	if err != nil {
		logger.Error("failed to list documents", "err", err)
		os.Exit(1)
	}
	for _, doc := range listed {
		fmt.Printf("%-36s  %-10s  %s\n", doc.ID, doc.Status, doc.Name)
	}
}

// collect returns the documents to seed: directory contents when -dir is
// set, the built-in samples otherwise.
func collect() (map[string]string, error) {
	if *seedDir == "" {
		return samples, nil
	}

	docs := make(map[string]string)
	entries, err := os.ReadDir(*seedDir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(*seedDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		docs[entry.Name()] = string(data)
	}
	return docs, nil
}
