package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = needsServices(&cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves retrieval, answers, failure debugging and index management over
HTTP until interrupted.

Endpoints:
  GET    /health
  POST   /api/retrieve        {"query", "k", "chunk_size", "chunk_overlap"}
  POST   /api/ask             {"question"}
  POST   /api/debug           {"chunk_size", "chunk_overlap", "k"}
  GET    /api/indexes
  DELETE /api/indexes/{name}

With --watch, changes under the documents directory discard the stored
indexes; the next request rebuilds them from the current files.`,
	Args: cobra.NoArgs,
	RunE: runServe,
})

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "rebuild indexes when documents change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings := services.Settings()
	addr := settings.Server.Addr
	if cmd.Flags().Changed("addr") {
		addr = serveAddr
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		NewRetriever: services.Retriever,
		Answers:      services.Answers(),
		Indexes:      services.Indexer(),
		Debugger:     services.Debugger(),
		DefaultRun:   settings.Index.Run(),
		DefaultK:     settings.TopK,
	})
	if err != nil {
		return err
	}
	defer server.Close() //nolint:errcheck

	if serveWatch {
		changes, err := services.WatchCorpus(cmd.Context())
		if err != nil {
			return err
		}
		go refreshOnChange(cmd.Context(), changes, server.Reset)
		cmd.Printf("Watching %s\n", settings.DocumentsPath)
	}

	cmd.Printf("HTTP API listening on %s\n", addr)
	return server.ListenAndServe(cmd.Context(), addr)
}

// refreshOnChange refreshes the services and resets cached retrievers for
// every batch of corpus changes. It returns when changes is closed.
func refreshOnChange(ctx context.Context, changes <-chan []string, reset func() error) {
	for paths := range changes {
		logger.Info("Corpus changed (%d files), discarding indexes", len(paths))
		if err := services.Refresh(ctx); err != nil {
			logger.Error("Refresh failed: %v", err)
			continue
		}
		if err := reset(); err != nil {
			logger.Warn("Closing cached retrievers: %v", err)
		}
	}
}
