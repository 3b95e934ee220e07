package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"rewear/internal/logger"
	"rewear/internal/similarity"
	"syscall"
)

func main() {
	log := logger.New(logger.Config{Writer: os.Stderr, Level: "info"})

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.WithError(err).Fatal("imagematch failed")
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("imagematch", flag.ContinueOnError)
	query := fs.String("query", "query.jpg", "query image")
	gallery := fs.String("gallery", "gallery", "directory of .jpg/.jpeg/.png images")
	k := fs.Int("k", 5, "number of matches to print")
	asJSON := fs.Bool("json", false, "print matches as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	matches, err := similarity.Rank(ctx, similarity.NewHistogramEmbedder(), *query, *gallery, *k)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}
	fmt.Fprintf(out, "Query: %s\n", *query)
	for i, m := range matches {
		fmt.Fprintf(out, "%d: %s (score: %.3f)\n", i+1, m.Path, m.Score)
	}
	return nil
}
