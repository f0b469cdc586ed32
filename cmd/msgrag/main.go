package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"msgrag/internal/app"
	"msgrag/internal/config"
	"msgrag/internal/server"
)

func main() {
	file := flag.String("file", "", "Path to the message export file")
	format := flag.String("format", "", "Format of the input file (imessage, signal or pdf)")
	db := flag.String("db", "", "Path to the vector DB directory")
	listen := flag.Int("listen", 0, "Port to serve the HTTP API on (0 = disabled)")
	excerpts := flag.Bool("excerpts", false, "Print retrieved excerpts after each answer")
	flag.Parse()

	// Flags take precedence over the environment.
	if *db != "" {
		os.Setenv("DATA_DIR", *db)
	}

	_ = godotenv.Load()

	cfg := config.Config{}
	if err := config.Init(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}

	a, err := app.New(&cfg)
	if err != nil {
		log.Fatalf("failed to create app: %v", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	switch {
	case *listen > 0:
		srv := server.New(a.Pipeline())
		if err := srv.ListenAndServe(ctx, *listen); err != nil {
			log.Fatalf("server stopped with error: %v", err)
		}
	case *file != "":
		if *format == "" {
			log.Fatal("Error: --format is required with --file\nUsage: msgrag --file=messages.txt --format=imessage")
		}
		if err := a.Ingest(ctx, *file, *format); err != nil {
			log.Fatalf("ingest failed: %v", err)
		}
	default:
		a.SetPrintExcerpts(*excerpts)
		if err := a.Run(ctx); err != nil {
			log.Fatalf("app stopped with error: %v", err)
		}
	}
}
