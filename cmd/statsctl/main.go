package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fadedpez/scrapstats/internal/backend"
	"github.com/fadedpez/scrapstats/internal/config"
	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/pkg/ledger"
	"github.com/fadedpez/scrapstats/pkg/storage"
	"github.com/fadedpez/scrapstats/pkg/storage/file"
)

func main() {
	// Define command-line flags
	copyCmd := flag.NewFlagSet("copy", flag.ExitOnError)
	backupsCmd := flag.NewFlagSet("backups", flag.ExitOnError)

	// Copy command options
	from := copyCmd.String("from", "", "Storage method to read from (internal, mysql, sqlite, postgres, elasticsearch)")
	to := copyCmd.String("to", "", "Storage method to write to")
	timeout := copyCmd.Duration("timeout", 5*time.Minute, "Time limit for the whole copy")

	// Show usage if no arguments provided
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel))

	// Parse command
	switch os.Args[1] {
	case "copy":
		copyCmd.Parse(os.Args[2:])
		if *from == "" || *to == "" {
			fmt.Println("Error: both -from and -to are required")
			copyCmd.Usage()
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(ctx, *timeout)
		defer cancel()

		n, err := copyStats(ctx, cfg, *from, *to, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error copying stats: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Copied gambling stats for %d players from %s to %s\n", n, *from, *to)

	case "backups":
		backupsCmd.Parse(os.Args[2:])
		if err := listBackups(cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing backups: %v\n", err)
			os.Exit(1)
		}

	case "help":
		printUsage()

	default:
		fmt.Printf("Error: Unknown command '%s'\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  statsctl copy -from METHOD -to METHOD  - Copy every player's stats between backends")
	fmt.Println("  statsctl backups                       - List snapshot backups, newest first")
	fmt.Println("  statsctl help                          - Show this help")
	fmt.Println("\nConnection settings come from the same STATS_* environment and config file as statsbot.")
	fmt.Println("\nExamples:")
	fmt.Println("  statsctl copy -from internal -to postgres")
	fmt.Println("  statsctl copy -from mysql -to elasticsearch")
}

// copyStats loads every entry from one backend and flushes it into another
func copyStats(ctx context.Context, cfg *config.Config, from, to string, logger *logging.Logger) (int, error) {
	if storage.NormalizeMethod(from) == storage.NormalizeMethod(to) {
		return 0, fmt.Errorf("source and target are both %s", storage.NormalizeMethod(from))
	}

	src, err := backend.Open(cfg, from, logger)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	dst, err := backend.Open(cfg, to, logger)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	return copyBackend(ctx, src, dst)
}

func copyBackend(ctx context.Context, src, dst storage.Backend) (int, error) {
	if err := src.InitSchema(ctx); err != nil {
		return 0, fmt.Errorf("cannot prepare %s: %w", src.Name(), err)
	}
	entries, err := src.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot load %s: %w", src.Name(), err)
	}

	if err := dst.InitSchema(ctx); err != nil {
		return 0, fmt.Errorf("cannot prepare %s: %w", dst.Name(), err)
	}

	l := ledger.New()
	l.Replace(entries)
	if err := dst.Flush(ctx, l.Snapshot()); err != nil {
		return 0, fmt.Errorf("cannot write %s: %w", dst.Name(), err)
	}
	return len(entries), nil
}

func listBackups(cfg *config.Config, logger *logging.Logger) error {
	opts := file.NewOptions()
	opts.DataDir = cfg.DataDir
	opts.InstanceName = cfg.InstanceName
	opts.BackupCount = cfg.BackupCount
	opts.Logger = logger

	fs, err := file.New(opts)
	if err != nil {
		return err
	}

	backups, err := fs.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Printf("No backups in %s\n", fs.BackupDir())
		return nil
	}
	for _, b := range backups {
		fmt.Printf("%s  %s\n", b.CreatedAt.Format(time.RFC3339), b.Name)
	}
	return nil
}
