package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/samirrijal/hazardboard/internal/adapters/parquet"
	"github.com/samirrijal/hazardboard/internal/adapters/sqlite"
	"github.com/samirrijal/hazardboard/internal/pkg/config"
	"github.com/samirrijal/hazardboard/internal/pkg/logging"
)

const usage = `usage:
  firepoints import <source.parquet> <snapshot.db>   copy every row into a SQLite snapshot
  firepoints up <snapshot.db>                        apply schema migrations
  firepoints down <snapshot.db>                      roll back schema migrations
  firepoints version <snapshot.db>                   print the schema version`

func main() {
	if len(os.Args) < 3 {
		log.Fatal(usage)
	}

	cfg, err := config.Load("hazardboard-firepoints")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, "text", "hazardboard-firepoints")

	ctx := context.Background()
	switch cmd := os.Args[1]; cmd {
	case "import":
		if len(os.Args) < 4 {
			log.Fatal(usage)
		}
		err = importParquet(ctx, os.Args[2], os.Args[3], cfg.Dataset.BatchSize)
	case "up", "down", "version":
		err = migrateCmd(cmd, os.Args[2])
	default:
		log.Fatalf("unknown command: %s\n%s", cmd, usage)
	}
	if err != nil {
		slog.Error("firepoints failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

// importParquet replaces the rows of the snapshot at dst with the rows of src.
// A failed import leaves the previous rows in place.
// Rows are copied as read; decoding happens when the dashboard loads the snapshot.
func importParquet(ctx context.Context, src, dst string, batchSize int64) error {
	start := time.Now()
	rows, err := parquet.NewSource(batchSize).ReadFires(ctx, src)
	if err != nil {
		return err
	}

	db, err := sqlite.Open(dst)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.MigrateUp(); err != nil {
		return err
	}

	n, err := sqlite.NewFireStore(db).ReplaceFires(ctx, rows)
	if err != nil {
		return err
	}

	slog.Info("snapshot written", "source", src, "snapshot", dst, "rows", n, "duration", time.Since(start).String())
	return nil
}

func migrateCmd(cmd, path string) error {
	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	switch cmd {
	case "up":
		err = db.MigrateUp()
	case "down":
		err = db.MigrateDown()
	default:
		version, dirty, verr := db.MigrateVersion()
		if verr != nil {
			return verr
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "direction", cmd, "snapshot", path)
	return nil
}
