// Command promo-ingest loads bulk promo code dumps (gzip-compressed, one
// code per line) into the promo_codes table. Files are streamed concurrently;
// a bloom filter keeps already-written codes from being upserted twice, which
// matters when the dumps overlap heavily.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/smartstore/internal/domain/promo"
	"github.com/xenking/smartstore/internal/storage/postgres"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000_000
)

// knownRules overrides the discount for recognizable campaign codes.
// Everything else ingests as the default 10% rule.
var knownRules = map[string]promo.Rule{
	"FIFTYOFF": {Percent: decimal.NewFromInt(50), Description: "50% off entire order"},
	"SIXTYOFF": {Percent: decimal.NewFromInt(60), Description: "60% off entire order"},
	"GNULINUX": {Percent: decimal.NewFromInt(15), Description: "Open source discount: 15% off"},
	"HAPPYHRS": {Percent: decimal.NewFromInt(18), Description: "Happy Hours: 18% off"},
}

var defaultRule = promo.Rule{
	Percent:     decimal.NewFromInt(10),
	Description: "Valid promo code: 10% off",
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz promo dumps")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	_ = godotenv.Load()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("promo ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list dump files")
	}
	if len(files) == 0 {
		return errors.Errorf("no .gz files found in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewPromoRepository(pool)

	// Readers fan codes into one channel; a single writer owns the bloom
	// filter and the database connection, so no locking is needed around
	// either.
	codes := make(chan string, 4096)

	g, ctx := errgroup.WithContext(ctx)
	readers, rctx := errgroup.WithContext(ctx)

	for i, f := range files {
		readers.Go(streamFile(rctx, i, f, codes))
	}
	g.Go(func() error {
		defer close(codes)
		return readers.Wait()
	})
	g.Go(func() error {
		return writeCodes(ctx, repo, codes)
	})

	return g.Wait()
}

// streamFile reads one gzip dump and sends every well-formed code downstream.
func streamFile(ctx context.Context, idx int, path string, codes chan<- string) func() error {
	return func() error {
		var total, kept uint64

		err := scanGzLines(ctx, path, func(line string) error {
			total++
			if total%progressEvery == 0 {
				slog.Info("ingest progress",
					slog.Int("file", idx+1),
					slog.Uint64("lines", total),
				)
			}

			if !promo.ValidCode(line) {
				return nil
			}
			kept++

			select {
			case codes <- line:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			return errors.Wrapf(err, "stream file %d", idx+1)
		}

		slog.Info("file complete",
			slog.Int("file", idx+1),
			slog.Uint64("lines", total),
			slog.Uint64("valid", kept),
		)
		return nil
	}
}

// writeCodes upserts deduplicated codes. Bloom false positives drop a code
// once in ~1000, acceptable for bulk marketing dumps.
func writeCodes(ctx context.Context, repo *postgres.PromoRepository, codes <-chan string) error {
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	var written int

	for code := range codes {
		if seen.TestString(code) {
			continue
		}
		seen.AddString(code)

		rule, ok := knownRules[code]
		if !ok {
			rule = defaultRule
		}
		rule.Code = code
		rule.Active = true

		if err := repo.Upsert(ctx, rule); err != nil {
			return errors.Wrapf(err, "upsert promo %s", code)
		}

		written++
		if written%100_000 == 0 {
			slog.Info("write progress", slog.Int("written", written))
		}
	}

	slog.Info("codes written", slog.Int("count", written))
	return nil
}

// scanGzLines opens a gzip-compressed file and calls fn for each line.
func scanGzLines(ctx context.Context, path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
