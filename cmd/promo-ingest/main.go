// Command promo-ingest loads bulk promotional code lists into the coupons
// table. Marketing partners each export a gzipped newline-delimited list of
// codes; a code counts as agreed (and becomes a live coupon) only when it
// appears in at least two partner lists. Lists run to hundreds of millions of
// lines, so membership across files is tested with bloom filters instead of
// holding full sets in memory.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/bloomstead/flowershop/internal/domain/coupon"
	"github.com/bloomstead/flowershop/internal/repository"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000_000
	minCodeLen    = 8
	maxCodeLen    = 10
)

// listResult holds candidate codes found in a single list during pass 2.
type listResult struct {
	candidates map[string]uint
}

func main() {
	var (
		dataDir     string
		databaseURL string
		discount    int
		validDays   int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing partner .gz code lists")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&discount, "discount", 10, "discount percentage for ingested codes (0-100)")
	flag.IntVar(&validDays, "valid-days", 30, "validity window in days, starting now")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if discount < 0 || discount > 100 {
		slog.Error("discount must be between 0 and 100", slog.Int("discount", discount))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, discount, validDays); err != nil {
		slog.Error("promo ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, discount, validDays int) error {
	lists, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(lists) < 2 {
		return errors.Errorf("need at least 2 partner lists in %s, found %d", dataDir, len(lists))
	}

	// Pass 1: build one bloom filter per list, concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("lists", len(lists)))

	filters, err := buildBloomFilters(ctx, lists)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: find codes appearing in 2+ lists.
	slog.Info("pass 2: finding agreed codes")

	agreed, err := findAgreedCodes(ctx, lists, filters)
	if err != nil {
		return errors.Wrap(err, "find agreed codes")
	}

	slog.Info("agreed codes found", slog.Int("count", len(agreed)))

	if len(agreed) == 0 {
		slog.Info("no codes to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := writeCoupons(ctx, repository.NewCouponRepository(pool), agreed, discount, validDays); err != nil {
		return errors.Wrap(err, "write coupons to database")
	}

	return nil
}

// buildBloomFilters creates one bloom filter per list, concurrently.
func buildBloomFilters(ctx context.Context, lists []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(lists))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range lists {
		g.Go(buildFilterForList(ctx, i, path, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForList(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzList(ctx, path, func(code string) {
			if len(code) >= minCodeLen && len(code) <= maxCodeLen {
				filter.AddString(code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress",
						slog.Int("list", idx+1),
						slog.Uint64("codes", count),
					)
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for list %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("list", idx+1),
			slog.Uint64("total_codes", count),
		)

		filters[idx] = filter
		return nil
	}
}

// findAgreedCodes re-streams each list and checks codes against OTHER lists'
// bloom filters. A code is agreed when it appears in 2 or more lists.
func findAgreedCodes(ctx context.Context, lists []string, filters []*bloom.BloomFilter) ([]string, error) {
	results := make([]listResult, len(lists))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range lists {
		g.Go(findCandidatesInList(ctx, i, path, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge per-list bitmasks.
	merged := make(map[string]uint)
	for _, r := range results {
		for code, mask := range r.candidates {
			merged[code] |= mask
		}
	}

	var agreed []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			agreed = append(agreed, code)
		}
	}

	return agreed, nil
}

func findCandidatesInList(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []listResult,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		listBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzList(ctx, path, func(code string) {
			if len(code) < minCodeLen || len(code) > maxCodeLen {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("list", idx+1),
					slog.Uint64("codes", count),
				)
			}

			// Check whether this code appears in any OTHER list's filter.
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(code) {
					candidates[code] |= listBit
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan list %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("list", idx+1),
			slog.Uint64("total_codes", count),
			slog.Int("candidates", len(candidates)),
		)

		results[idx] = listResult{candidates: candidates}
		return nil
	}
}

// streamGzList opens a gzip-compressed list and calls fn for each line.
func streamGzList(ctx context.Context, path string, fn func(code string)) error {
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
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writeCoupons upserts all agreed codes as live coupons sharing one validity
// window and discount.
func writeCoupons(ctx context.Context, repo *repository.CouponRepository, codes []string, discount, validDays int) error {
	slog.Info("writing coupons to database",
		slog.Int("count", len(codes)),
		slog.Int("discount", discount),
		slog.Int("valid_days", validDays),
	)

	validFrom := time.Now().UTC()
	validTo := validFrom.AddDate(0, 0, validDays)

	for i, code := range codes {
		c := coupon.Coupon{
			ID:        uuid.New().String(),
			Code:      code,
			ValidFrom: validFrom,
			ValidTo:   validTo,
			Discount:  discount,
			Active:    true,
		}
		if err := repo.Upsert(ctx, &c); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", code)
		}

		if (i+1)%100 == 0 || i+1 == len(codes) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(codes)))
		}
	}

	return nil
}
