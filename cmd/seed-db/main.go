// Command seed-db loads the catalog fixture and a starter set of promo codes
// into the database. It is idempotent: rerunning updates rows in place.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/xenking/smartstore/db"
	"github.com/xenking/smartstore/internal/domain/catalog"
	"github.com/xenking/smartstore/internal/domain/promo"
	"github.com/xenking/smartstore/internal/storage/postgres"
)

type productJSON struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	CategoryID    string           `json:"category_id"`
	CategoryName  string           `json:"category_name"`
	Image         string           `json:"image"`
	Images        []string         `json:"images"`
	Rating        float64          `json:"rating"`
	NumReviews    int              `json:"num_reviews"`
	Stock         int              `json:"stock"`
	Available     bool             `json:"is_available"`
	Featured      bool             `json:"is_featured"`
	Trending      bool             `json:"is_trending"`
}

// seedPromos is the starter promo set for development environments.
var seedPromos = []promo.Rule{
	{Code: "WELCOME10", Percent: decimal.NewFromInt(10), Description: "Welcome: 10% off", Active: true},
	{Code: "HAPPYHRS", Percent: decimal.NewFromInt(18), Description: "Happy Hours: 18% off", Active: true},
	{Code: "FIFTYOFF", Percent: decimal.NewFromInt(50), MinSubtotal: decimal.NewFromInt(100), Description: "50% off orders over $100", Active: true},
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "path to products JSON file (default: embedded fixture)")
	flag.Parse()

	// Local development convenience; a missing .env is fine.
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

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedPromoCodes(ctx, postgres.NewPromoRepository(pool)); err != nil {
		return errors.Wrap(err, "seed promo codes")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	data := db.SeedProducts
	if productsFile != "" {
		slog.Info("reading products file", slog.String("path", productsFile))
		var err error
		data, err = os.ReadFile(productsFile)
		if err != nil {
			return errors.Wrap(err, "read products file")
		}
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	for _, p := range products {
		cp := catalog.Product{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price,
			CategoryID:   p.CategoryID,
			CategoryName: p.CategoryName,
			Image:        p.Image,
			Images:       p.Images,
			Rating:       p.Rating,
			NumReviews:   p.NumReviews,
			Stock:        p.Stock,
			Available:    p.Available,
			Featured:     p.Featured,
			Trending:     p.Trending,
		}
		if p.DiscountPrice != nil {
			cp.DiscountPrice = decimal.NewNullDecimal(*p.DiscountPrice)
		}

		if err := repo.Upsert(ctx, cp); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

func seedPromoCodes(ctx context.Context, repo *postgres.PromoRepository) error {
	for _, rule := range seedPromos {
		if err := repo.Upsert(ctx, rule); err != nil {
			return errors.Wrapf(err, "upsert promo %s", rule.Code)
		}
	}

	slog.Info("promo codes seeded", slog.Int("count", len(seedPromos)))
	return nil
}
