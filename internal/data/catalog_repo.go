package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/benerin/benerin-api/internal/data/pgxutil"
	"github.com/benerin/benerin-api/internal/domain/catalog"
)

const defaultListingLimit = 20

// CatalogRepo provides read access to service listings and categories.
type CatalogRepo struct {
	DB *sql.DB
}

// NewCatalogRepo creates a new CatalogRepo.
func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{DB: db}
}

const listingColumns = `
	l.id, l.mitra_id, u.name AS mitra_name, l.name, l.description, l.category,
	l.location, l.price_min, l.price_max, l.rating, l.review_count, l.created_at`

// ListListings retrieves listings matching the filter, newest first.
func (r *CatalogRepo) ListListings(ctx context.Context, f catalog.ListingFilter) ([]catalog.ServiceListing, error) {
	query, args := buildListingQuery(f)

	var out []catalog.ServiceListing
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[catalog.ServiceListing])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return out, nil
}

// buildListingQuery assembles the filtered listing query with positional args.
func buildListingQuery(f catalog.ListingFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	conds = append(conds, "u.is_active")
	if f.Query != "" {
		p := arg("%" + f.Query + "%")
		conds = append(conds, "(l.name ILIKE "+p+" OR l.description ILIKE "+p+")")
	}
	if f.Category != "" {
		conds = append(conds, "l.category = "+arg(f.Category))
	}
	if f.Location != "" {
		conds = append(conds, "l.location ILIKE "+arg("%"+f.Location+"%"))
	}
	if f.PriceMin > 0 {
		conds = append(conds, "l.price_max >= "+arg(f.PriceMin))
	}
	if f.PriceMax > 0 {
		conds = append(conds, "l.price_min <= "+arg(f.PriceMax))
	}
	if f.Rating > 0 {
		conds = append(conds, "l.rating >= "+arg(f.Rating))
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = defaultListingLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + listingColumns + `
		FROM service_listings l
		JOIN users u ON u.id = l.mitra_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY l.created_at DESC
		LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	return query, args
}

// GetListing retrieves one listing by id.
func (r *CatalogRepo) GetListing(ctx context.Context, id string) (*catalog.ServiceListing, error) {
	var out catalog.ServiceListing
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+listingColumns+`
			FROM service_listings l
			JOIN users u ON u.id = l.mitra_id
			WHERE l.id = $1
		`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[catalog.ServiceListing])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &out, nil
}

// ListCategories retrieves categories with their active listing counts.
func (r *CatalogRepo) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT c.slug, c.name, COUNT(l.id)::int AS listing_count
			FROM categories c
			LEFT JOIN service_listings l ON l.category = c.slug
			GROUP BY c.slug, c.name
			ORDER BY c.name
		`)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[catalog.Category])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// MitraSummary computes the dashboard summary for one mitra.
func (r *CatalogRepo) MitraSummary(ctx context.Context, mitraID string) (*catalog.MitraSummary, error) {
	var out catalog.MitraSummary
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT
				COUNT(*)::int AS active_listings,
				COALESCE(SUM(review_count), 0)::int AS total_reviews,
				COALESCE(AVG(rating) FILTER (WHERE review_count > 0), 0)::float8 AS average_rating
			FROM service_listings
			WHERE mitra_id = $1
		`, mitraID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[catalog.MitraSummary])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("mitra summary: %w", err)
	}
	return &out, nil
}
