// Package product provides the repository, cache and service for catalog products.
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/product-catalog/internal/paging"
)

var (
	ErrNotFound        = errors.New("product not found")
	ErrDuplicateSKU    = errors.New("product sku already exists")
	ErrInvalidCategory = errors.New("category does not exist")
	ErrInvalidProduct  = errors.New("product violates a value constraint")
)

// Repository persists products. The embedded Source is the ordered range
// query used by search.
type Repository interface {
	paging.Source[Product]
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

const selectColumns = `id, category_id, name, COALESCE(description, ''), price::text, sku,
	weight_kg::text, created_at, updated_at`

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, category_id, name, description, price, sku, weight_kg, created_at, updated_at)
		VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8,$9)
	`, p.ID, p.CategoryID, p.Name, p.Description, p.Price.String(), p.SKU, p.WeightKg.String(), p.CreatedAt, p.UpdatedAt)
	return mapWriteErr("insert product", err)
}

func (r *PGRepo) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *PGRepo) Update(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `
		UPDATE products
		SET category_id = $2,
		    name = $3,
		    description = NULLIF($4,''),
		    price = $5,
		    weight_kg = $6,
		    updated_at = $7
		WHERE id = $1
	`, p.ID, p.CategoryID, p.Name, p.Description, p.Price.String(), p.WeightKg.String(), p.UpdatedAt)
	if err := mapWriteErr("update product", err); err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// FetchTop returns the newest products matching query.
func (r *PGRepo) FetchTop(ctx context.Context, query string, limit int) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+selectColumns+`
		FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, likeEscape(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return collect(rows)
}

// FetchAfter returns products strictly older than before.
func (r *PGRepo) FetchAfter(ctx context.Context, query string, before time.Time, limit int) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+selectColumns+`
		FROM products
		WHERE created_at < $2
		  AND ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, likeEscape(query), before, limit)
	if err != nil {
		return nil, fmt.Errorf("search products after cursor: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p             Product
		price, weight string
	)
	if err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &price, &p.SKU, &weight, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	if p.WeightKg, err = decimal.NewFromString(weight); err != nil {
		return nil, fmt.Errorf("parse weight %q: %w", weight, err)
	}
	return &p, nil
}

func mapWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateSKU
		case "23503":
			return ErrInvalidCategory
		case "23514":
			return ErrInvalidProduct
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeEscape escapes LIKE wildcards so the match is a plain substring match.
// The text is otherwise passed through as given.
func likeEscape(q string) string {
	return likeReplacer.Replace(q)
}
