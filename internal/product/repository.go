package product

import (
	"context"
	"database/sql"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Product, error)
	List(ctx context.Context, opts ListOptions) ([]Product, error)

	// ReserveStock decrements stock by qty only if at least qty units remain.
	// The check and the decrement are a single statement so concurrent
	// reservations on the same product can never oversell.
	ReserveStock(ctx context.Context, id string, qty int) error

	// RestoreStock reverses an applied reservation.
	RestoreStock(ctx context.Context, id string, qty int) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (id, name, description, price_cents, stock, category)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, name, description, price_cents, stock, category, created_at`,
		p.ID, p.Name, p.Description, p.PriceCents, p.Stock, p.Category,
	).Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &p.Category, &p.CreatedAt)

	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to insert product",
			zap.String("name", p.Name),
			zap.Error(err),
		)
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Update(ctx context.Context, p Product) (Product, error) {
	err := r.db.QueryRowContext(ctx,
		`UPDATE products
		 SET name = $2, description = $3, price_cents = $4, stock = $5, category = $6
		 WHERE id = $1
		 RETURNING id, name, description, price_cents, stock, category, created_at`,
		p.ID, p.Name, p.Description, p.PriceCents, p.Stock, p.Category,
	).Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &p.Category, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, price_cents, stock, category, created_at
		 FROM products WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &p.Category, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	query := `SELECT id, name, description, price_cents, stock, category, created_at
	          FROM products`
	args := []any{}
	if opts.Category != nil {
		query += ` WHERE category = $1`
		args = append(args, *opts.Category)
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &p.Category, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) ReserveStock(ctx context.Context, id string, qty int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
		id, qty,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Reservation did not apply. Re-read stock so the caller can report the
	// shortfall; the count is advisory and may already be stale.
	var available int
	err = r.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1`, id).Scan(&available)
	if err == sql.ErrNoRows {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}

	return &InsufficientStockError{ProductID: id, Requested: qty, Available: available}
}

func (r *repository) RestoreStock(ctx context.Context, id string, qty int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = stock + $2 WHERE id = $1`,
		id, qty,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to restore stock",
			zap.String("product_id", id),
			zap.Int("qty", qty),
			zap.Error(err),
		)
	}
	return err
}
