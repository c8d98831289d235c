package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmeshcher/marketplace-system/internal/model"
)

const productColumns = `id, shop_id, name, description, category, original_price_cents, discount_price_cents, stock, sold_out, ratings, created_at`

func scanProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.ShopID, &p.Name, &p.Description, &p.Category,
			&p.OriginalPriceCents, &p.DiscountPriceCents, &p.Stock, &p.SoldOut, &p.Ratings, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// CreateProduct создаёт товар магазина.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (shop_id, name, description, category, original_price_cents, discount_price_cents, stock)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		p.ShopID, p.Name, p.Description, p.Category, p.OriginalPriceCents, p.DiscountPriceCents, p.Stock,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return 0, fmt.Errorf("%w: shop %d", ErrNotFound, p.ShopID)
		}
		return 0, fmt.Errorf("create product: %w", err)
	}
	return id, nil
}

// GetProductByID возвращает товар по идентификатору.
func (r *PostgresRepository) GetProductByID(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	err := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.ShopID, &p.Name, &p.Description, &p.Category,
		&p.OriginalPriceCents, &p.DiscountPriceCents, &p.Stock, &p.SoldOut, &p.Ratings, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetAllProducts возвращает все товары, новые первыми.
func (r *PostgresRepository) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return scanProducts(rows)
}

// GetProductsByShop возвращает товары одного магазина, новые первыми.
func (r *PostgresRepository) GetProductsByShop(ctx context.Context, shopID int64) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE shop_id = $1 ORDER BY created_at DESC`, shopID)
	if err != nil {
		return nil, fmt.Errorf("select shop products: %w", err)
	}
	return scanProducts(rows)
}

// DeleteProduct удаляет товар магазина. Товар чужого магазина удалить нельзя.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id, shopID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM products WHERE id = $1 AND shop_id = $2`, id, shopID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReview сохраняет отзыв о товаре, пересчитывает рейтинг товара и
// помечает позицию заказа как отрецензированную. Повторный отзыв того же
// пользователя заменяет прежний. Все изменения применяются в одной транзакции.
func (r *PostgresRepository) AddReview(ctx context.Context, review *model.Review, orderID int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		_, err = tx.Exec(ctx,
			`INSERT INTO product_reviews (product_id, user_id, rating, comment)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (product_id, user_id)
			 DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment`,
			review.ProductID, review.UserID, review.Rating, review.Comment,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
				return fmt.Errorf("%w: product %d", ErrNotFound, review.ProductID)
			}
			return fmt.Errorf("upsert review: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE products
			 SET ratings = (SELECT AVG(rating) FROM product_reviews WHERE product_id = $1)
			 WHERE id = $1`,
			review.ProductID,
		)
		if err != nil {
			return fmt.Errorf("update ratings: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE order_items SET is_reviewed = TRUE
			 WHERE order_id = $1 AND product_id = $2`,
			orderID, review.ProductID,
		)
		if err != nil {
			return fmt.Errorf("mark item reviewed: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

const eventColumns = `id, shop_id, name, description, category, original_price_cents, discount_price_cents, stock, start_date, finish_date, status, created_at`

func scanEvents(rows pgx.Rows) ([]model.Event, error) {
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.ShopID, &e.Name, &e.Description, &e.Category,
			&e.OriginalPriceCents, &e.DiscountPriceCents, &e.Stock,
			&e.StartDate, &e.FinishDate, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return events, nil
}

// CreateEvent создаёт акцию магазина.
func (r *PostgresRepository) CreateEvent(ctx context.Context, e *model.Event) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO events (shop_id, name, description, category, original_price_cents, discount_price_cents, stock, start_date, finish_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		e.ShopID, e.Name, e.Description, e.Category, e.OriginalPriceCents, e.DiscountPriceCents,
		e.Stock, e.StartDate, e.FinishDate,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return 0, fmt.Errorf("%w: shop %d", ErrNotFound, e.ShopID)
		}
		return 0, fmt.Errorf("create event: %w", err)
	}
	return id, nil
}

// GetAllEvents возвращает все акции, новые первыми.
func (r *PostgresRepository) GetAllEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	return scanEvents(rows)
}

// GetEventsByShop возвращает акции одного магазина, новые первыми.
func (r *PostgresRepository) GetEventsByShop(ctx context.Context, shopID int64) ([]model.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE shop_id = $1 ORDER BY created_at DESC`, shopID)
	if err != nil {
		return nil, fmt.Errorf("select shop events: %w", err)
	}
	return scanEvents(rows)
}

// DeleteEvent удаляет акцию магазина.
func (r *PostgresRepository) DeleteEvent(ctx context.Context, id, shopID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM events WHERE id = $1 AND shop_id = $2`, id, shopID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const couponColumns = `id, shop_id, name, value_percent, min_amount_cents, max_amount_cents, product_id, created_at`

// CreateCoupon создаёт купон магазина. Имя купона уникально на всей платформе.
func (r *PostgresRepository) CreateCoupon(ctx context.Context, c *model.CouponCode) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO coupon_codes (shop_id, name, value_percent, min_amount_cents, max_amount_cents, product_id)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		c.ShopID, c.Name, c.ValuePercent, c.MinAmountCents, c.MaxAmountCents, c.ProductID,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return 0, fmt.Errorf("%w: %s", ErrCouponExists, c.Name)
			case pgerrcode.ForeignKeyViolation:
				return 0, fmt.Errorf("%w: shop %d", ErrNotFound, c.ShopID)
			}
		}
		return 0, fmt.Errorf("create coupon: %w", err)
	}
	return id, nil
}

// GetCouponsByShop возвращает купоны магазина, новые первыми.
func (r *PostgresRepository) GetCouponsByShop(ctx context.Context, shopID int64) ([]model.CouponCode, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+couponColumns+` FROM coupon_codes WHERE shop_id = $1 ORDER BY created_at DESC`, shopID)
	if err != nil {
		return nil, fmt.Errorf("select coupons: %w", err)
	}
	defer rows.Close()

	var coupons []model.CouponCode
	for rows.Next() {
		var c model.CouponCode
		if err := rows.Scan(&c.ID, &c.ShopID, &c.Name, &c.ValuePercent,
			&c.MinAmountCents, &c.MaxAmountCents, &c.ProductID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return coupons, nil
}

// GetCouponByName возвращает купон по имени.
func (r *PostgresRepository) GetCouponByName(ctx context.Context, name string) (*model.CouponCode, error) {
	var c model.CouponCode
	err := r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupon_codes WHERE name = $1`, name,
	).Scan(&c.ID, &c.ShopID, &c.Name, &c.ValuePercent,
		&c.MinAmountCents, &c.MaxAmountCents, &c.ProductID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return &c, nil
}

// DeleteCoupon удаляет купон магазина.
func (r *PostgresRepository) DeleteCoupon(ctx context.Context, id, shopID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM coupon_codes WHERE id = $1 AND shop_id = $2`, id, shopID)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
