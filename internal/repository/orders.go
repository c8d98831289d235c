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

const orderColumns = `id, user_id, status, total_price_cents, shipping_address, payment_id, payment_status, payment_type, paid_at, delivered_at, created_at`

// CreateOrders сохраняет все заказы одной оплаты в единой транзакции:
// либо создаются заказы всех магазинов из корзины, либо ни одного.
func (r *PostgresRepository) CreateOrders(ctx context.Context, orders []model.Order) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		for i := range orders {
			o := &orders[i]
			err := tx.QueryRow(ctx,
				`INSERT INTO orders (user_id, status, total_price_cents, shipping_address, payment_id, payment_status, payment_type, paid_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				 RETURNING id, created_at`,
				o.UserID, string(o.Status), o.TotalPriceCents, o.ShippingAddress,
				o.PaymentInfo.ID, o.PaymentInfo.Status, o.PaymentInfo.Type, o.PaidAt,
			).Scan(&o.ID, &o.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert order: %w", err)
			}

			for j := range o.Items {
				item := &o.Items[j]
				_, err := tx.Exec(ctx,
					`INSERT INTO order_items (order_id, product_id, shop_id, name, quantity, discount_price_cents)
					 VALUES ($1, $2, $3, $4, $5, $6)`,
					o.ID, item.ProductID, item.ShopID, item.Name, item.Quantity, item.DiscountPriceCents,
				)
				if err != nil {
					return mapOrderItemError(err, item.ProductID)
				}
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// mapOrderItemError переводит нарушение внешнего ключа при вставке позиции
// заказа в ErrNotFound: позиция ссылается на несуществующий товар или магазин.
func mapOrderItemError(err error, productID int64) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	return fmt.Errorf("insert order item: %w", err)
}

func (r *PostgresRepository) loadOrderItems(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	if len(orderIDs) == 0 {
		return map[int64][]model.OrderItem{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, shop_id, name, quantity, discount_price_cents, is_reviewed
		 FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY id`,
		orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var orderID int64
		var item model.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.ShopID, &item.Name,
			&item.Quantity, &item.DiscountPriceCents, &item.IsReviewed); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[orderID] = append(items[orderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func scanOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &status, &o.TotalPriceCents, &o.ShippingAddress,
			&o.PaymentInfo.ID, &o.PaymentInfo.Status, &o.PaymentInfo.Type,
			&o.PaidAt, &o.DeliveredAt, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = model.OrderStatus(status)
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

func (r *PostgresRepository) attachItems(ctx context.Context, orders []model.Order) ([]model.Order, error) {
	ids := make([]int64, 0, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
	}

	items, err := r.loadOrderItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// GetOrderByID возвращает заказ с позициями.
func (r *PostgresRepository) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	var o model.Order
	var status string
	err := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.UserID, &status, &o.TotalPriceCents, &o.ShippingAddress,
		&o.PaymentInfo.ID, &o.PaymentInfo.Status, &o.PaymentInfo.Type,
		&o.PaidAt, &o.DeliveredAt, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.Status = model.OrderStatus(status)

	items, err := r.loadOrderItems(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]

	return &o, nil
}

// GetOrdersByUser возвращает заказы покупателя, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select user orders: %w", err)
	}

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	return r.attachItems(ctx, orders)
}

// GetOrdersByShop возвращает заказы, содержащие позиции указанного магазина,
// новые первыми.
func (r *PostgresRepository) GetOrdersByShop(ctx context.Context, shopID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE id IN (SELECT order_id FROM order_items WHERE shop_id = $1)
		 ORDER BY created_at DESC`,
		shopID)
	if err != nil {
		return nil, fmt.Errorf("select shop orders: %w", err)
	}

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	return r.attachItems(ctx, orders)
}

// GetAllOrders возвращает все заказы платформы, новые первыми.
func (r *PostgresRepository) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY delivered_at DESC NULLS LAST, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	return r.attachItems(ctx, orders)
}

// guardStatus переводит заказ из статуса from в to; перевод защищён от
// конкурентного изменения статуса другим запросом.
func guardStatus(ctx context.Context, tx pgx.Tx, orderID int64, from, to model.OrderStatus) error {
	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`,
		orderID, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// TransitionOrder выполняет перевод статуса без побочных эффектов.
func (r *PostgresRepository) TransitionOrder(ctx context.Context, orderID int64, from, to model.OrderStatus) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := guardStatus(ctx, tx, orderID, from, to); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// MarkOrderTransferred переводит заказ в "Transferred to delivery partner"
// и списывает остатки: по каждой позиции stock уменьшается на количество,
// sold_out увеличивается. Статус и остатки меняются в одной транзакции.
func (r *PostgresRepository) MarkOrderTransferred(ctx context.Context, orderID int64, from model.OrderStatus) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := guardStatus(ctx, tx, orderID, from, model.OrderStatusTransferred); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE products p
			 SET stock = p.stock - oi.quantity,
			     sold_out = p.sold_out + oi.quantity
			 FROM order_items oi
			 WHERE oi.order_id = $1 AND p.id = oi.product_id`,
			orderID,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// MarkOrderDelivered переводит заказ в "Delivered": проставляет время
// доставки, помечает платёж успешным и атомарно зачисляет продавцу сумму
// заказа за вычетом комиссии платформы.
func (r *PostgresRepository) MarkOrderDelivered(ctx context.Context, orderID int64, from model.OrderStatus, creditCents int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		tag, err := tx.Exec(ctx,
			`UPDATE orders
			 SET status = $3, delivered_at = now(), payment_status = 'Succeeded'
			 WHERE id = $1 AND status = $2`,
			orderID, string(from), string(model.OrderStatusDelivered))
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrInvalidTransition
		}

		_, err = tx.Exec(ctx,
			`UPDATE shops
			 SET available_balance_cents = available_balance_cents + $2
			 WHERE id = (SELECT shop_id FROM order_items WHERE order_id = $1 LIMIT 1)`,
			orderID, creditCents,
		)
		if err != nil {
			return fmt.Errorf("credit seller balance: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// MarkOrderRefundSuccess переводит заказ в "Refund Success" и возвращает
// остатки: по каждой позиции stock увеличивается, sold_out уменьшается.
// Обратная операция к MarkOrderTransferred.
func (r *PostgresRepository) MarkOrderRefundSuccess(ctx context.Context, orderID int64, from model.OrderStatus) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := guardStatus(ctx, tx, orderID, from, model.OrderStatusRefundSuccess); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE products p
			 SET stock = p.stock + oi.quantity,
			     sold_out = p.sold_out - oi.quantity
			 FROM order_items oi
			 WHERE oi.order_id = $1 AND p.id = oi.product_id`,
			orderID,
		)
		if err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}
