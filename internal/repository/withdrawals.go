package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/marketplace-system/internal/model"
)

// CreateWithdrawal создаёт заявку на вывод средств и списывает сумму с
// баланса продавца. Строка магазина блокируется на время транзакции, чтобы
// параллельные заявки не увели баланс в минус.
func (r *PostgresRepository) CreateWithdrawal(ctx context.Context, shopID, amountCents int64) (*model.Withdrawal, error) {
	var w model.Withdrawal

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var balance int64
		err = tx.QueryRow(ctx,
			`SELECT available_balance_cents FROM shops WHERE id = $1 FOR UPDATE`,
			shopID,
		).Scan(&balance)
		if err != nil {
			return fmt.Errorf("lock shop for update: %w", err)
		}

		if amountCents > balance {
			return ErrInsufficientBalance
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO withdrawals (shop_id, amount_cents, status)
			 VALUES ($1, $2, $3)
			 RETURNING id, shop_id, amount_cents, status, created_at, updated_at`,
			shopID, amountCents, model.WithdrawalStatusProcessing,
		).Scan(&w.ID, &w.ShopID, &w.AmountCents, &w.Status, &w.CreatedAt, &w.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert withdrawal: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE shops SET available_balance_cents = available_balance_cents - $2 WHERE id = $1`,
			shopID, amountCents,
		)
		if err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &w, nil
}

// GetAllWithdrawals возвращает все заявки на вывод средств, новые первыми.
func (r *PostgresRepository) GetAllWithdrawals(ctx context.Context) ([]model.Withdrawal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, shop_id, amount_cents, status, created_at, updated_at
		 FROM withdrawals
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select withdrawals: %w", err)
	}
	defer rows.Close()

	var res []model.Withdrawal
	for rows.Next() {
		var w model.Withdrawal
		if err := rows.Scan(&w.ID, &w.ShopID, &w.AmountCents, &w.Status, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		res = append(res, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ApproveWithdrawal подтверждает заявку: статус "Processing" переходит в
// "succeed", в историю продавца добавляется зачтённая операция. Подтвердить
// можно только заявку в статусе "Processing".
func (r *PostgresRepository) ApproveWithdrawal(ctx context.Context, id int64) (*model.Withdrawal, error) {
	var w model.Withdrawal

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		err = tx.QueryRow(ctx,
			`UPDATE withdrawals
			 SET status = $2, updated_at = now()
			 WHERE id = $1 AND status = $3
			 RETURNING id, shop_id, amount_cents, status, created_at, updated_at`,
			id, model.WithdrawalStatusSucceed, model.WithdrawalStatusProcessing,
		).Scan(&w.ID, &w.ShopID, &w.AmountCents, &w.Status, &w.CreatedAt, &w.UpdatedAt)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("approve withdrawal: %w", err)
			}
			// Либо заявки нет, либо она уже подтверждена.
			var exists bool
			if checkErr := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM withdrawals WHERE id = $1)`, id,
			).Scan(&exists); checkErr != nil {
				return fmt.Errorf("check withdrawal: %w", checkErr)
			}
			if !exists {
				return ErrNotFound
			}
			return ErrInvalidTransition
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO shop_transactions (shop_id, withdrawal_id, amount_cents, status, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			w.ShopID, w.ID, w.AmountCents, w.Status, w.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &w, nil
}
