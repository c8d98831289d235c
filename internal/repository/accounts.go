package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmeshcher/marketplace-system/internal/model"
)

const userColumns = `id, name, email, password_hash, role, avatar_url, phone, addresses, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.AvatarURL, &u.Phone, &u.Addresses, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateUser создаёт нового пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role, avatar_url, phone)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.AvatarURL, u.Phone,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UpdateUserInfo обновляет профиль пользователя.
func (r *PostgresRepository) UpdateUserInfo(ctx context.Context, id int64, name, phone string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET name = $2, phone = $3 WHERE id = $1`, id, name, phone)
	if err != nil {
		return fmt.Errorf("update user info: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserAddresses заменяет список сохранённых адресов пользователя.
func (r *PostgresRepository) UpdateUserAddresses(ctx context.Context, id int64, addresses []model.UserAddress) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET addresses = $2 WHERE id = $1`, id, addresses)
	if err != nil {
		return fmt.Errorf("update user addresses: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserPassword меняет пароль пользователя.
func (r *PostgresRepository) UpdateUserPassword(ctx context.Context, id int64, passwordHash []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAllUsers возвращает всех пользователей, новые первыми.
func (r *PostgresRepository) GetAllUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.AvatarURL, &u.Phone, &u.Addresses, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

// DeleteUser удаляет пользователя по идентификатору.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const shopColumns = `id, name, email, password_hash, description, address, phone, zip_code, avatar_url, available_balance_cents, created_at`

func scanShop(row pgx.Row) (*model.Shop, error) {
	var s model.Shop
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.Description, &s.Address,
		&s.Phone, &s.ZipCode, &s.AvatarURL, &s.AvailableBalanceCents, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan shop: %w", err)
	}
	return &s, nil
}

// CreateShop создаёт новый магазин.
func (r *PostgresRepository) CreateShop(ctx context.Context, s *model.Shop) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO shops (name, email, password_hash, description, address, phone, zip_code, avatar_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		s.Name, s.Email, s.PasswordHash, s.Description, s.Address, s.Phone, s.ZipCode, s.AvatarURL,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrShopExists, s.Email)
		}
		return 0, fmt.Errorf("create shop: %w", err)
	}
	return id, nil
}

// GetShopByEmail возвращает магазин по email.
func (r *PostgresRepository) GetShopByEmail(ctx context.Context, email string) (*model.Shop, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+shopColumns+` FROM shops WHERE email = $1`, email)
	return scanShop(row)
}

// GetShopByID возвращает магазин по идентификатору.
func (r *PostgresRepository) GetShopByID(ctx context.Context, id int64) (*model.Shop, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+shopColumns+` FROM shops WHERE id = $1`, id)
	return scanShop(row)
}

// UpdateShopInfo обновляет профиль магазина.
func (r *PostgresRepository) UpdateShopInfo(ctx context.Context, id int64, name, description, address, phone, zipCode string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE shops SET name = $2, description = $3, address = $4, phone = $5, zip_code = $6 WHERE id = $1`,
		id, name, description, address, phone, zipCode)
	if err != nil {
		return fmt.Errorf("update shop info: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAllShops возвращает все магазины, новые первыми.
func (r *PostgresRepository) GetAllShops(ctx context.Context) ([]model.Shop, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+shopColumns+` FROM shops ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select shops: %w", err)
	}
	defer rows.Close()

	var shops []model.Shop
	for rows.Next() {
		var s model.Shop
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.Description, &s.Address,
			&s.Phone, &s.ZipCode, &s.AvatarURL, &s.AvailableBalanceCents, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan shop: %w", err)
		}
		shops = append(shops, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return shops, nil
}

// DeleteShop удаляет магазин по идентификатору.
func (r *PostgresRepository) DeleteShop(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM shops WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetShopTransactions возвращает историю зачтённых операций продавца, новые первыми.
func (r *PostgresRepository) GetShopTransactions(ctx context.Context, shopID int64) ([]model.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, withdrawal_id, amount_cents, status, created_at
		 FROM shop_transactions
		 WHERE shop_id = $1
		 ORDER BY created_at DESC`,
		shopID,
	)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var res []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.WithdrawalID, &t.AmountCents, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		res = append(res, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// SetResetToken сохраняет токен восстановления пароля для пользователя или магазина.
func (r *PostgresRepository) SetResetToken(ctx context.Context, table string, email, token string, expiresAt time.Time) error {
	var query string
	switch table {
	case "users":
		query = `UPDATE users SET reset_token = $2, reset_token_expires_at = $3 WHERE email = $1`
	case "shops":
		query = `UPDATE shops SET reset_token = $2, reset_token_expires_at = $3 WHERE email = $1`
	default:
		return fmt.Errorf("unknown principal table %q", table)
	}

	tag, err := r.pool.Exec(ctx, query, email, token, expiresAt)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindEmailByResetToken возвращает email аккаунта с действующим токеном
// восстановления. Токен ищется и среди пользователей, и среди магазинов.
func (r *PostgresRepository) FindEmailByResetToken(ctx context.Context, token string) (string, error) {
	var email string
	err := r.pool.QueryRow(ctx,
		`SELECT email FROM users WHERE reset_token = $1 AND reset_token_expires_at > now()`,
		token).Scan(&email)
	if err == nil {
		return email, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("find user by reset token: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT email FROM shops WHERE reset_token = $1 AND reset_token_expires_at > now()`,
		token).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("find shop by reset token: %w", err)
	}
	return email, nil
}

// ResetPasswordByToken меняет пароль по действующему токену восстановления и
// гасит токен. Токен ищется и среди пользователей, и среди магазинов.
func (r *PostgresRepository) ResetPasswordByToken(ctx context.Context, token string, passwordHash []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, reset_token = NULL, reset_token_expires_at = NULL
		 WHERE reset_token = $1 AND reset_token_expires_at > now()`,
		token, passwordHash)
	if err != nil {
		return fmt.Errorf("reset user password: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	tag, err = r.pool.Exec(ctx,
		`UPDATE shops SET password_hash = $2, reset_token = NULL, reset_token_expires_at = NULL
		 WHERE reset_token = $1 AND reset_token_expires_at > now()`,
		token, passwordHash)
	if err != nil {
		return fmt.Errorf("reset shop password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
