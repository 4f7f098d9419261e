package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/storefront/internal/core/domain"
)

var ErrOptimisticLock = fmt.Errorf("optimistic lock conflict: %w", domain.ErrConflict)

const mysqlDuplicateEntry = 1062

//go:embed schema.sql
var schema string

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate applies schema.sql statement by statement so the DSN does not need
// multiStatements.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

const productColumns = `id, name, description, price, category, images, stock, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p      domain.Product
		images []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &images,
		&p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return domain.Product{}, fmt.Errorf("decode images: %w", err)
		}
	}
	return p, nil
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(m.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) GetProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	return m.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE id IN (`+placeholders+`)`, args...)
}

func (m *MySQLAdapter) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if !filter.IncludeInactive {
		where = append(where, "is_active = TRUE")
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + likeEscaper.Replace(filter.Search) + "%"
		where = append(where, "(name LIKE ? OR description LIKE ?)")
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	return m.queryProducts(ctx, query, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (m *MySQLAdapter) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, p domain.Product) error {
	images, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	_, err = m.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Category, images, p.Stock, p.Active,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, p domain.Product) (bool, error) {
	images, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return false, fmt.Errorf("encode images: %w", err)
	}
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, price = ?, category = ?, images = ?, stock = ?,
		    is_active = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Price, p.Category, images, p.Stock, p.Active, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update product: %w", err)
	}
	return m.exists(ctx, result, p.ID)
}

func (m *MySQLAdapter) DeactivateProduct(ctx context.Context, id string) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products SET is_active = FALSE, updated_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	if err != nil {
		return false, fmt.Errorf("deactivate product: %w", err)
	}
	return m.exists(ctx, result, id)
}

// exists treats zero affected rows as "gone" only when the row is really
// missing, since MySQL reports 0 for updates that change nothing.
func (m *MySQLAdapter) exists(ctx context.Context, result sql.Result, id string) (bool, error) {
	if rows, _ := result.RowsAffected(); rows > 0 {
		return true, nil
	}
	p, err := m.GetProduct(ctx, id)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

const accountColumns = `id, name, email, documento, password_hash, provider, image, role, created_at, updated_at`

func (m *MySQLAdapter) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Email, a.Documento, a.PasswordHash, a.Provider, a.Image, a.Role,
		a.CreatedAt, a.UpdatedAt,
	)
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		if strings.Contains(myErr.Message, "documento") {
			return domain.ErrDocumentTaken
		}
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return m.findAccount(ctx, "id", id)
}

func (m *MySQLAdapter) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return m.findAccount(ctx, "email", email)
}

func (m *MySQLAdapter) FindAccountByDocument(ctx context.Context, documento string) (*domain.Account, error) {
	return m.findAccount(ctx, "documento", documento)
}

// findAccount is only called with column names from this file.
func (m *MySQLAdapter) findAccount(ctx context.Context, column, value string) (*domain.Account, error) {
	var a domain.Account
	err := m.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE `+column+` = ?`, value,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Documento, &a.PasswordHash, &a.Provider, &a.Image,
		&a.Role, &a.CreatedAt, &a.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &a, nil
}

func (m *MySQLAdapter) GetCart(ctx context.Context, accountID string) (*domain.StoredCart, error) {
	var (
		cart  = domain.StoredCart{AccountID: accountID}
		items []byte
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT items, version, updated_at FROM carts WHERE account_id = ?`, accountID,
	).Scan(&items, &cart.Version, &cart.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	if err := json.Unmarshal(items, &cart.Items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	return &cart, nil
}

func (m *MySQLAdapter) SaveCart(ctx context.Context, cart domain.StoredCart) error {
	items, err := json.Marshal(nonNil(cart.Items))
	if err != nil {
		return fmt.Errorf("encode cart items: %w", err)
	}

	if cart.Version == 0 {
		_, err := m.db.ExecContext(ctx, `
			INSERT INTO carts (account_id, items, version, updated_at)
			VALUES (?, ?, 1, NOW(6))`,
			cart.AccountID, items,
		)
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return ErrOptimisticLock
		}
		if err != nil {
			return fmt.Errorf("insert cart: %w", err)
		}
		return nil
	}

	result, err := m.db.ExecContext(ctx, `
		UPDATE carts
		SET items = ?, version = version + 1, updated_at = NOW(6)
		WHERE account_id = ? AND version = ?`,
		items, cart.AccountID, cart.Version,
	)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrOptimisticLock
	}
	return nil
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, account_id, total, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.AccountID, order.Total, order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, product_id, name, unit_price, quantity)
			VALUES (?, ?, ?, ?, ?)`,
			order.ID, line.ProductID, line.Name, line.UnitPrice, line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - ?, updated_at = NOW(6)
			WHERE id = ? AND stock >= ?`,
			line.Quantity, line.ProductID, line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("update stock: %w", err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("product %s: %w", line.ProductID, domain.ErrInsufficientStock)
		}
	}

	return tx.Commit()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
