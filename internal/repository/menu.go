package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"quickbite/internal/common/database"
	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/logger"
	"quickbite/internal/models"
)

const menuColumns = `id, name, description, price, COALESCE(photo_url, ''), COALESCE(category, ''), created_at, updated_at`

type MenuRepository struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewMenuRepository(db *database.PostgresClient, log logger.Logger) *MenuRepository {
	return &MenuRepository{
		db:     db,
		logger: log.With(map[string]interface{}{"repository": "menu"}),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMenuItem(row rowScanner) (*models.MenuItem, error) {
	var item models.MenuItem
	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.Price,
		&item.PhotoURL, &item.Category, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *MenuRepository) queryOne(ctx context.Context, op, query string, args ...interface{}) (*models.MenuItem, error) {
	item, err := scanMenuItem(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrMenuItemNotFound
	}
	if err != nil {
		return nil, apperrors.NewPersistenceFailureError(op, err)
	}
	return item, nil
}

// FindMenuItemByExactName matches the whole name, ignoring case.
func (r *MenuRepository) FindMenuItemByExactName(ctx context.Context, name string) (*models.MenuItem, error) {
	return r.queryOne(ctx, "find menu item by name",
		`SELECT `+menuColumns+` FROM menu_items WHERE lower(name) = lower($1) LIMIT 1`,
		strings.TrimSpace(name))
}

// FindMenuItemBySubstring returns the lowest-id item whose name contains
// needle or is contained in it, ignoring case.
func (r *MenuRepository) FindMenuItemBySubstring(ctx context.Context, needle string) (*models.MenuItem, error) {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return nil, models.ErrMenuItemNotFound
	}
	return r.queryOne(ctx, "find menu item by substring",
		`SELECT `+menuColumns+` FROM menu_items
		 WHERE name ILIKE '%' || $1 || '%' ESCAPE '\' OR strpos(lower($2), lower(name)) > 0
		 ORDER BY id LIMIT 1`,
		escapeLike(needle), needle)
}

func (r *MenuRepository) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	return r.queryOne(ctx, "get menu item",
		`SELECT `+menuColumns+` FROM menu_items WHERE id = $1`, id)
}

func (r *MenuRepository) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := r.db.Query(ctx, `SELECT `+menuColumns+` FROM menu_items ORDER BY id`)
	if err != nil {
		return nil, apperrors.NewPersistenceFailureError("list menu items", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, apperrors.NewPersistenceFailureError("scan menu item", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceFailureError("list menu items", err)
	}
	return items, nil
}

// UpdateMenuItemPrice sets the price of the item whose name matches itemName
// ignoring case.
func (r *MenuRepository) UpdateMenuItemPrice(ctx context.Context, itemName string, newPrice float64) error {
	res, err := r.db.Exec(ctx,
		`UPDATE menu_items SET price = $1, updated_at = now() WHERE lower(name) = lower($2)`,
		newPrice, strings.TrimSpace(itemName))
	if err != nil {
		return apperrors.NewPersistenceFailureError("update menu item price", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewPersistenceFailureError("update menu item price", err)
	}
	if n == 0 {
		return models.ErrMenuItemNotFound
	}

	r.logger.Info("menu price updated", map[string]interface{}{
		"itemName": itemName,
		"newPrice": newPrice,
	})
	return nil
}

// UpsertMenuItem inserts item or, when the name already exists, refreshes its
// description, price, photo and category. The stored row is returned.
func (r *MenuRepository) UpsertMenuItem(ctx context.Context, item models.MenuItem) (*models.MenuItem, error) {
	if item.Name == "" || item.Price <= 0 {
		return nil, fmt.Errorf("invalid menu item %q: name and positive price required", item.Name)
	}
	return r.queryOne(ctx, "upsert menu item", `
		INSERT INTO menu_items (name, description, price, photo_url, category)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		ON CONFLICT (lower(name)) DO UPDATE SET
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			photo_url = EXCLUDED.photo_url,
			category = EXCLUDED.category,
			updated_at = now()
		RETURNING `+menuColumns,
		item.Name, item.Description, item.Price, item.PhotoURL, item.Category)
}
