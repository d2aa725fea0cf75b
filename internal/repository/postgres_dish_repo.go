package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/foodatlas/internal/model"
)

// PostgresDishRepo はPostgreSQLを使用した料理リポジトリ。
type PostgresDishRepo struct {
	db *sql.DB
}

// NewPostgresDishRepo はPostgresDishRepoを生成する。
func NewPostgresDishRepo(db *sql.DB) *PostgresDishRepo {
	return &PostgresDishRepo{db: db}
}

const dishColumns = `id, name, slug, province_code, region_code, category, price_range,
	best_time, best_season, tags, spicy_level, satiety_level, image_url, images,
	description, created_at, updated_at`

// FindByID は指定IDの料理を取得する。見つからない場合はnilを返す。
func (r *PostgresDishRepo) FindByID(ctx context.Context, id string) (*model.Dish, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+dishColumns+` FROM dishes WHERE id = $1`,
		id,
	)
	dish, err := scanDish(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dish by ID: %w", err)
	}
	return dish, nil
}

// Search は料理一覧を名前昇順で返す。
// qが非空の場合はname/slugの部分一致（大文字小文字無視）で絞り込む。
func (r *PostgresDishRepo) Search(ctx context.Context, q string) ([]*model.Dish, error) {
	query := `SELECT ` + dishColumns + ` FROM dishes`
	args := []any{}
	if q != "" {
		query += ` WHERE name ILIKE $1 OR slug ILIKE $1`
		args = append(args, "%"+escapeLike(q)+"%")
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search dishes: %w", err)
	}
	defer rows.Close()

	var dishes []*model.Dish
	for rows.Next() {
		dish, err := scanDish(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dish: %w", err)
		}
		dishes = append(dishes, dish)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dishes: %w", err)
	}

	return dishes, nil
}

// Create は料理を作成する。
func (r *PostgresDishRepo) Create(ctx context.Context, d *model.Dish) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dishes (`+dishColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		d.ID, d.Name, d.Slug, d.ProvinceCode, d.RegionCode, d.Category, d.PriceRange,
		d.BestTime, d.BestSeason, pq.Array(d.Tags), d.SpicyLevel, d.SatietyLevel,
		d.ImageURL, pq.Array(d.Images), d.Description, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dish: %w", err)
	}
	return nil
}

// Update は料理を更新する。ID（主キー）は変更されない。
func (r *PostgresDishRepo) Update(ctx context.Context, d *model.Dish) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE dishes
		 SET name = $2, slug = $3, province_code = $4, region_code = $5, category = $6,
		     price_range = $7, best_time = $8, best_season = $9, tags = $10,
		     spicy_level = $11, satiety_level = $12, image_url = $13, images = $14,
		     description = $15, updated_at = $16
		 WHERE id = $1`,
		d.ID, d.Name, d.Slug, d.ProvinceCode, d.RegionCode, d.Category,
		d.PriceRange, d.BestTime, d.BestSeason, pq.Array(d.Tags),
		d.SpicyLevel, d.SatietyLevel, d.ImageURL, pq.Array(d.Images),
		d.Description, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update dish: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("dish not found: %s", d.ID)
	}
	return nil
}

// DeleteByID は指定IDの料理を削除する。
func (r *PostgresDishRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM dishes WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete dish: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("dish not found: %s", id)
	}
	return nil
}

// escapeLike はILIKEパターンのメタ文字をエスケープする。
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// scanDish は1行分の料理データをスキャンする。
func scanDish(row rowScanner) (*model.Dish, error) {
	d := &model.Dish{}
	err := row.Scan(
		&d.ID, &d.Name, &d.Slug, &d.ProvinceCode, &d.RegionCode, &d.Category,
		&d.PriceRange, &d.BestTime, &d.BestSeason, pq.Array(&d.Tags),
		&d.SpicyLevel, &d.SatietyLevel, &d.ImageURL, pq.Array(&d.Images),
		&d.Description, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// compile-time interface check
var _ DishRepository = (*PostgresDishRepo)(nil)
