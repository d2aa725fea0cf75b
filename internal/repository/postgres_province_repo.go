package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/foodatlas/internal/model"
)

// PostgresProvinceRepo はPostgreSQLを使用した省リポジトリ。
type PostgresProvinceRepo struct {
	db *sql.DB
}

// NewPostgresProvinceRepo はPostgresProvinceRepoを生成する。
func NewPostgresProvinceRepo(db *sql.DB) *PostgresProvinceRepo {
	return &PostgresProvinceRepo{db: db}
}

const provinceColumns = `code, name, region_code, slug, center_lat, center_lng, description, image_url, image_urls, created_at, updated_at`

// FindByCode は指定コードの省を取得する。見つからない場合はnilを返す。
func (r *PostgresProvinceRepo) FindByCode(ctx context.Context, code string) (*model.Province, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+provinceColumns+` FROM provinces WHERE code = $1`,
		code,
	)
	province, err := scanProvince(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find province by code: %w", err)
	}
	return province, nil
}

// List は省一覧をコード昇順で返す。regionCodeが非空の場合は当該地域の省のみに絞り込む。
func (r *PostgresProvinceRepo) List(ctx context.Context, regionCode string) ([]*model.Province, error) {
	query := `SELECT ` + provinceColumns + ` FROM provinces`
	args := []any{}
	if regionCode != "" {
		query += ` WHERE region_code = $1`
		args = append(args, regionCode)
	}
	query += ` ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list provinces: %w", err)
	}
	defer rows.Close()

	var provinces []*model.Province
	for rows.Next() {
		province, err := scanProvince(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan province: %w", err)
		}
		provinces = append(provinces, province)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate provinces: %w", err)
	}

	return provinces, nil
}

// ExistsByRegionCode は指定地域を参照する省が存在するかを返す。
// LIMIT 1による有界な存在チェックで、依存件数の列挙は行わない。
func (r *PostgresProvinceRepo) ExistsByRegionCode(ctx context.Context, regionCode string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM provinces WHERE region_code = $1 LIMIT 1`,
		regionCode,
	).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check provinces by region code: %w", err)
	}
	return true, nil
}

// Create は省を作成する。
func (r *PostgresProvinceRepo) Create(ctx context.Context, p *model.Province) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO provinces (`+provinceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.Code, p.Name, p.RegionCode, p.Slug, p.CenterLat, p.CenterLng,
		p.Description, p.ImageURL, pq.Array(p.ImageURLs), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert province: %w", err)
	}
	return nil
}

// Update は省を更新する。コード（主キー）は変更されない。
func (r *PostgresProvinceRepo) Update(ctx context.Context, p *model.Province) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE provinces
		 SET name = $2, region_code = $3, slug = $4, center_lat = $5, center_lng = $6,
		     description = $7, image_url = $8, image_urls = $9, updated_at = $10
		 WHERE code = $1`,
		p.Code, p.Name, p.RegionCode, p.Slug, p.CenterLat, p.CenterLng,
		p.Description, p.ImageURL, pq.Array(p.ImageURLs), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update province: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("province not found: %s", p.Code)
	}
	return nil
}

// DeleteByCode は指定コードの省を削除する。
func (r *PostgresProvinceRepo) DeleteByCode(ctx context.Context, code string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM provinces WHERE code = $1`,
		code,
	)
	if err != nil {
		return fmt.Errorf("failed to delete province: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("province not found: %s", code)
	}
	return nil
}

// rowScanner はsql.Rowとsql.Rowsの共通Scanインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProvince は1行分の省データをスキャンする。
func scanProvince(row rowScanner) (*model.Province, error) {
	p := &model.Province{}
	err := row.Scan(
		&p.Code, &p.Name, &p.RegionCode, &p.Slug, &p.CenterLat, &p.CenterLng,
		&p.Description, &p.ImageURL, pq.Array(&p.ImageURLs), &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// compile-time interface check
var _ ProvinceRepository = (*PostgresProvinceRepo)(nil)
