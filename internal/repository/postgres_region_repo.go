package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodatlas/internal/model"
)

// PostgresRegionRepo はPostgreSQLを使用した地域リポジトリ。
type PostgresRegionRepo struct {
	db *sql.DB
}

// NewPostgresRegionRepo はPostgresRegionRepoを生成する。
func NewPostgresRegionRepo(db *sql.DB) *PostgresRegionRepo {
	return &PostgresRegionRepo{db: db}
}

// FindByCode は指定コードの地域を取得する。見つからない場合はnilを返す。
func (r *PostgresRegionRepo) FindByCode(ctx context.Context, code string) (*model.Region, error) {
	region := &model.Region{}
	var number sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT code, name, macro_region, number FROM regions WHERE code = $1`,
		code,
	).Scan(&region.Code, &region.Name, &region.MacroRegion, &number)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find region by code: %w", err)
	}

	if number.Valid {
		n := int(number.Int64)
		region.Number = &n
	}

	return region, nil
}

// List は全地域をコード昇順で返す。
func (r *PostgresRegionRepo) List(ctx context.Context) ([]*model.Region, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code, name, macro_region, number FROM regions ORDER BY code`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	defer rows.Close()

	var regions []*model.Region
	for rows.Next() {
		region := &model.Region{}
		var number sql.NullInt64
		if err := rows.Scan(&region.Code, &region.Name, &region.MacroRegion, &number); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		if number.Valid {
			n := int(number.Int64)
			region.Number = &n
		}
		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate regions: %w", err)
	}

	return regions, nil
}

// Create は地域を作成する。
func (r *PostgresRegionRepo) Create(ctx context.Context, region *model.Region) error {
	var number sql.NullInt64
	if region.Number != nil {
		number = sql.NullInt64{Int64: int64(*region.Number), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO regions (code, name, macro_region, number) VALUES ($1, $2, $3, $4)`,
		region.Code, region.Name, string(region.MacroRegion), number,
	)
	if err != nil {
		return fmt.Errorf("failed to insert region: %w", err)
	}
	return nil
}

// DeleteByCode は指定コードの地域を削除する。
func (r *PostgresRegionRepo) DeleteByCode(ctx context.Context, code string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM regions WHERE code = $1`,
		code,
	)
	if err != nil {
		return fmt.Errorf("failed to delete region: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("region not found: %s", code)
	}
	return nil
}

// compile-time interface check
var _ RegionRepository = (*PostgresRegionRepo)(nil)
