package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodatlas/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したユーザープロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

const profileColumns = `id, email, full_name, phone, role, auth_uid, created_at, updated_at`

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id string) (*model.UserProfile, error) {
	profile := &model.UserProfile{}
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`,
		id,
	).Scan(&profile.ID, &profile.Email, &profile.FullName, &profile.Phone,
		&role, &profile.AuthUID, &profile.CreatedAt, &profile.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}

	profile.Role = model.ParseRole(role)
	return profile, nil
}

// List は全プロフィールを返す。並び替えは呼び出し側で行う。
func (r *PostgresProfileRepo) List(ctx context.Context) ([]*model.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM user_profiles`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.UserProfile
	for rows.Next() {
		profile := &model.UserProfile{}
		var role string
		if err := rows.Scan(&profile.ID, &profile.Email, &profile.FullName, &profile.Phone,
			&role, &profile.AuthUID, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profile.Role = model.ParseRole(role)
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return profiles, nil
}

// Create はプロフィールを作成する。
func (r *PostgresProfileRepo) Create(ctx context.Context, p *model.UserProfile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_profiles (`+profileColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Email, p.FullName, p.Phone, string(p.Role), p.AuthUID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// Update はプロフィールを更新する。
func (r *PostgresProfileRepo) Update(ctx context.Context, p *model.UserProfile) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE user_profiles
		 SET email = $2, full_name = $3, phone = $4, role = $5, auth_uid = $6, updated_at = $7
		 WHERE id = $1`,
		p.ID, p.Email, p.FullName, p.Phone, string(p.Role), p.AuthUID, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("profile not found: %s", p.ID)
	}
	return nil
}

// DeleteByID は指定IDのプロフィールを削除する。
// IDプロバイダ側の削除が成功した後に呼ばれるため、既に存在しない場合も成功として扱う。
func (r *PostgresProfileRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_profiles WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
