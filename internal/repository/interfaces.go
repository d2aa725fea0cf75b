// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/foodatlas/internal/model"
)

// RegionRepository は地域データの永続化インターフェース。
type RegionRepository interface {
	// FindByCode は指定コードの地域を取得する。見つからない場合はnilを返す。
	FindByCode(ctx context.Context, code string) (*model.Region, error)

	// List は全地域をコード昇順で返す。
	List(ctx context.Context) ([]*model.Region, error)

	// Create は地域を作成する。
	Create(ctx context.Context, region *model.Region) error

	// DeleteByCode は指定コードの地域を削除する。
	DeleteByCode(ctx context.Context, code string) error
}

// ProvinceRepository は省データの永続化インターフェース。
type ProvinceRepository interface {
	// FindByCode は指定コードの省を取得する。見つからない場合はnilを返す。
	FindByCode(ctx context.Context, code string) (*model.Province, error)

	// List は省一覧を返す。regionCodeが非空の場合は当該地域の省のみに絞り込む。
	List(ctx context.Context, regionCode string) ([]*model.Province, error)

	// ExistsByRegionCode は指定地域を参照する省が存在するかを返す。
	// 有界な存在チェック（LIMIT 1）であり、全件列挙は行わない。
	ExistsByRegionCode(ctx context.Context, regionCode string) (bool, error)

	// Create は省を作成する。
	Create(ctx context.Context, province *model.Province) error

	// Update は省を更新する。コード（主キー）は変更されない。
	Update(ctx context.Context, province *model.Province) error

	// DeleteByCode は指定コードの省を削除する。
	DeleteByCode(ctx context.Context, code string) error
}

// DishRepository は料理データの永続化インターフェース。
type DishRepository interface {
	// FindByID は指定IDの料理を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Dish, error)

	// Search は料理一覧を返す。qが非空の場合はname/slugの部分一致で絞り込む。
	Search(ctx context.Context, q string) ([]*model.Dish, error)

	// Create は料理を作成する。
	Create(ctx context.Context, dish *model.Dish) error

	// Update は料理を更新する。ID（主キー）は変更されない。
	Update(ctx context.Context, dish *model.Dish) error

	// DeleteByID は指定IDの料理を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// ProfileRepository はユーザープロフィールドキュメントの永続化インターフェース。
// IDプロバイダのアカウントと常に整合するよう、書き込みはuserサービス経由で行うこと。
type ProfileRepository interface {
	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.UserProfile, error)

	// List は全プロフィールを返す。並び替えは呼び出し側で行う。
	List(ctx context.Context) ([]*model.UserProfile, error)

	// Create はプロフィールを作成する。
	Create(ctx context.Context, profile *model.UserProfile) error

	// Update はプロフィールを更新する。
	Update(ctx context.Context, profile *model.UserProfile) error

	// DeleteByID は指定IDのプロフィールを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error
}
