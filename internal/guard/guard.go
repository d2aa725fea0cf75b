// Package guard は地域→省→料理の包含階層の参照整合性を保護する。
// ストアから取得済みのデータに対する純粋な判定ロジックであり、
// 認可ゲートウェイには依存しない。
//
// 各チェックは対応する書き込みの直前（同一リクエスト内・因果的に先行する読み取り）で
// 実行されることを前提とする。リクエスト間の分離は保証されない:
// 地域削除と当該地域を参照する省作成は競合しうる（設計上許容された制限）。
package guard

import (
	"context"
	"fmt"

	"github.com/hitoshi/foodatlas/internal/model"
)

// RegionFinder は地域の存在確認に必要なインターフェース。
// repository.RegionRepositoryの部分集合として定義する。
type RegionFinder interface {
	FindByCode(ctx context.Context, code string) (*model.Region, error)
}

// ProvinceFinder は省の存在確認に必要なインターフェース。
// ExistsByRegionCodeは全件列挙ではなく有界な存在チェックであること。
type ProvinceFinder interface {
	FindByCode(ctx context.Context, code string) (*model.Province, error)
	ExistsByRegionCode(ctx context.Context, regionCode string) (bool, error)
}

// DishFinder は料理の存在確認に必要なインターフェース。
type DishFinder interface {
	FindByID(ctx context.Context, id string) (*model.Dish, error)
}

// RejectionRecorder はガードによる拒否の記録インターフェース。metricsパッケージの部分集合。
type RejectionRecorder interface {
	RecordGuardRejection(reason string)
}

// Guard は参照整合性の判定を行う。
// 判定はすべて読み取りのみで、書き込みは一切行わない。
type Guard struct {
	regions   RegionFinder
	provinces ProvinceFinder
	dishes    DishFinder
	recorder  RejectionRecorder // nilの場合は記録しない
}

// New はGuardを生成する。
func New(regions RegionFinder, provinces ProvinceFinder, dishes DishFinder, recorder RejectionRecorder) *Guard {
	return &Guard{
		regions:   regions,
		provinces: provinces,
		dishes:    dishes,
		recorder:  recorder,
	}
}

// CanCreateRegion は地域作成の事前チェックを行う。
// 同一コードの地域が既に存在する場合は拒否する（作成は既存を黙って上書きしない）。
func (g *Guard) CanCreateRegion(ctx context.Context, code string) error {
	existing, err := g.regions.FindByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to check region existence: %w", err)
	}
	if existing != nil {
		g.reject("duplicate_region")
		return model.NewDuplicateKeyError("region", code)
	}
	return nil
}

// CanDeleteRegion は地域削除の事前チェックを行う。
// 当該地域を参照する省が1件でも存在する場合は削除を拒否する。
func (g *Guard) CanDeleteRegion(ctx context.Context, code string) error {
	exists, err := g.provinces.ExistsByRegionCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to check dependent provinces: %w", err)
	}
	if exists {
		g.reject("region_has_provinces")
		return model.NewRegionHasProvincesError(code)
	}
	return nil
}

// CanCreateProvince は省作成の事前チェックを行う。
// 参照先の地域が存在しない場合、および同一コードの省が既に存在する場合は拒否する。
func (g *Guard) CanCreateProvince(ctx context.Context, code, regionCode string) error {
	if err := g.requireRegion(ctx, regionCode); err != nil {
		return err
	}

	existing, err := g.provinces.FindByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to check province existence: %w", err)
	}
	if existing != nil {
		g.reject("duplicate_province")
		return model.NewDuplicateKeyError("province", code)
	}
	return nil
}

// CanUpdateProvince は省更新の事前チェックを行う。
// コードは不変のため重複チェックは不要だが、参照先の地域は実在しなければならない。
func (g *Guard) CanUpdateProvince(ctx context.Context, regionCode string) error {
	return g.requireRegion(ctx, regionCode)
}

// CanCreateDish は料理作成の事前チェックを行う。
// 同一IDの料理が既に存在する場合は拒否し、ソフト参照はCanWriteDishの規則で検証する。
func (g *Guard) CanCreateDish(ctx context.Context, dish *model.Dish) error {
	existing, err := g.dishes.FindByID(ctx, dish.ID)
	if err != nil {
		return fmt.Errorf("failed to check dish existence: %w", err)
	}
	if existing != nil {
		g.reject("duplicate_dish")
		return model.NewDuplicateKeyError("dish", dish.ID)
	}
	return g.CanWriteDish(ctx, dish)
}

// CanWriteDish は料理のソフト参照を検証する。
// ProvinceCode/RegionCodeは空のまま保存できる（非正規化データの許容）が、
// 非空で指定された場合は実在しなければならない。
func (g *Guard) CanWriteDish(ctx context.Context, dish *model.Dish) error {
	if dish.RegionCode != "" {
		if err := g.requireRegion(ctx, dish.RegionCode); err != nil {
			return err
		}
	}
	if dish.ProvinceCode != "" {
		province, err := g.provinces.FindByCode(ctx, dish.ProvinceCode)
		if err != nil {
			return fmt.Errorf("failed to check province existence: %w", err)
		}
		if province == nil {
			g.reject("missing_province")
			return model.NewMissingProvinceError(dish.ProvinceCode)
		}
	}
	return nil
}

// requireRegion は地域の実在を要求する。
func (g *Guard) requireRegion(ctx context.Context, regionCode string) error {
	region, err := g.regions.FindByCode(ctx, regionCode)
	if err != nil {
		return fmt.Errorf("failed to check region existence: %w", err)
	}
	if region == nil {
		g.reject("missing_region")
		return model.NewMissingRegionError(regionCode)
	}
	return nil
}

// reject はガードによる拒否をメトリクスに記録する。
func (g *Guard) reject(reason string) {
	if g.recorder != nil {
		g.recorder.RecordGuardRejection(reason)
	}
}
