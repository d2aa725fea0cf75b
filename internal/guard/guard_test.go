package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/foodatlas/internal/model"
)

// --- モック ---

type mockRegionFinder struct {
	findByCodeFn func(ctx context.Context, code string) (*model.Region, error)
}

func (m *mockRegionFinder) FindByCode(ctx context.Context, code string) (*model.Region, error) {
	return m.findByCodeFn(ctx, code)
}

type mockProvinceFinder struct {
	findByCodeFn         func(ctx context.Context, code string) (*model.Province, error)
	existsByRegionCodeFn func(ctx context.Context, regionCode string) (bool, error)
}

func (m *mockProvinceFinder) FindByCode(ctx context.Context, code string) (*model.Province, error) {
	return m.findByCodeFn(ctx, code)
}
func (m *mockProvinceFinder) ExistsByRegionCode(ctx context.Context, regionCode string) (bool, error) {
	return m.existsByRegionCodeFn(ctx, regionCode)
}

type mockDishFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Dish, error)
}

func (m *mockDishFinder) FindByID(ctx context.Context, id string) (*model.Dish, error) {
	return m.findByIDFn(ctx, id)
}

type mockRecorder struct {
	reasons []string
}

func (m *mockRecorder) RecordGuardRejection(reason string) {
	m.reasons = append(m.reasons, reason)
}

func regionExists(codes ...string) *mockRegionFinder {
	return &mockRegionFinder{
		findByCodeFn: func(ctx context.Context, code string) (*model.Region, error) {
			for _, c := range codes {
				if c == code {
					return &model.Region{Code: code}, nil
				}
			}
			return nil, nil
		},
	}
}

func provinceExists(codes ...string) *mockProvinceFinder {
	return &mockProvinceFinder{
		findByCodeFn: func(ctx context.Context, code string) (*model.Province, error) {
			for _, c := range codes {
				if c == code {
					return &model.Province{Code: code}, nil
				}
			}
			return nil, nil
		},
		existsByRegionCodeFn: func(ctx context.Context, regionCode string) (bool, error) {
			return false, nil
		},
	}
}

func noDishes() *mockDishFinder {
	return &mockDishFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Dish, error) {
			return nil, nil
		},
	}
}

func assertCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("error code = %q, want %q", apiErr.Code, wantCode)
	}
}

// --- CanCreateRegion ---

// TestCanCreateRegion_NewCode は未使用コードでの作成が許可されることを検証する。
func TestCanCreateRegion_NewCode(t *testing.T) {
	g := New(regionExists(), provinceExists(), noDishes(), nil)

	if err := g.CanCreateRegion(context.Background(), "mien-bac"); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

// TestCanCreateRegion_DuplicateCode は既存コードでの作成が拒否されることを検証する。
// 作成は既存データを黙って上書きしない。
func TestCanCreateRegion_DuplicateCode(t *testing.T) {
	recorder := &mockRecorder{}
	g := New(regionExists("mien-bac"), provinceExists(), noDishes(), recorder)

	err := g.CanCreateRegion(context.Background(), "mien-bac")
	assertCode(t, err, model.ErrCodeDuplicateKey)

	if len(recorder.reasons) != 1 || recorder.reasons[0] != "duplicate_region" {
		t.Errorf("recorded reasons = %v, want [duplicate_region]", recorder.reasons)
	}
}

// --- CanDeleteRegion ---

// TestCanDeleteRegion_NoDependents は依存する省がない場合に削除が許可されることを検証する。
func TestCanDeleteRegion_NoDependents(t *testing.T) {
	g := New(regionExists("mien-bac"), provinceExists(), noDishes(), nil)

	if err := g.CanDeleteRegion(context.Background(), "mien-bac"); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

// TestCanDeleteRegion_HasDependents は省が1件でも残っている場合に削除が拒否されることを検証する。
func TestCanDeleteRegion_HasDependents(t *testing.T) {
	recorder := &mockRecorder{}
	provinces := provinceExists()
	provinces.existsByRegionCodeFn = func(ctx context.Context, regionCode string) (bool, error) {
		return true, nil
	}
	g := New(regionExists("mien-bac"), provinces, noDishes(), recorder)

	err := g.CanDeleteRegion(context.Background(), "mien-bac")
	assertCode(t, err, model.ErrCodeReferentialViolation)

	if len(recorder.reasons) != 1 || recorder.reasons[0] != "region_has_provinces" {
		t.Errorf("recorded reasons = %v, want [region_has_provinces]", recorder.reasons)
	}
}

// TestCanDeleteRegion_StoreError はストア障害がエラーとして伝播することを検証する。
func TestCanDeleteRegion_StoreError(t *testing.T) {
	provinces := provinceExists()
	provinces.existsByRegionCodeFn = func(ctx context.Context, regionCode string) (bool, error) {
		return false, errors.New("store unavailable")
	}
	g := New(regionExists("mien-bac"), provinces, noDishes(), nil)

	if err := g.CanDeleteRegion(context.Background(), "mien-bac"); err == nil {
		t.Error("expected error on store failure")
	}
}

// --- CanCreateProvince ---

// TestCanCreateProvince_ValidParent は実在する地域配下での作成が許可されることを検証する。
func TestCanCreateProvince_ValidParent(t *testing.T) {
	g := New(regionExists("mien-bac"), provinceExists(), noDishes(), nil)

	if err := g.CanCreateProvince(context.Background(), "ha-noi", "mien-bac"); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

// TestCanCreateProvince_MissingRegion は存在しない地域への参照が拒否されることを検証する。
func TestCanCreateProvince_MissingRegion(t *testing.T) {
	recorder := &mockRecorder{}
	g := New(regionExists(), provinceExists(), noDishes(), recorder)

	err := g.CanCreateProvince(context.Background(), "ha-noi", "mien-ghost")
	assertCode(t, err, model.ErrCodeReferentialViolation)

	if len(recorder.reasons) != 1 || recorder.reasons[0] != "missing_region" {
		t.Errorf("recorded reasons = %v, want [missing_region]", recorder.reasons)
	}
}

// TestCanCreateProvince_DuplicateCode は既存コードでの作成が拒否されることを検証する。
func TestCanCreateProvince_DuplicateCode(t *testing.T) {
	g := New(regionExists("mien-bac"), provinceExists("ha-noi"), noDishes(), nil)

	err := g.CanCreateProvince(context.Background(), "ha-noi", "mien-bac")
	assertCode(t, err, model.ErrCodeDuplicateKey)
}

// --- CanUpdateProvince ---

// TestCanUpdateProvince_RegionMustExist は更新時も参照先地域の実在が要求されることを検証する。
func TestCanUpdateProvince_RegionMustExist(t *testing.T) {
	g := New(regionExists("mien-bac"), provinceExists(), noDishes(), nil)

	if err := g.CanUpdateProvince(context.Background(), "mien-bac"); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}

	err := g.CanUpdateProvince(context.Background(), "mien-ghost")
	assertCode(t, err, model.ErrCodeReferentialViolation)
}

// --- CanCreateDish / CanWriteDish ---

// TestCanCreateDish_DuplicateID は既存IDでの作成が拒否されることを検証する。
func TestCanCreateDish_DuplicateID(t *testing.T) {
	dishes := &mockDishFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Dish, error) {
			return &model.Dish{ID: id}, nil
		},
	}
	g := New(regionExists(), provinceExists(), dishes, nil)

	err := g.CanCreateDish(context.Background(), &model.Dish{ID: "pho-bo"})
	assertCode(t, err, model.ErrCodeDuplicateKey)
}

// TestCanWriteDish_EmptyRefsAllowed は空のソフト参照が許可されることを検証する。
// 非正規化データの許容: provinceCode/regionCodeは空のまま保存できる。
func TestCanWriteDish_EmptyRefsAllowed(t *testing.T) {
	g := New(regionExists(), provinceExists(), noDishes(), nil)

	dish := &model.Dish{ID: "pho-bo", Name: "Pho Bo"}
	if err := g.CanWriteDish(context.Background(), dish); err != nil {
		t.Errorf("expected nil error for empty soft references, got %v", err)
	}
}

// TestCanWriteDish_ResolvableRefs は実在する参照が許可されることを検証する。
func TestCanWriteDish_ResolvableRefs(t *testing.T) {
	g := New(regionExists("mien-bac"), provinceExists("ha-noi"), noDishes(), nil)

	dish := &model.Dish{ID: "pho-bo", RegionCode: "mien-bac", ProvinceCode: "ha-noi"}
	if err := g.CanWriteDish(context.Background(), dish); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

// TestCanWriteDish_MissingRegion は解決できない地域参照が拒否されることを検証する。
func TestCanWriteDish_MissingRegion(t *testing.T) {
	g := New(regionExists(), provinceExists("ha-noi"), noDishes(), nil)

	dish := &model.Dish{ID: "pho-bo", RegionCode: "mien-ghost"}
	err := g.CanWriteDish(context.Background(), dish)
	assertCode(t, err, model.ErrCodeReferentialViolation)
}

// TestCanWriteDish_MissingProvince は解決できない省参照が拒否されることを検証する。
func TestCanWriteDish_MissingProvince(t *testing.T) {
	recorder := &mockRecorder{}
	g := New(regionExists(), provinceExists(), noDishes(), recorder)

	dish := &model.Dish{ID: "pho-bo", ProvinceCode: "ghost-town"}
	err := g.CanWriteDish(context.Background(), dish)
	assertCode(t, err, model.ErrCodeReferentialViolation)

	if len(recorder.reasons) != 1 || recorder.reasons[0] != "missing_province" {
		t.Errorf("recorded reasons = %v, want [missing_province]", recorder.reasons)
	}
}
