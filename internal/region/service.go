// Package region は地域（ミエン）管理のドメインロジックを提供する。
package region

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/foodatlas/internal/guard"
	"github.com/hitoshi/foodatlas/internal/model"
	"github.com/hitoshi/foodatlas/internal/repository"
)

// CreateInput は地域作成の入力。
type CreateInput struct {
	Code        string
	Name        string
	MacroRegion string
	Number      *int
}

// Service は地域管理のサービス層。
// 作成・削除の前には必ずguardによる参照整合性チェックを通す。
type Service struct {
	repo  repository.RegionRepository
	guard *guard.Guard
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.RegionRepository, g *guard.Guard) *Service {
	return &Service{
		repo:  repo,
		guard: g,
	}
}

// List は全地域をコード昇順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Region, error) {
	regions, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("地域一覧の取得に失敗しました: %w", err)
	}
	return regions, nil
}

// Create は地域を作成する。
// 同一コードの地域が既に存在する場合は拒否する（黙った上書きはしない）。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Region, error) {
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" {
		return nil, model.NewInvalidRequestError("region code is required")
	}
	if name == "" {
		return nil, model.NewInvalidRequestError("region name is required")
	}

	macro, err := model.ParseMacroRegion(input.MacroRegion)
	if err != nil {
		return nil, model.NewInvalidRequestError(err.Error())
	}

	if err := s.guard.CanCreateRegion(ctx, code); err != nil {
		return nil, err
	}

	region := &model.Region{
		Code:        code,
		Name:        name,
		MacroRegion: macro,
		Number:      input.Number,
	}
	if err := s.repo.Create(ctx, region); err != nil {
		return nil, fmt.Errorf("地域の作成に失敗しました: %w", err)
	}

	return region, nil
}

// Delete は地域を削除する。
// 当該地域を参照する省が1件でも存在する場合は拒否する。
func (s *Service) Delete(ctx context.Context, code string) error {
	existing, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("地域の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewNotFoundError("region", code)
	}

	if err := s.guard.CanDeleteRegion(ctx, code); err != nil {
		return err
	}

	if err := s.repo.DeleteByCode(ctx, code); err != nil {
		return fmt.Errorf("地域の削除に失敗しました: %w", err)
	}
	return nil
}
