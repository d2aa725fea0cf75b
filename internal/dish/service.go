// Package dish は料理管理のドメインロジックを提供する。
// 料理の省・地域参照はソフト参照であり、非空で指定された場合のみguardが実在を検証する。
package dish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/foodatlas/internal/guard"
	"github.com/hitoshi/foodatlas/internal/model"
	"github.com/hitoshi/foodatlas/internal/repository"
	"github.com/hitoshi/foodatlas/internal/security"
)

// Input は料理の作成・更新の入力。
type Input struct {
	ID           string
	Name         string
	Slug         string
	ProvinceCode string
	RegionCode   string
	Category     string
	PriceRange   string
	BestTime     string
	BestSeason   string
	Tags         []string
	SpicyLevel   int
	SatietyLevel int
	ImageURL     string
	Images       []string
	Description  string
}

// Service は料理管理のサービス層。
type Service struct {
	repo      repository.DishRepository
	guard     *guard.Guard
	sanitizer security.DescriptionSanitizerService
	now       func() time.Time
	newID     func() string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.DishRepository, g *guard.Guard, sanitizer security.DescriptionSanitizerService) *Service {
	return &Service{
		repo:      repo,
		guard:     g,
		sanitizer: sanitizer,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Search は料理一覧を名前昇順で返す。
// qが非空の場合はname/slugの部分一致（大文字小文字無視）で絞り込む。
func (s *Service) Search(ctx context.Context, q string) ([]*model.Dish, error) {
	dishes, err := s.repo.Search(ctx, strings.TrimSpace(q))
	if err != nil {
		return nil, fmt.Errorf("料理一覧の取得に失敗しました: %w", err)
	}
	return dishes, nil
}

// Create は料理を作成する。IDが未指定の場合はUUIDを割り当てる。
// 同一IDの料理が既に存在する場合、および非空のソフト参照が解決できない場合は拒否する。
func (s *Service) Create(ctx context.Context, input Input) (*model.Dish, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, model.NewInvalidRequestError("dish name is required")
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = s.newID()
	}

	now := s.now()
	dish := s.buildDish(id, name, input)
	dish.CreatedAt = now
	dish.UpdatedAt = now

	if err := s.guard.CanCreateDish(ctx, dish); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, dish); err != nil {
		return nil, fmt.Errorf("料理の作成に失敗しました: %w", err)
	}
	return dish, nil
}

// Update は料理を更新する。ID（主キー）は変更されない。
// 非空のソフト参照が解決できない場合は拒否する。
func (s *Service) Update(ctx context.Context, id string, input Input) (*model.Dish, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("料理の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewNotFoundError("dish", id)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = existing.Name
	}

	dish := s.buildDish(id, name, input)
	dish.CreatedAt = existing.CreatedAt
	dish.UpdatedAt = s.now()

	if err := s.guard.CanWriteDish(ctx, dish); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, dish); err != nil {
		return nil, fmt.Errorf("料理の更新に失敗しました: %w", err)
	}
	return dish, nil
}

// Delete は料理を削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("料理の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewNotFoundError("dish", id)
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("料理の削除に失敗しました: %w", err)
	}
	return nil
}

// buildDish は入力から料理エンティティを組み立てる。説明文はサニタイズされる。
func (s *Service) buildDish(id, name string, input Input) *model.Dish {
	return &model.Dish{
		ID:           id,
		Name:         name,
		Slug:         strings.TrimSpace(input.Slug),
		ProvinceCode: strings.TrimSpace(input.ProvinceCode),
		RegionCode:   strings.TrimSpace(input.RegionCode),
		Category:     input.Category,
		PriceRange:   input.PriceRange,
		BestTime:     input.BestTime,
		BestSeason:   input.BestSeason,
		Tags:         input.Tags,
		SpicyLevel:   input.SpicyLevel,
		SatietyLevel: input.SatietyLevel,
		ImageURL:     input.ImageURL,
		Images:       input.Images,
		Description:  s.sanitizer.Sanitize(input.Description),
	}
}
