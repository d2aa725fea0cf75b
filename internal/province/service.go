// Package province は省管理のドメインロジックを提供する。
// 省は必ず既存の地域に属する。作成・更新の前にguardが参照整合性を検証する。
package province

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/foodatlas/internal/guard"
	"github.com/hitoshi/foodatlas/internal/media"
	"github.com/hitoshi/foodatlas/internal/model"
	"github.com/hitoshi/foodatlas/internal/repository"
	"github.com/hitoshi/foodatlas/internal/security"
)

// UploadRecorder は画像アップロード成功の記録インターフェース。metricsパッケージの部分集合。
type UploadRecorder interface {
	RecordImageUpload()
}

// Input は省の作成・更新の入力。
type Input struct {
	Code        string
	Name        string
	RegionCode  string
	Slug        string
	CenterLat   float64
	CenterLng   float64
	Description string
	ImageURL    string
	ImageURLs   []string
}

// Service は省管理のサービス層。
type Service struct {
	repo      repository.ProvinceRepository
	guard     *guard.Guard
	sanitizer security.DescriptionSanitizerService
	uploader  media.UploaderService
	recorder  UploadRecorder // nilの場合は記録しない
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.ProvinceRepository,
	g *guard.Guard,
	sanitizer security.DescriptionSanitizerService,
	uploader media.UploaderService,
	recorder UploadRecorder,
) *Service {
	return &Service{
		repo:      repo,
		guard:     g,
		sanitizer: sanitizer,
		uploader:  uploader,
		recorder:  recorder,
		now:       time.Now,
	}
}

// List は省一覧を返す。regionCodeが非空の場合は当該地域の省のみに絞り込む。
func (s *Service) List(ctx context.Context, regionCode string) ([]*model.Province, error) {
	provinces, err := s.repo.List(ctx, regionCode)
	if err != nil {
		return nil, fmt.Errorf("省一覧の取得に失敗しました: %w", err)
	}
	return provinces, nil
}

// Create は省を作成する。
// 参照先の地域が実在しない場合、および同一コードの省が既に存在する場合は拒否する。
func (s *Service) Create(ctx context.Context, input Input) (*model.Province, error) {
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	regionCode := strings.TrimSpace(input.RegionCode)
	if code == "" {
		return nil, model.NewInvalidRequestError("province code is required")
	}
	if name == "" {
		return nil, model.NewInvalidRequestError("province name is required")
	}
	if regionCode == "" {
		return nil, model.NewInvalidRequestError("regionCode is required")
	}

	if err := s.guard.CanCreateProvince(ctx, code, regionCode); err != nil {
		return nil, err
	}

	now := s.now()
	province := &model.Province{
		Code:        code,
		Name:        name,
		RegionCode:  regionCode,
		Slug:        strings.TrimSpace(input.Slug),
		CenterLat:   input.CenterLat,
		CenterLng:   input.CenterLng,
		Description: s.sanitizer.Sanitize(input.Description),
		ImageURL:    input.ImageURL,
		ImageURLs:   input.ImageURLs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	province.SyncPrimaryImage()

	if err := s.repo.Create(ctx, province); err != nil {
		return nil, fmt.Errorf("省の作成に失敗しました: %w", err)
	}
	return province, nil
}

// Update は省を更新する。コード（主キー）は変更されない。
// 参照先の地域は実在しなければならない。
func (s *Service) Update(ctx context.Context, code string, input Input) (*model.Province, error) {
	existing, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("省の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewNotFoundError("province", code)
	}

	regionCode := strings.TrimSpace(input.RegionCode)
	if regionCode == "" {
		return nil, model.NewInvalidRequestError("regionCode is required")
	}
	if err := s.guard.CanUpdateProvince(ctx, regionCode); err != nil {
		return nil, err
	}

	province := &model.Province{
		Code:        code,
		Name:        strings.TrimSpace(input.Name),
		RegionCode:  regionCode,
		Slug:        strings.TrimSpace(input.Slug),
		CenterLat:   input.CenterLat,
		CenterLng:   input.CenterLng,
		Description: s.sanitizer.Sanitize(input.Description),
		ImageURL:    input.ImageURL,
		ImageURLs:   input.ImageURLs,
		CreatedAt:   existing.CreatedAt,
		UpdatedAt:   s.now(),
	}
	if province.Name == "" {
		province.Name = existing.Name
	}
	province.SyncPrimaryImage()

	if err := s.repo.Update(ctx, province); err != nil {
		return nil, fmt.Errorf("省の更新に失敗しました: %w", err)
	}
	return province, nil
}

// Delete は省を削除する。
// 料理の省参照はソフト参照のため、削除をブロックしない。
func (s *Service) Delete(ctx context.Context, code string) error {
	existing, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("省の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewNotFoundError("province", code)
	}

	if err := s.repo.DeleteByCode(ctx, code); err != nil {
		return fmt.Errorf("省の削除に失敗しました: %w", err)
	}
	return nil
}

// UploadImage は画像をメディアホストへアップロードし、配信用URLを返す。
func (s *Service) UploadImage(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	url, err := s.uploader.Upload(ctx, filename, contentType, data)
	if err != nil {
		return "", err
	}
	if s.recorder != nil {
		s.recorder.RecordImageUpload()
	}
	return url, nil
}
