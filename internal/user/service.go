// Package user はユーザーアカウントとプロフィールの整合管理を提供する。
//
// ユーザーはIDプロバイダのアカウントとプロフィールドキュメントの2つの表現を持つ。
// 本サービスは両者を常に一致させる責務を負う:
//   - 作成はプロバイダ→ロールクレーム→プロフィールの順で進み、
//     途中で失敗した場合は作成済みアカウントを補償削除する。
//   - 更新はプロバイダを先に更新し、失敗したらプロフィールに触れない。
//   - 削除はプロバイダ削除が成功（または対象不在）の場合のみプロフィールを消す。
//     それ以外の失敗ではプロフィールを残す（フェイルクローズ）。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hitoshi/foodatlas/internal/identity"
	"github.com/hitoshi/foodatlas/internal/model"
	"github.com/hitoshi/foodatlas/internal/repository"
)

// ソートキー。name-ascとname-descは氏名の最終トークン（姓名の名）で比較する。
const (
	SortNameAsc     = "name-asc"
	SortNameDesc    = "name-desc"
	SortCreatedAsc  = "created-asc"
	SortCreatedDesc = "created-desc"
)

// CreateInput はユーザー作成の入力。
type CreateInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     string
}

// UpdateInput はユーザー更新の入力。
type UpdateInput struct {
	Email    string
	FullName string
	Phone    string
	Role     string
}

// Service はユーザー管理のサービス層。
type Service struct {
	profiles repository.ProfileRepository
	accounts identity.AccountAdmin
	logger   *slog.Logger
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(profiles repository.ProfileRepository, accounts identity.AccountAdmin, logger *slog.Logger) *Service {
	return &Service{
		profiles: profiles,
		accounts: accounts,
		logger:   logger,
		now:      time.Now,
	}
}

// List はユーザープロフィール一覧をソートして返す。
// sortKeyが未指定または未知の場合は作成日時の降順（新しい順）になる。
func (s *Service) List(ctx context.Context, sortKey string) ([]*model.UserProfile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}

	sortProfiles(profiles, sortKey)
	return profiles, nil
}

// Create はユーザーを作成する。
// IDプロバイダのアカウント作成→ロールクレーム設定→プロフィール作成の順で進み、
// プロフィール作成まで到達できなかった場合は作成済みアカウントを補償削除する。
// 孤児アカウント（プロフィールなしのアカウント）を残さないための規約。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.UserProfile, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, model.NewInvalidRequestError("email is required")
	}
	if input.Password == "" {
		return nil, model.NewInvalidRequestError("password is required")
	}

	role, err := resolveRoleInput(input.Role)
	if err != nil {
		return nil, err
	}

	uid, err := s.accounts.CreateAccount(ctx, email, input.Password, input.FullName)
	if err != nil {
		if errors.Is(err, identity.ErrEmailAlreadyExists) {
			return nil, model.NewDuplicateKeyError("user", email)
		}
		s.logger.Error("IDプロバイダのアカウント作成に失敗しました",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamFailureError("account creation")
	}

	if err := s.accounts.SetRoleClaim(ctx, uid, role); err != nil {
		s.logger.Error("ロールクレームの設定に失敗しました。アカウントを補償削除します",
			slog.String("uid", uid),
			slog.String("error", err.Error()),
		)
		s.compensateAccount(ctx, uid)
		return nil, model.NewUpstreamFailureError("role claim assignment")
	}

	now := s.now()
	profile := &model.UserProfile{
		ID:        uid,
		Email:     email,
		FullName:  strings.TrimSpace(input.FullName),
		Phone:     strings.TrimSpace(input.Phone),
		Role:      role,
		AuthUID:   uid,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		s.logger.Error("プロフィールの作成に失敗しました。アカウントを補償削除します",
			slog.String("uid", uid),
			slog.String("error", err.Error()),
		)
		s.compensateAccount(ctx, uid)
		return nil, model.NewUpstreamFailureError("profile creation")
	}

	return profile, nil
}

// Update はユーザーを更新する。
// IDプロバイダを先に更新し、失敗した場合はプロフィールに触れずに中断する。
// プロバイダ更新後のプロフィール書き込み失敗は不整合として大きくログに残す。
// ロールが未指定の場合は現在のロールを維持する。
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*model.UserProfile, error) {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if profile == nil {
		return nil, model.NewNotFoundError("user", id)
	}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, model.NewInvalidRequestError("email is required")
	}

	role, err := resolveRoleUpdate(input.Role, profile.Role)
	if err != nil {
		return nil, err
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		fullName = profile.FullName
	}

	uid := profile.ResolveAuthUID()
	if err := s.accounts.UpdateAccount(ctx, uid, email, fullName); err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return nil, model.NewNotFoundError("user", id)
		}
		s.logger.Error("IDプロバイダのアカウント更新に失敗しました",
			slog.String("uid", uid),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamFailureError("account update")
	}

	if role != profile.Role {
		if err := s.accounts.SetRoleClaim(ctx, uid, role); err != nil {
			s.logger.Error("ロールクレームの更新に失敗しました",
				slog.String("uid", uid),
				slog.String("error", err.Error()),
			)
			return nil, model.NewUpstreamFailureError("role claim assignment")
		}
	}

	profile.Email = email
	profile.FullName = fullName
	profile.Phone = strings.TrimSpace(input.Phone)
	profile.Role = role
	profile.AuthUID = uid
	profile.UpdatedAt = s.now()

	if err := s.profiles.Update(ctx, profile); err != nil {
		// プロバイダは更新済みでプロフィールだけ古い状態。自動修復はせず運用通知に委ねる。
		s.logger.Error("不整合: IDプロバイダは更新済みだがプロフィールの書き込みに失敗しました",
			slog.String("uid", uid),
			slog.String("profile_id", id),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamFailureError("profile update")
	}

	return profile, nil
}

// Delete はユーザーを削除する。
// IDプロバイダの削除が成功（または対象不在）の場合のみプロフィールを消す。
// それ以外のプロバイダ障害ではプロフィールを残す（フェイルクローズ）。
// プロフィールが存在しない場合もドキュメントIDをuidとしてプロバイダ削除を試みる。
func (s *Service) Delete(ctx context.Context, id string) error {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}

	uid := id
	if profile != nil {
		uid = profile.ResolveAuthUID()
	}

	if err := s.accounts.DeleteAccount(ctx, uid); err != nil {
		if !errors.Is(err, identity.ErrAccountNotFound) {
			s.logger.Error("IDプロバイダのアカウント削除に失敗しました。プロフィールは保持されます",
				slog.String("uid", uid),
				slog.String("error", err.Error()),
			)
			return model.NewUpstreamFailureError("account deletion")
		}
		// アカウント不在は削除済みとみなす
		s.logger.Info("IDプロバイダにアカウントが存在しないため削除済みとして扱います",
			slog.String("uid", uid),
		)
	}

	if err := s.profiles.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("プロフィールの削除に失敗しました: %w", err)
	}
	return nil
}

// compensateAccount は作成途中で失敗したアカウントを補償削除する。
// 補償自体の失敗は孤児アカウントとしてログに残すのみ（呼び出し元のエラーを優先）。
func (s *Service) compensateAccount(ctx context.Context, uid string) {
	if err := s.accounts.DeleteAccount(ctx, uid); err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
		s.logger.Error("補償削除に失敗しました。孤児アカウントが残っています",
			slog.String("uid", uid),
			slog.String("error", err.Error()),
		)
	}
}

// resolveRoleInput は入力ロールを解決する。未指定はuser、未知の値はエラー。
func resolveRoleInput(input string) (model.Role, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return model.RoleUser, nil
	}
	role := model.ParseRole(trimmed)
	if role == model.RoleNone {
		return model.RoleNone, model.NewInvalidRequestError(
			fmt.Sprintf("invalid role: %q (allowed: admin/user)", input))
	}
	return role, nil
}

// resolveRoleUpdate は更新入力のロールを解決する。
// 未指定は現在のロールを維持し、現在のロールも空の場合のみuserに落とす。
// 未知の値はエラー。
func resolveRoleUpdate(input string, current model.Role) (model.Role, error) {
	if strings.TrimSpace(input) == "" {
		if current == model.RoleNone {
			return model.RoleUser, nil
		}
		return current, nil
	}
	return resolveRoleInput(input)
}

// sortProfiles はプロフィール一覧を指定キーで安定ソートする。
func sortProfiles(profiles []*model.UserProfile, sortKey string) {
	switch sortKey {
	case SortNameAsc:
		sort.SliceStable(profiles, func(i, j int) bool {
			return lastNameToken(profiles[i].FullName) < lastNameToken(profiles[j].FullName)
		})
	case SortNameDesc:
		sort.SliceStable(profiles, func(i, j int) bool {
			return lastNameToken(profiles[i].FullName) > lastNameToken(profiles[j].FullName)
		})
	case SortCreatedAsc:
		sort.SliceStable(profiles, func(i, j int) bool {
			return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
		})
	default:
		// created-descおよび未知のキー
		sort.SliceStable(profiles, func(i, j int) bool {
			return profiles[i].CreatedAt.After(profiles[j].CreatedAt)
		})
	}
}

// lastNameToken は氏名の最終トークンを小文字で返す。名前順ソートの比較キー。
func lastNameToken(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}
