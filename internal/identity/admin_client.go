package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/foodatlas/internal/model"
)

// AdminClient はIDプロバイダの管理REST APIクライアント。
// アカウントのCRUDとカスタムクレーム設定を提供する。
type AdminClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
}

// NewAdminClient はAdminClientの新しいインスタンスを生成する。
// httpClientがnilの場合はタイムアウト付きのデフォルトクライアントを使用する。
func NewAdminClient(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) *AdminClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// createAccountRequest はアカウント作成リクエストのボディ。
type createAccountRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// createAccountResponse はアカウント作成レスポンスのボディ。
type createAccountResponse struct {
	UID string `json:"uid"`
}

// updateAccountRequest はアカウント更新リクエストのボディ。
type updateAccountRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// setClaimsRequest はカスタムクレーム設定リクエストのボディ。
type setClaimsRequest struct {
	Role  string `json:"role"`
	Admin bool   `json:"admin,omitempty"`
}

// CreateAccount はアカウントを作成し、割り当てられたsubject idを返す。
func (c *AdminClient) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/accounts", createAccountRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	}, http.StatusCreated)
	if err != nil {
		return "", err
	}

	var resp createAccountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode create account response: %w", err)
	}
	if resp.UID == "" {
		return "", fmt.Errorf("identity provider returned empty uid")
	}
	return resp.UID, nil
}

// UpdateAccount はメールアドレスと表示名を更新する。
func (c *AdminClient) UpdateAccount(ctx context.Context, uid, email, displayName string) error {
	_, err := c.do(ctx, http.MethodPatch, "/accounts/"+url.PathEscape(uid), updateAccountRequest{
		Email:       email,
		DisplayName: displayName,
	}, http.StatusOK)
	return err
}

// SetRoleClaim はロールクレームを設定する。
// adminロールには旧形式クライアント互換のためadminフラグも付与する。
func (c *AdminClient) SetRoleClaim(ctx context.Context, uid string, role model.Role) error {
	req := setClaimsRequest{Role: string(role)}
	if role == model.RoleAdmin {
		req.Admin = true
	}
	_, err := c.do(ctx, http.MethodPut, "/accounts/"+url.PathEscape(uid)+"/claims", req, http.StatusOK)
	return err
}

// DeleteAccount はアカウントを削除する。
// 存在しない場合はErrAccountNotFoundを返す（冪等削除の判断は呼び出し元が行う）。
func (c *AdminClient) DeleteAccount(ctx context.Context, uid string) error {
	_, err := c.do(ctx, http.MethodDelete, "/accounts/"+url.PathEscape(uid), nil, http.StatusNoContent)
	return err
}

// do はリクエストを実行し、期待ステータスのレスポンスボディを返す。
// 404はErrAccountNotFound、409はErrEmailAlreadyExistsに変換される。
func (c *AdminClient) do(ctx context.Context, method, path string, payload any, wantStatus int) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("identity provider request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == wantStatus:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrAccountNotFound
	case resp.StatusCode == http.StatusConflict:
		return nil, ErrEmailAlreadyExists
	default:
		c.logger.Error("identity provider returned unexpected status",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}
}

// compile-time interface check
var _ AccountAdmin = (*AdminClient)(nil)
