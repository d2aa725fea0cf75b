// Package media は画像のアップロード機能を提供する。
// 外部メディアホストへのマルチパート送信と、配信用URLの取得を行う。
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/hitoshi/foodatlas/internal/model"
)

// UploaderService は画像アップロード機能のインターフェースを定義する。
type UploaderService interface {
	// Upload は画像データをメディアホストへアップロードし、配信用URLを返す。
	// サイズ上限を超えるデータは送信前に拒否される。
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// uploadResponse はメディアホストのアップロード応答。
type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Uploader はUploaderServiceの実装。
// SSRF防止機能付きのHTTPクライアント（security.SSRFGuardService参照）を
// 注入して使用すること。
type Uploader struct {
	httpClient *http.Client
	logger     *slog.Logger
	uploadURL  string
	apiKey     string
	folder     string
	maxSize    int64
}

// NewUploader はUploaderの新しいインスタンスを生成する。
func NewUploader(httpClient *http.Client, logger *slog.Logger, uploadURL, apiKey, folder string, maxSize int64) *Uploader {
	return &Uploader{
		httpClient: httpClient,
		logger:     logger,
		uploadURL:  uploadURL,
		apiKey:     apiKey,
		folder:     folder,
		maxSize:    maxSize,
	}
}

// Upload は画像データをメディアホストへアップロードし、配信用URLを返す。
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", model.NewInvalidRequestError("image data is empty")
	}
	if int64(len(data)) > u.maxSize {
		return "", model.NewInvalidRequestError(
			fmt.Sprintf("image exceeds maximum size of %d bytes", u.maxSize))
	}

	// マルチパートボディ構築
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("folder", u.folder); err != nil {
		return "", fmt.Errorf("マルチパートフィールドの書き込みに失敗しました: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("マルチパートファイルの作成に失敗しました: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("画像データの書き込みに失敗しました: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("マルチパートボディのクローズに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+u.apiKey)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		u.logger.Error("メディアホストへのアップロードに失敗しました",
			slog.String("error", err.Error()),
			slog.String("filename", filename),
		)
		return "", model.NewUpstreamFailureError("image upload failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		u.logger.Error("メディアホストがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("filename", filename),
		)
		return "", model.NewUpstreamFailureError("image upload failed")
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result uploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		u.logger.Error("メディアホストのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", model.NewUpstreamFailureError("image upload failed")
	}
	if result.SecureURL == "" {
		return "", model.NewUpstreamFailureError("media host returned no URL")
	}

	return result.SecureURL, nil
}

// compile-time interface check
var _ UploaderService = (*Uploader)(nil)
