package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodatlas/internal/model"
	"github.com/hitoshi/foodatlas/internal/province"
)

// ProvinceServiceInterface は省ハンドラーが必要とするサービスインターフェース。
type ProvinceServiceInterface interface {
	List(ctx context.Context, regionCode string) ([]*model.Province, error)
	Create(ctx context.Context, input province.Input) (*model.Province, error)
	Update(ctx context.Context, code string, input province.Input) (*model.Province, error)
	Delete(ctx context.Context, code string) error
	UploadImage(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// ProvinceHandler は省管理のHTTPハンドラー。
type ProvinceHandler struct {
	service       ProvinceServiceInterface
	maxUploadSize int64
}

// NewProvinceHandler はProvinceHandlerを生成する。
func NewProvinceHandler(service ProvinceServiceInterface, maxUploadSize int64) *ProvinceHandler {
	return &ProvinceHandler{service: service, maxUploadSize: maxUploadSize}
}

// provinceRequest は省の作成・更新リクエストのボディ。
type provinceRequest struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	RegionCode  string   `json:"regionCode"`
	Slug        string   `json:"slug"`
	CenterLat   float64  `json:"centerLat"`
	CenterLng   float64  `json:"centerLng"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	ImageURLs   []string `json:"imageUrls"`
}

// provinceResponse は省情報のAPIレスポンス。
type provinceResponse struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	RegionCode  string   `json:"regionCode"`
	Slug        string   `json:"slug"`
	CenterLat   float64  `json:"centerLat"`
	CenterLng   float64  `json:"centerLng"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	ImageURLs   []string `json:"imageUrls"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// uploadImageResponse は画像アップロードのレスポンス。
type uploadImageResponse struct {
	URL string `json:"url"`
}

// ListProvinces は省一覧を返す。regionCodeクエリで地域別に絞り込める。
// GET /api/provinces?regionCode=XX
func (h *ProvinceHandler) ListProvinces(w http.ResponseWriter, r *http.Request) {
	regionCode := r.URL.Query().Get("regionCode")

	provinces, err := h.service.List(r.Context(), regionCode)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]provinceResponse, len(provinces))
	for i, p := range provinces {
		out[i] = toProvinceResponse(p)
	}
	writeJSON(w, http.StatusOK, listResponse{Data: out})
}

// CreateProvince は省を作成する。参照先の地域が存在しない場合は400になる。
// POST /api/provinces
func (h *ProvinceHandler) CreateProvince(w http.ResponseWriter, r *http.Request) {
	var req provinceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), toProvinceInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProvinceResponse(created))
}

// UpdateProvince は省を更新する。コードはURLパスのものが優先される。
// PUT /api/provinces/{code}
func (h *ProvinceHandler) UpdateProvince(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req provinceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), code, toProvinceInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProvinceResponse(updated))
}

// DeleteProvince は省を削除する。
// DELETE /api/provinces/{code}
func (h *ProvinceHandler) DeleteProvince(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.service.Delete(r.Context(), code); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage はmultipartで受け取った画像をメディアホストへ転送し、配信URLを返す。
// POST /api/provinces/upload-image
func (h *ProvinceHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handleServiceError(w, model.NewInvalidRequestError("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handleServiceError(w, model.NewInvalidRequestError("file field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handleServiceError(w, model.NewInvalidRequestError("failed to read uploaded file"))
		return
	}

	url, err := h.service.UploadImage(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadImageResponse{URL: url})
}

// toProvinceInput はリクエストボディからサービス入力に変換する。
func toProvinceInput(req provinceRequest) province.Input {
	return province.Input{
		Code:        req.Code,
		Name:        req.Name,
		RegionCode:  req.RegionCode,
		Slug:        req.Slug,
		CenterLat:   req.CenterLat,
		CenterLng:   req.CenterLng,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		ImageURLs:   req.ImageURLs,
	}
}

// toProvinceResponse はmodel.ProvinceからAPIレスポンスに変換する。
func toProvinceResponse(p *model.Province) provinceResponse {
	urls := p.ImageURLs
	if urls == nil {
		urls = []string{}
	}
	return provinceResponse{
		Code:        p.Code,
		Name:        p.Name,
		RegionCode:  p.RegionCode,
		Slug:        p.Slug,
		CenterLat:   p.CenterLat,
		CenterLng:   p.CenterLng,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		ImageURLs:   urls,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}
