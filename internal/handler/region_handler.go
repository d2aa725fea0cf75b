package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodatlas/internal/model"
	"github.com/hitoshi/foodatlas/internal/region"
)

// RegionServiceInterface は地域ハンドラーが必要とするサービスインターフェース。
type RegionServiceInterface interface {
	List(ctx context.Context) ([]*model.Region, error)
	Create(ctx context.Context, input region.CreateInput) (*model.Region, error)
	Delete(ctx context.Context, code string) error
}

// RegionHandler は地域管理のHTTPハンドラー。
type RegionHandler struct {
	service RegionServiceInterface
}

// NewRegionHandler はRegionHandlerを生成する。
func NewRegionHandler(service RegionServiceInterface) *RegionHandler {
	return &RegionHandler{service: service}
}

// regionRequest は地域作成リクエストのボディ。
type regionRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	MacroRegion string `json:"macroRegion"`
	Number      *int   `json:"number,omitempty"`
}

// regionResponse は地域情報のAPIレスポンス。
type regionResponse struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	MacroRegion string `json:"macroRegion"`
	Number      *int   `json:"number,omitempty"`
}

// ListRegions は地域一覧を返す。
// GET /api/regions
func (h *RegionHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]regionResponse, len(regions))
	for i, rg := range regions {
		out[i] = toRegionResponse(rg)
	}
	writeJSON(w, http.StatusOK, listResponse{Data: out})
}

// CreateRegion は地域を作成する。
// POST /api/regions
func (h *RegionHandler) CreateRegion(w http.ResponseWriter, r *http.Request) {
	var req regionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), region.CreateInput{
		Code:        req.Code,
		Name:        req.Name,
		MacroRegion: req.MacroRegion,
		Number:      req.Number,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRegionResponse(created))
}

// DeleteRegion は地域を削除する。依存する省が残っている場合は400になる。
// DELETE /api/regions/{code}
func (h *RegionHandler) DeleteRegion(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.service.Delete(r.Context(), code); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toRegionResponse はmodel.RegionからAPIレスポンスに変換する。
func toRegionResponse(rg *model.Region) regionResponse {
	return regionResponse{
		Code:        rg.Code,
		Name:        rg.Name,
		MacroRegion: string(rg.MacroRegion),
		Number:      rg.Number,
	}
}
