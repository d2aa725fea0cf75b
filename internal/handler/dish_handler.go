package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodatlas/internal/dish"
	"github.com/hitoshi/foodatlas/internal/model"
)

// DishServiceInterface は料理ハンドラーが必要とするサービスインターフェース。
type DishServiceInterface interface {
	Search(ctx context.Context, q string) ([]*model.Dish, error)
	Create(ctx context.Context, input dish.Input) (*model.Dish, error)
	Update(ctx context.Context, id string, input dish.Input) (*model.Dish, error)
	Delete(ctx context.Context, id string) error
}

// DishHandler は料理管理のHTTPハンドラー。
type DishHandler struct {
	service DishServiceInterface
}

// NewDishHandler はDishHandlerを生成する。
func NewDishHandler(service DishServiceInterface) *DishHandler {
	return &DishHandler{service: service}
}

// dishRequest は料理の作成・更新リクエストのボディ。
type dishRequest struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	ProvinceCode string   `json:"provinceCode"`
	RegionCode   string   `json:"regionCode"`
	Category     string   `json:"category"`
	PriceRange   string   `json:"priceRange"`
	BestTime     string   `json:"bestTime"`
	BestSeason   string   `json:"bestSeason"`
	Tags         []string `json:"tags"`
	SpicyLevel   int      `json:"spicyLevel"`
	SatietyLevel int      `json:"satietyLevel"`
	ImageURL     string   `json:"imageUrl"`
	Images       []string `json:"images"`
	Description  string   `json:"description"`
}

// dishResponse は料理情報のAPIレスポンス。
type dishResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	ProvinceCode string   `json:"provinceCode"`
	RegionCode   string   `json:"regionCode"`
	Category     string   `json:"category"`
	PriceRange   string   `json:"priceRange"`
	BestTime     string   `json:"bestTime"`
	BestSeason   string   `json:"bestSeason"`
	Tags         []string `json:"tags"`
	SpicyLevel   int      `json:"spicyLevel"`
	SatietyLevel int      `json:"satietyLevel"`
	ImageURL     string   `json:"imageUrl"`
	Images       []string `json:"images"`
	Description  string   `json:"description"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

// SearchDishes は料理一覧を返す。qクエリで名前・slugの部分一致検索ができる。
// GET /api/dishes?q=...
func (h *DishHandler) SearchDishes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	dishes, err := h.service.Search(r.Context(), q)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]dishResponse, len(dishes))
	for i, d := range dishes {
		out[i] = toDishResponse(d)
	}
	writeJSON(w, http.StatusOK, listResponse{Data: out})
}

// CreateDish は料理を作成する。ソフト参照が解決できない場合は400になる。
// POST /api/dishes
func (h *DishHandler) CreateDish(w http.ResponseWriter, r *http.Request) {
	var req dishRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), toDishInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDishResponse(created))
}

// UpdateDish は料理を更新する。IDはURLパスのものが優先される。
// PUT /api/dishes/{id}
func (h *DishHandler) UpdateDish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dishRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, toDishInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDishResponse(updated))
}

// DeleteDish は料理を削除する。
// DELETE /api/dishes/{id}
func (h *DishHandler) DeleteDish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toDishInput はリクエストボディからサービス入力に変換する。
func toDishInput(req dishRequest) dish.Input {
	return dish.Input{
		ID:           req.ID,
		Name:         req.Name,
		Slug:         req.Slug,
		ProvinceCode: req.ProvinceCode,
		RegionCode:   req.RegionCode,
		Category:     req.Category,
		PriceRange:   req.PriceRange,
		BestTime:     req.BestTime,
		BestSeason:   req.BestSeason,
		Tags:         req.Tags,
		SpicyLevel:   req.SpicyLevel,
		SatietyLevel: req.SatietyLevel,
		ImageURL:     req.ImageURL,
		Images:       req.Images,
		Description:  req.Description,
	}
}

// toDishResponse はmodel.DishからAPIレスポンスに変換する。
func toDishResponse(d *model.Dish) dishResponse {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return dishResponse{
		ID:           d.ID,
		Name:         d.Name,
		Slug:         d.Slug,
		ProvinceCode: d.ProvinceCode,
		RegionCode:   d.RegionCode,
		Category:     d.Category,
		PriceRange:   d.PriceRange,
		BestTime:     d.BestTime,
		BestSeason:   d.BestSeason,
		Tags:         tags,
		SpicyLevel:   d.SpicyLevel,
		SatietyLevel: d.SatietyLevel,
		ImageURL:     d.ImageURL,
		Images:       images,
		Description:  d.Description,
		CreatedAt:    d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    d.UpdatedAt.Format(time.RFC3339),
	}
}
