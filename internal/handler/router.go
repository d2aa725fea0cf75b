package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/foodatlas/internal/metrics"
	"github.com/hitoshi/foodatlas/internal/middleware"
	"github.com/hitoshi/foodatlas/internal/model"
)

// Pinger はヘルスチェックで使用するデータベース疎通確認インターフェース。
// *sql.DBが満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Authenticator     *middleware.Authenticator
	RateLimiter       *middleware.RateLimiter
	StatusMetrics     middleware.StatusMetrics
	CORSAllowedOrigin string

	// 運用エンドポイント
	DB       Pinger
	Gatherer prometheus.Gatherer

	// ドメインサービス
	RegionService   RegionServiceInterface
	ProvinceService ProvinceServiceInterface
	DishService     DishServiceInterface
	UserService     UserServiceInterface

	// アップロード制限（バイト）
	MediaMaxSize int64
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Recovery
//
// 運用エンドポイント（/health, /metrics）は認可ゲートウェイの外に配置する。
// /api配下はすべてロール認可を通過し、admin専用ルートにはレート制限も適用される。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusMetrics))
	r.Use(middleware.NewRecoveryMiddleware())

	regionHandler := NewRegionHandler(deps.RegionService)
	provinceHandler := NewProvinceHandler(deps.ProvinceService, deps.MediaMaxSize)
	dishHandler := NewDishHandler(deps.DishService)
	userHandler := NewUserHandler(deps.UserService)
	meHandler := NewMeHandler()

	// --- 認証不要の運用ルート ---

	r.Get("/health", healthHandler(deps.DB))
	r.Method(http.MethodGet, "/metrics", metrics.SetupMetricsRoute(deps.Gatherer))

	// --- 認証済みユーザー向けルート ---

	r.Group(func(r chi.Router) {
		r.Use(deps.Authenticator.RequireRole(model.RoleUser))

		// GET /api/user/me - 自分自身の認証情報
		r.Get("/api/user/me", meHandler.Me)
	})

	// --- admin専用ルート ---
	// ミドルウェアスタック: RequireRole(admin) → RateLimit(General)
	// 変更系エンドポイントには変更系レート制限を追加する。
	r.Group(func(r chi.Router) {
		r.Use(deps.Authenticator.RequireRole(model.RoleAdmin))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		mutation := deps.RateLimiter.MutationMiddleware()

		// 地域管理
		r.Route("/api/regions", func(r chi.Router) {
			r.Get("/", regionHandler.ListRegions)
			r.With(mutation).Post("/", regionHandler.CreateRegion)
			r.With(mutation).Delete("/{code}", regionHandler.DeleteRegion)
		})

		// 省管理
		r.Route("/api/provinces", func(r chi.Router) {
			r.Get("/", provinceHandler.ListProvinces)
			r.With(mutation).Post("/", provinceHandler.CreateProvince)
			r.With(mutation).Post("/upload-image", provinceHandler.UploadImage)

			r.Route("/{code}", func(r chi.Router) {
				r.With(mutation).Put("/", provinceHandler.UpdateProvince)
				r.With(mutation).Delete("/", provinceHandler.DeleteProvince)
			})
		})

		// 料理管理
		r.Route("/api/dishes", func(r chi.Router) {
			r.Get("/", dishHandler.SearchDishes)
			r.With(mutation).Post("/", dishHandler.CreateDish)

			r.Route("/{id}", func(r chi.Router) {
				r.With(mutation).Put("/", dishHandler.UpdateDish)
				r.With(mutation).Delete("/", dishHandler.DeleteDish)
			})
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.With(mutation).Post("/", userHandler.CreateUser)

			r.Route("/{id}", func(r chi.Router) {
				r.With(mutation).Put("/", userHandler.UpdateUser)
				r.With(mutation).Delete("/", userHandler.DeleteUser)
			})
		})
	})

	return r
}

// healthHandler はデータベース疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
