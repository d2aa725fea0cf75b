// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/foodatlas/internal/config"
	"github.com/hitoshi/foodatlas/internal/database"
	"github.com/hitoshi/foodatlas/internal/dish"
	"github.com/hitoshi/foodatlas/internal/guard"
	"github.com/hitoshi/foodatlas/internal/handler"
	"github.com/hitoshi/foodatlas/internal/identity"
	"github.com/hitoshi/foodatlas/internal/logger"
	"github.com/hitoshi/foodatlas/internal/media"
	"github.com/hitoshi/foodatlas/internal/metrics"
	"github.com/hitoshi/foodatlas/internal/middleware"
	"github.com/hitoshi/foodatlas/internal/province"
	"github.com/hitoshi/foodatlas/internal/region"
	"github.com/hitoshi/foodatlas/internal/repository"
	"github.com/hitoshi/foodatlas/internal/security"
	"github.com/hitoshi/foodatlas/internal/user"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. リポジトリの初期化
	regionRepo := repository.NewPostgresRegionRepo(db)
	provinceRepo := repository.NewPostgresProvinceRepo(db)
	dishRepo := repository.NewPostgresDishRepo(db)
	profileRepo := repository.NewPostgresProfileRepo(db)

	// 4. セキュリティサービスの初期化
	sanitizer := security.NewDescriptionSanitizer()
	ssrfGuard := security.NewSSRFGuard()

	// アップロード先URLは設定値由来のため起動時に検証する
	if err := ssrfGuard.ValidateURL(cfg.MediaUploadURL); err != nil {
		return fmt.Errorf("unsafe media upload URL: %w", err)
	}

	// 5. IDプロバイダクライアントの初期化
	verifier := identity.NewJWTVerifier(cfg.TokenSecret, cfg.TokenIssuer)
	adminClient := identity.NewAdminClient(
		cfg.IdPAdminURL, cfg.IdPAdminKey,
		&http.Client{Timeout: 10 * time.Second},
		slog.Default(),
	)

	// 6. メディアアップローダーの初期化（SSRF防止クライアント経由で送信）
	safeClient := ssrfGuard.NewSafeClient(cfg.MediaTimeout, cfg.MediaMaxSize)
	uploader := media.NewUploader(
		safeClient, slog.Default(),
		cfg.MediaUploadURL, cfg.MediaAPIKey, cfg.MediaFolder, cfg.MediaMaxSize,
	)

	// 7. 参照整合性ガードとドメインサービスの初期化
	integrityGuard := guard.New(regionRepo, provinceRepo, dishRepo, collector)

	regionService := region.NewService(regionRepo, integrityGuard)
	provinceService := province.NewService(provinceRepo, integrityGuard, sanitizer, uploader, collector)
	dishService := dish.NewService(dishRepo, integrityGuard, sanitizer)
	userService := user.NewService(profileRepo, adminClient, slog.Default())

	// 8. ミドルウェアの初期化
	authenticator := middleware.NewAuthenticator(verifier, cfg.LoginPath, collector)

	// configのレート制限値はreq/min単位なのでreq/secに変換する
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(cfg.RateLimitGeneral) / 60.0),
		GeneralBurst:    cfg.RateLimitGeneral,
		MutationRate:    rate.Limit(float64(cfg.RateLimitMutation) / 60.0),
		MutationBurst:   cfg.RateLimitMutation,
		CleanupInterval: 5 * time.Minute,
	})
	defer rateLimiter.Stop()

	// 9. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		Authenticator:     authenticator,
		RateLimiter:       rateLimiter,
		StatusMetrics:     collector,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,

		DB:       db,
		Gatherer: registry,

		RegionService:   regionService,
		ProvinceService: provinceService,
		DishService:     dishService,
		UserService:     userService,

		MediaMaxSize: cfg.MediaMaxSize,
	})

	// 10. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
