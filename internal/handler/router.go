package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/plantcare/internal/metrics"
	"github.com/hitoshi/plantcare/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBの部分集合として定義する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenResolver     middleware.TokenResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// サービス
	AuthService     AuthServiceInterface
	RegisterService RegisterServiceInterface
	UserService     UserServiceInterface
	PlantService    PlantServiceInterface
	CommentService  CommentServiceInterface

	// 写真
	PhotoStore PhotoStore
	PhotoDir   string

	// 運用
	HealthChecker HealthChecker
	Collector     metrics.MetricsCollector
	Gatherer      prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → (認証ルートのみ) Auth → RateLimit(General)
//
// 登録・ログイン・ヘルスチェック・メトリクス・写真配信は認証不要。
// ログインにはIP単位の専用レート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.Collector)
	userHandler := NewUserHandler(deps.RegisterService, deps.UserService, deps.Collector)
	plantHandler := NewPlantHandler(deps.PlantService, deps.PhotoStore, deps.Collector)
	commentHandler := NewCommentHandler(deps.CommentService, deps.Collector)

	// --- 認証不要のルート ---

	r.Post("/users/", userHandler.Register)
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/token", authHandler.Token)
	r.Get("/health", NewHealthHandler(deps.HealthChecker))

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// 写真の静的配信
	if deps.PhotoDir != "" {
		fileServer := http.StripPrefix("/photos/", http.FileServer(http.Dir(deps.PhotoDir)))
		r.Get("/photos/*", fileServer.ServeHTTP)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー管理
		r.Get("/users/me/", userHandler.Me)
		r.Put("/users/{id}", userHandler.Update)
		r.Delete("/users/", userHandler.Delete)
		r.Get("/users/{id}/comments/", commentHandler.ListByUser)

		// 植物管理
		r.Route("/plants", func(r chi.Router) {
			r.Post("/", plantHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", plantHandler.Update)
				r.Delete("/", plantHandler.Delete)
				r.Put("/start-care", plantHandler.StartCare)
				r.Put("/end-care", plantHandler.EndCare)
				r.Get("/comments/", commentHandler.ListByPlant)
			})
		})

		// 一覧
		r.Get("/my_plants/", plantHandler.ListMine)
		r.Get("/all_plants/", plantHandler.ListOthers)
		r.Get("/care-requests/", plantHandler.ListCareRequests)

		// コメント管理
		r.Route("/comments", func(r chi.Router) {
			r.Post("/", commentHandler.Create)
			r.Put("/{id}", commentHandler.Update)
			r.Delete("/{id}", commentHandler.Delete)
		})
	})

	return r
}

// NewHealthHandler はDB接続を確認するヘルスチェックハンドラーを返す。
// GET /health
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	}
}
