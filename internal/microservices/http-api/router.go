// Package httpapi assembles the library REST API.
package httpapi

import (
	"net/http"

	"libraryhub/internal/config"
	"libraryhub/internal/microservices/http-api/handler"
	"libraryhub/internal/microservices/http-api/middleware"
	"libraryhub/internal/microservices/http-api/repository"
	"libraryhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Deps are the process-level resources the API is built from.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client // optional; enables Idempotency-Key support
	Clock  service.Clock // defaults to the system clock in the library's timezone
	Log    zerolog.Logger
}

// App is the wired API: the gin engine plus the services startup code needs.
type App struct {
	Router  *gin.Engine
	Members service.MemberService
}

func New(d Deps) *App {
	cfg := d.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.RegisterValidators()

	clock := d.Clock
	if clock == nil {
		clock = service.NewSystemClock(cfg.Location())
	}

	// --- Repositories ---
	tx := repository.NewTransactor(d.DB)
	members := repository.NewMemberRepository(d.DB)
	refreshTokens := repository.NewRefreshTokenRepository(d.DB)
	authors := repository.NewAuthorRepository(d.DB)
	categories := repository.NewCategoryRepository(d.DB)
	books := repository.NewBookRepository(d.DB)
	borrows := repository.NewBorrowRepository(d.DB)
	reservations := repository.NewReservationRepository(d.DB)

	// --- Services ---
	rules := service.LendingRules{LoanPeriodDays: cfg.LoanPeriodDays, FinePerDay: cfg.FinePerDay}
	authSvc := service.NewAuthService(members, refreshTokens, clock, cfg, d.Log)
	memberSvc := service.NewMemberService(tx, members, refreshTokens, clock, d.Log)
	authorSvc := service.NewAuthorService(tx, authors)
	categorySvc := service.NewCategoryService(tx, categories)
	bookSvc := service.NewBookService(tx, books, authors, categories, borrows, reservations, d.Log)
	ledger := service.NewCopyLedger(tx, books)
	borrowSvc := service.NewBorrowService(tx, borrows, members, ledger, clock, rules, d.Log)
	reservationSvc := service.NewReservationService(tx, reservations, members, books, clock, d.Log)

	// --- Engine and global middleware ---
	r := gin.New()
	// rate limiting keys on the socket address, not on forwarded headers
	_ = r.SetTrustedProxies(nil)
	r.Use(
		middleware.Recovery(d.Log),
		middleware.RequestID(),
		middleware.RequestLogger(d.Log),
		middleware.Metrics(),
		middleware.Timeout(cfg.RequestTimeout),
		middleware.Authenticate(authSvc, members),
	)

	limit := middleware.RateLimit(middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst))
	idempotent := func(c *gin.Context) { c.Next() }
	if d.Redis != nil {
		store := repository.NewRedisIdempotencyStore(d.Redis)
		idempotent = middleware.Idempotency(store, cfg.IdempotencyTTL, d.Log)
	}

	// --- Probes and metrics (no auth required) ---
	handler.NewHealthHandler(d.DB, d.Redis).RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// --- API routes ---
	handler.NewAuthHandler(authSvc).RegisterRoutes(r, limit)
	handler.NewMemberHandler(memberSvc).RegisterRoutes(r.Group("/members"))
	handler.NewAuthorHandler(authorSvc).RegisterRoutes(r.Group("/authors"))
	handler.NewCategoryHandler(categorySvc).RegisterRoutes(r.Group("/categories"))
	handler.NewBookHandler(bookSvc).RegisterRoutes(r)
	handler.NewBorrowHandler(borrowSvc).RegisterRoutes(r, idempotent)
	handler.NewReservationHandler(reservationSvc).RegisterRoutes(r, idempotent)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	})

	return &App{Router: r, Members: memberSvc}
}
