package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	log "github.com/sirupsen/logrus"

	_ "github.com/staszek-kampania/backend/docs"
	"github.com/staszek-kampania/backend/middleware"
	"github.com/staszek-kampania/backend/services/handlers"
	"github.com/staszek-kampania/backend/shared"
)

// HttpService is the single public listener: the /api surface plus the
// static campaign site on everything else.
type HttpService struct {
	context.DefaultService

	authSvc       *AuthService
	jwtSvc        *JWTService
	rateLimitSvc  *RateLimitService
	licznikSvc    *LicznikService
	moderationSvc *ModerationService
	reputationSvc *ReputationService
	staticSvc     *StaticService
	monitoringSvc *MonitoringService

	authMw      *middleware.AuthMiddleware
	rateLimitMw *middleware.RateLimitMiddleware
	headersMw   *middleware.HeadersMiddleware

	port            int
	serverStartedAt string
	server          *fiber.App
}

const HTTP_SVC = "http_svc"

const (
	maxRequestURILength = 8192
	maxBodyBytes        = 64 * 1024
)

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	svc.port = 8080
	if port := os.Getenv("PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	}
	svc.serverStartedAt = time.Now().UTC().Format(time.RFC3339)

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.licznikSvc = svc.Service(LICZNIK_SVC).(*LicznikService)
	svc.moderationSvc = svc.Service(MODERATION_SVC).(*ModerationService)
	svc.reputationSvc = svc.Service(REPUTATION_SVC).(*ReputationService)
	svc.staticSvc = svc.Service(STATIC_SVC).(*StaticService)
	svc.monitoringSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	svc.authMw = svc.Service(middleware.AUTH_MIDDLEWARE_SVC).(*middleware.AuthMiddleware)
	svc.rateLimitMw = svc.Service(middleware.RATE_LIMIT_MIDDLEWARE_SVC).(*middleware.RateLimitMiddleware)
	svc.headersMw = svc.Service(middleware.HEADERS_MIDDLEWARE_SVC).(*middleware.HeadersMiddleware)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             maxBodyBytes,
		ReadBufferSize:        16384,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          shared.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(MonitoringMiddleware(svc.monitoringSvc))
	app.Use(func(c *fiber.Ctx) error {
		if len(c.OriginalURL()) > maxRequestURILength {
			c.Set(fiber.HeaderCacheControl, "no-store")
			c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
			return c.Status(fiber.StatusRequestURITooLong).SendString("uri too long")
		}
		return c.Next()
	})
	app.Use(svc.headersMw.Security())

	svc.registerAPIRoutes(app)

	// Everything outside /api is the campaign site.
	app.Use(svc.staticSvc.Handler)

	svc.server = app

	log.WithField("port", svc.port).Info("Server listening")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) registerAPIRoutes(app *fiber.App) {
	systemHandler := handlers.NewSystemHandler(svc.moderationSvc, svc.serverStartedAt)
	adminHandler := handlers.NewAdminHandler(svc.authSvc, svc.jwtSvc, svc.rateLimitSvc)
	counterHandler := handlers.NewCounterHandler(svc.licznikSvc)
	basicDbHandler := handlers.NewBasicDbHandler(svc.licznikSvc, svc.rateLimitSvc, svc.moderationSvc, svc.reputationSvc)

	api := app.Group("/api", svc.headersMw.CORS(), svc.authMw.DetectAdmin())

	api.Get("/healthz", systemHandler.Healthz)
	api.Get("/deploy", systemHandler.Deploy)
	api.Get("/moderation/active", systemHandler.ModerationActive)

	api.Post("/admin/login", adminHandler.Login)
	api.Post("/admin/logout", adminHandler.Logout)
	api.Get("/admin/me", adminHandler.Me)

	api.Get("/ile/:counter", counterHandler.Get)
	api.Get("/wyzeruj/:name", svc.rateLimitMw.Requests(), svc.authMw.RequireAdmin(), counterHandler.Reset)
	api.Get("/dodaj/:counter", svc.rateLimitMw.Requests(), counterHandler.Add)
	api.Get("/dodaj/:counter/:delta", svc.rateLimitMw.Requests(), counterHandler.Add)

	// The append/delete handlers manage their own limiters: validation has
	// to run first so malformed junk does not burn the quota.
	api.Get("/baza-podstawowa/dodaj/:key/*", basicDbHandler.Append)
	api.Get("/baza-podstawowa/odczyt/:key", basicDbHandler.Read)
	api.Get("/baza-podstawowa/usun/:key/*", basicDbHandler.Delete)

	api.Get("/docs/*", swagger.HandlerDefault)

	api.Use(func(c *fiber.Ctx) error {
		return shared.ResponseJSON(c, fiber.StatusNotFound, fiber.Map{"error": "not_found"})
	})
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}
