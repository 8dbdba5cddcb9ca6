package routes

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shelfcontrol/backend/config"
	"shelfcontrol/backend/controllers"
	"shelfcontrol/backend/middleware"
	"shelfcontrol/backend/repository"
	"shelfcontrol/backend/rpc"
	"shelfcontrol/backend/services"
	"shelfcontrol/backend/storage"
	"shelfcontrol/backend/utils"
)

// Services holds everything the handlers and commands share.
type Services struct {
	Profiles  *repository.ProfileRepository
	Analytics *services.AnalyticsService
	Accounts  *services.AccountService
	Profile   *services.ProfileService
	Waitlist  *services.WaitlistService
	Bucket    storage.Bucket
	Signer    *storage.Signer
}

// NewServices wires repositories, storage and services over one connection pool.
func NewServices(db *gorm.DB, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	bucket, err := storage.NewLocalBucket(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open avatar storage: %w", err)
	}
	signer := storage.NewSigner(cfg.StorageSigningKey, cfg.PublicURL+"/storage/avatars")

	profiles := repository.NewProfileRepository(db)

	analytics := services.NewAnalyticsService(
		repository.NewAnalyticsRepository(db),
		profiles,
		repository.NewSnapshotRepository(db),
		cfg.Analytics,
		logger,
	)
	analytics.UseSigner(signer)
	if cfg.Analytics.UseRPC {
		client, err := rpc.FromGorm(db)
		if err != nil {
			return nil, err
		}
		analytics.UseRanking(client)
	}

	return &Services{
		Profiles:  profiles,
		Analytics: analytics,
		Accounts:  services.NewAccountService(repository.NewAccountRepository(db), profiles, bucket, logger),
		Profile:   services.NewProfileService(profiles, bucket, signer, logger),
		Waitlist:  services.NewWaitlistService(repository.NewWaitlistRepository(db), logger),
		Bucket:    bucket,
		Signer:    signer,
	}, nil
}

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, svc *Services, logger *zap.Logger) {
	app.Get("/health", healthCheck(db))

	// Marketing routes
	marketingController := controllers.NewMarketingController(svc.Waitlist, cfg.SiteURL, logger)
	app.Get("/sitemap.xml", marketingController.Sitemap)
	app.Post("/api/waitlist", marketingController.JoinWaitlist)

	// Signed avatar URLs
	storageController := controllers.NewStorageController(svc.Bucket, svc.Signer, logger)
	app.Get("/storage/avatars/:key", storageController.GetAvatar)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(svc.Profiles, logger)

	// Profile routes
	profileController := controllers.NewProfileController(svc.Profile, logger)
	profile := app.Group("/api/profile", authMiddleware)
	profile.Get("/", profileController.GetProfile)
	profile.Put("/", profileController.UpdateProfile)
	profile.Post("/avatar", profileController.UploadAvatar)
	profile.Delete("/avatar", profileController.DeleteAvatar)

	// Account actions answer unauthenticated callers themselves
	accountController := controllers.NewAccountController(svc.Accounts, logger)
	account := app.Group("/api/account", middleware.OptionalAuth(cfg))
	account.Post("/delete", accountController.DeleteAccount)
	account.Post("/delete-data", accountController.DeleteUserData)

	// Admin analytics routes
	analyticsController := controllers.NewAnalyticsController(svc.Analytics, cfg, logger)
	admin := app.Group("/api/admin", authMiddleware, adminMiddleware)
	admin.Get("/users", analyticsController.GetUsers)

	analytics := admin.Group("/analytics")
	analytics.Get("/activity-types", analyticsController.GetActivityTypes)
	analytics.Get("/activity-types/over-time", analyticsController.GetActivityTypesOverTime)
	analytics.Get("/searches", analyticsController.GetSearches)
	analytics.Get("/deadlines/stats", analyticsController.GetDeadlineStats)
	analytics.Get("/deadlines/over-time", analyticsController.GetDeadlinesOverTime)
	analytics.Get("/deadlines/by-status", analyticsController.GetDeadlinesByStatus)
	analytics.Get("/deadlines/active-overdue", analyticsController.GetActiveOverdue)
	analytics.Get("/formats", analyticsController.GetFormats)
	analytics.Get("/progress", analyticsController.GetProgressOverTime)
	analytics.Get("/profiles-created", analyticsController.GetProfilesCreated)
	analytics.Get("/top-books", analyticsController.GetTopBooks)
	analytics.Get("/top-users", analyticsController.GetTopUsers)
	analytics.Get("/most-active-today", analyticsController.GetMostActiveToday)
	analytics.Get("/top-readers-today", analyticsController.GetTopReadersToday)
	analytics.Get("/reader-ranks", analyticsController.GetReaderRanks)
	analytics.Get("/export", analyticsController.ExportWorkbook)
}

func healthCheck(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return utils.Error(c, fiber.StatusServiceUnavailable, fmt.Errorf("database unavailable: %w", err))
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{"status": "ok"})
	}
}
