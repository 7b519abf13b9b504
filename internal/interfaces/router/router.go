package router

import (
	"vivenda-backend/internal/application/allocation"
	authsvc "vivenda-backend/internal/application/auth"
	propsvc "vivenda-backend/internal/application/properties"
	ressvc "vivenda-backend/internal/application/reservations"
	usersvc "vivenda-backend/internal/application/user"
	"vivenda-backend/internal/config"
	"vivenda-backend/internal/infrastructure/database"
	authhandler "vivenda-backend/internal/interfaces/handlers/auth"
	healthhandler "vivenda-backend/internal/interfaces/handlers/health"
	prophandler "vivenda-backend/internal/interfaces/handlers/properties"
	reshandler "vivenda-backend/internal/interfaces/handlers/reservations"
	simhandler "vivenda-backend/internal/interfaces/handlers/simulator"
	userhandler "vivenda-backend/internal/interfaces/handlers/user"
	"vivenda-backend/internal/middleware"
	"vivenda-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp wires the fiber app: middleware chain, health endpoints and the
// /api/v1 route groups. DB is optional so the health surface stays up while
// the database is down.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionHandler, rdb, err := middleware.Session(middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	})
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.ResponseFormatter())
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             nil,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
		if errDB = database.AutoMigrate(db); errDB != nil {
			return nil, nil, nil, errDB
		}
		hh.DB = &gormDBPinger{db: db}
	}

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}

	var userFinder authsvc.UserFinder
	if db != nil {
		userFinder = &authsvc.GormUserFinder{DB: db}
	}
	ah := &authhandler.Handlers{
		UserFinder: userFinder,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if db != nil && rdb != nil {
		engine := allocation.NewService(db)

		// Properties
		ph := &prophandler.Handlers{
			Service:    &propsvc.Service{DB: db},
			Allocation: engine,
		}
		pg := app.Group("/api/v1/properties", middleware.RequireAuth())
		pg.Get("/get-all-properties", middleware.AuthorizePermission(constants.ViewData), ph.GetAllProperties)
		pg.Get("/get-property/:property_id", middleware.AuthorizePermission(constants.ViewData), ph.GetProperty)
		pg.Get("/get-ledger/:property_id", middleware.AuthorizePermission(constants.ViewData), ph.GetLedger)
		pg.Get("/get-ledger-events/:property_id", middleware.AuthorizePermission(constants.ViewLedgerEvents), ph.GetLedgerEvents)
		pg.Post("/create-property", middleware.AuthorizePermission(constants.CreateProperty), ph.CreateProperty)
		pg.Delete("/delete-property/:property_id", middleware.AuthorizePermission(constants.DeleteProperty), ph.DeleteProperty)
		pg.Post("/block-quotas", middleware.AuthorizePermission(constants.BlockQuotas), ph.BlockQuotas)
		pg.Post("/unblock-quotas", middleware.AuthorizePermission(constants.BlockQuotas), ph.UnblockQuotas)

		// Reservations. Cancel has no permission gate: the engine restricts
		// it to the requester.
		rh := &reshandler.Handlers{
			Service:    &ressvc.Service{DB: db},
			Allocation: engine,
		}
		rg := app.Group("/api/v1/reservations", middleware.RequireAuth())
		rg.Post("/create-reservation", middleware.AuthorizePermission(constants.RequestReservation), rh.CreateReservation)
		rg.Post("/approve-reservation", middleware.AuthorizePermission(constants.DecideReservation), rh.ApproveReservation)
		rg.Post("/reject-reservation", middleware.AuthorizePermission(constants.DecideReservation), rh.RejectReservation)
		rg.Post("/cancel-reservation", rh.CancelReservation)
		rg.Get("/my-reservations", middleware.AuthorizePermission(constants.ViewData), rh.MyReservations)
		rg.Get("/pending-reservations", middleware.AuthorizePermission(constants.DecideReservation), rh.PendingReservations)
		rg.Get("/get-reservation/:id", middleware.AuthorizePermission(constants.ViewData), rh.GetReservation)

		// Simulator
		sh := &simhandler.Handlers{}
		sg := app.Group("/api/v1/simulator", middleware.RequireAuth())
		sg.Post("/project", sh.Project)

		// Users
		uh := &userhandler.Handlers{Service: &usersvc.Service{DB: db, Rdb: rdb}}
		ug := app.Group("/api/v1/users", middleware.RequireAuth())
		ug.Post("/create-user", middleware.AuthorizePermission(constants.CreateUser), uh.CreateUser)
		ug.Get("/view-user/:id", uh.ViewUser)
		ug.Patch("/update-role", middleware.AuthorizePermission(constants.AssignRole), uh.UpdateRole)
	}

	return app, db, rdb, nil
}
