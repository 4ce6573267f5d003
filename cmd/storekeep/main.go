package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"storekeep/internal/config"
	"storekeep/internal/http/handlers"
	applog "storekeep/internal/log"
	"storekeep/internal/repos"
)

const shutdownTimeout = 10 * time.Second

var devFlag = &cli.BoolFlag{
	Name:    "dev",
	Usage:   "allow serving with the default JWT secret",
	EnvVars: []string{"DEV_MODE"},
}

func main() {
	app := &cli.App{
		Name:   "storekeep",
		Usage:  "multi-tenant retail management API",
		Action: serve,
		Flags:  []cli.Flag{devFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API (default)",
				Flags:  []cli.Flag{devFlag},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: migrateDB,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup() (config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	applog.SetLevel(cfg.LogLevel)
	closeLog := func() {}

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			applog.Logger().Warnf("could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			applog.SetOutput(mw)
			log.SetOutput(mw)
			closeLog = func() { _ = f.Close() }
		}
	}
	return cfg, closeLog, nil
}

func migrateDB(_ *cli.Context) error {
	cfg, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return errors.Wrap(err, "migrate")
	}
	defer db.Close()
	applog.Logger().WithField("driver", db.DriverName()).Info("schema up to date")
	return nil
}

func serve(c *cli.Context) error {
	cfg, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()
	if c.Bool("dev") {
		cfg.DevMode = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return errors.Wrap(err, "open db")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := handlers.NewDeps(db, cfg)
	if err := deps.AuthSvc.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return errors.Wrap(err, "seed admin")
	}
	if cfg.AdminPassword == "" {
		applog.Logger().Warn("ADMIN_PASSWORD not set, no admin account seeded")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		// Room for one image plus the form fields around it.
		BodyLimit: cfg.MaxUploadBytes + 1<<20,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(handlers.AccessLog())
	app.Use(fiberrecover.New())
	app.Use(helmet.New())

	handlers.Register(app, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		applog.Logger().WithField("port", cfg.Port).Info("listening")
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		applog.Logger().Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})
	return g.Wait()
}
