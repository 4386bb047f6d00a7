package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/immeasurable-vikrant/taskFlow/cache"
	"github.com/immeasurable-vikrant/taskFlow/config"
	"github.com/immeasurable-vikrant/taskFlow/database"
	"github.com/immeasurable-vikrant/taskFlow/middleware/servicelog"
	"github.com/immeasurable-vikrant/taskFlow/modules/api"
	"github.com/immeasurable-vikrant/taskFlow/modules/auth"
	"github.com/immeasurable-vikrant/taskFlow/modules/todo"
)

func main() {
	log.Println("=== taskFlow ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	conn, err := database.Open(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.DB.Driver, err)
	}

	authConfig := auth.Config{
		JWT: auth.JWTConfig{
			SecretKey:     cfg.JWTSecret,
			TokenDuration: cfg.TokenTTL,
			Issuer:        cfg.JWTIssuer,
		},
		BcryptCost: cfg.BcryptCost,
	}

	// The cache is optional; a nil *cache.Cache must not reach the interface field.
	var userCache *cache.Cache
	if cfg.Redis.Enabled() {
		client, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Printf("[cache] Warning: %v; continuing without user cache", err)
		} else {
			userCache = cache.New(client, "user:", cfg.Redis.TTL)
			authConfig.Cache = userCache
		}
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	serviceLog := servicelog.New(slog.Default())
	authModule := auth.NewModule(conn, authConfig)
	todoModule := todo.NewModule(conn)

	reporters := []api.HealthReporter{serviceLog, authModule, todoModule}
	if userCache != nil {
		reporters = append(reporters, userCache)
	}
	apiModule := api.NewModule(api.Config{
		Addr:           cfg.HTTPAddr,
		AllowedOrigins: splitOrigins(cfg.CORSAllowedOrigins),
		SecureCookies:  cfg.IsProduction(),
	}, reporters...)

	// Middleware first so it observes every service registration.
	app.Register(serviceLog)
	app.Register(authModule)
	app.Register(todoModule)
	app.Register(apiModule)

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		ctx,
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				if err := app.Stop(ctx); err != nil {
					return err
				}
				if userCache != nil {
					if err := userCache.Close(); err != nil {
						log.Printf("[cache] Error closing Redis client: %v", err)
					}
				}
				return conn.Close(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Printf("Application started on %s (env=%s, store=%s, cache=%t)",
		cfg.HTTPAddr, cfg.Env, cfg.DB.Driver, cfg.Redis.Enabled())
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/auth/signup         - Create an account")
	log.Println("  POST   /api/auth/signin         - Sign in")
	log.Println("  GET    /health                  - Health check")
	log.Println("")
	log.Println("  Session Endpoints (cookie or Bearer token):")
	log.Println("  GET    /api/auth/verify         - Check the session")
	log.Println("  GET    /api/auth/me             - Current user")
	log.Println("  POST   /api/auth/logout         - Clear the session cookie")
	log.Println("  POST   /api/todo                - Create a todo")
	log.Println("  GET    /api/todos               - List todos")
	log.Println("  PATCH  /api/todo/edit/:id       - Edit a todo")
	log.Println("  DELETE /api/todo/delete/:id     - Delete a todo")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
