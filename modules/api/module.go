package api

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/immeasurable-vikrant/taskFlow/modules/auth"
	"github.com/immeasurable-vikrant/taskFlow/modules/todo"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr           string
	AllowedOrigins []string
	SecureCookies  bool
}

// HealthReporter is a module whose health is included in /health.
type HealthReporter interface {
	Name() string
	Health(ctx context.Context) mono.HealthStatus
}

// APIModule is the HTTP API module.
type APIModule struct {
	app         *fiber.App
	config      Config
	authAdapter auth.AuthPort
	todoAdapter todo.TodoPort
	validator   *requestValidator
	reporters   []HealthReporter
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule. Reporters are polled by GET /health.
func NewModule(config Config, reporters ...HealthReporter) *APIModule {
	if config.Addr == "" {
		config.Addr = ":3000"
	}
	return &APIModule{
		config:    config,
		validator: newRequestValidator(),
		reporters: reporters,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "todo"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "todo":
		m.todoAdapter = todo.NewTodoAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authAdapter == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.todoAdapter == nil {
		return fmt.Errorf("todo dependency not set")
	}

	m.app = m.buildApp()

	go func() {
		if err := m.app.Listen(m.config.Addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", m.config.Addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.config.Addr,
		},
	}
}

func (m *APIModule) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(m.corsMiddleware())

	m.setupRoutes(app)
	return app
}

// corsMiddleware allows credentialed requests from the configured origins.
// Fiber refuses AllowCredentials with a wildcard origin, so "*" disables credentials.
func (m *APIModule) corsMiddleware() fiber.Handler {
	origins := strings.Join(m.config.AllowedOrigins, ",")
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: origins != "*",
	})
}

func (m *APIModule) setupRoutes(app *fiber.App) {
	app.Get("/health", m.HealthCheck)

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", m.Signup)
	authRoutes.Post("/signin", m.Signin)

	gate := SessionMiddleware(m.authAdapter)
	authRoutes.Get("/verify", gate, m.Verify)
	authRoutes.Get("/me", gate, m.Me)
	authRoutes.Post("/logout", gate, m.Logout)

	api.Post("/todo", gate, m.CreateTodo)
	api.Get("/todos", gate, m.ListTodos)
	api.Patch("/todo/edit/:id", gate, m.UpdateTodo)
	api.Delete("/todo/delete/:id", gate, m.DeleteTodo)
}

// HealthCheck aggregates the health of the API and every reporter.
func (m *APIModule) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:  "healthy",
		Modules: make(map[string]ModuleHealth, len(m.reporters)+1),
	}
	reporters := append([]HealthReporter{m}, m.reporters...)
	for _, r := range reporters {
		h := r.Health(ctx)
		resp.Modules[r.Name()] = ModuleHealth{
			Healthy: h.Healthy,
			Message: h.Message,
			Details: h.Details,
		}
		if !h.Healthy {
			resp.Status = "unhealthy"
		}
	}

	status := fiber.StatusOK
	if resp.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}
