package messaging

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	messagePath = "/message"
	rescanPath  = "/rescan"
	healthPath  = "/health"
)

// Rescanner restarts the scan of the current view
type Rescanner interface {
	Rescan(ctx context.Context)
}

// Server exposes a dispatcher over HTTP
type Server struct {
	app        *fiber.App
	dispatcher *Dispatcher
	rescanner  Rescanner
	logger     *zap.Logger
}

// NewServer creates a host server. rescanner may be nil.
func NewServer(dispatcher *Dispatcher, rescanner Rescanner, logger *zap.Logger) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "llm-threat-scanner",
			DisableStartupMessage: true,
		}),
		dispatcher: dispatcher,
		rescanner:  rescanner,
		logger:     logger,
	}
	s.Register(s.app)
	return s
}

// Register adds the host routes to app
func (s *Server) Register(app *fiber.App) {
	app.Get(healthPath, s.Health)
	app.Post(messagePath, s.Message)
	app.Post(rescanPath, s.Rescan)
}

// App returns the underlying fiber application
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called
func (s *Server) Listen(addr string) error {
	s.logger.Info("Host server listening", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Health reports that the host is up
func (s *Server) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"ai_ready": s.dispatcher.service.ModelReady(),
	})
}

// Message answers one messaging request
func (s *Server) Message(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(&Response{
			Success: false,
			Error:   "invalid request body",
		})
	}
	if req.Action == "" {
		return c.Status(fiber.StatusBadRequest).JSON(&Response{
			Success: false,
			Error:   "action is required",
		})
	}

	return c.JSON(s.dispatcher.Handle(c.UserContext(), &req))
}

// Rescan asks the attached scanner to rescan the current view
func (s *Server) Rescan(c *fiber.Ctx) error {
	if s.rescanner == nil {
		return fiber.NewError(fiber.StatusNotFound, "no scanner attached")
	}

	s.rescanner.Rescan(c.UserContext())
	return c.JSON(fiber.Map{"success": true})
}
