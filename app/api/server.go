package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"portfolio/app/client/llm"
	"portfolio/app/client/voice"
	"portfolio/app/config"
	"portfolio/app/service/chat"
	"portfolio/app/service/quota"
	"portfolio/app/service/quote"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg         *config.Config
	chatSvc     *chat.Service
	quotaSvc    *quota.Service
	quoteSvc    *quote.Service
	voiceClient *voice.Client

	app *fiber.App
}

func New(di *do.Injector) (*Server, error) {
	s := &Server{
		cfg:         do.MustInvoke[*config.Config](di),
		chatSvc:     do.MustInvoke[*chat.Service](di),
		quotaSvc:    do.MustInvoke[*quota.Service](di),
		quoteSvc:    do.MustInvoke[*quote.Service](di),
		voiceClient: do.MustInvoke[*voice.Client](di),
	}

	// llm client is owned by the chat service, invoking it here only makes
	// sure DI wiring fails fast on startup instead of on the first request
	_ = do.MustInvoke[*llm.Client](di)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(fiberrecover.New())

	corsConfig := cors.ConfigDefault
	if s.cfg.Server.FrontendOrigin != "" {
		corsConfig.AllowOrigins = s.cfg.Server.FrontendOrigin
	}
	app.Use(cors.New(corsConfig))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/api/chat", s.handleChat)
	app.Post("/api/chat/stream", s.handleChatStream)
	app.Get("/api/chat/limit", s.handleChatLimit)
	app.Post("/api/chat/limit", s.handleChatLimit)
	app.Post("/api/quote", s.handleQuote)
	app.Post("/api/voice/token", s.handleVoiceToken)

	s.app = app

	return s, nil
}

// App exposes the fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()

		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Listening", "addr", s.cfg.Server.Addr)

	if err := s.app.Listen(s.cfg.Server.Addr); err != nil {
		slog.Error("Server stopped", "error", err)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
