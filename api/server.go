package api

import (
	"context"
	"log/slog"
	"messages-service/repositories"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const messagesPrefix = "/api/v1/messages"

type Server struct {
	echo       *echo.Echo
	repository repositories.IMessageRepository
	log        *slog.Logger
}

func NewServer(repository repositories.IMessageRepository, log *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug("Request served",
				"id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	s := &Server{echo: e, repository: repository, log: log}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/health", s.health)

	g := s.echo.Group(messagesPrefix)
	g.POST("/create", s.createMessage)
	g.GET("/read/:id", s.readMessage)
	g.PATCH("/update", s.updateMessage)
	g.DELETE("/delete/:id", s.deleteMessage)
	g.GET("/count", s.countMessages)
	g.GET("/all-messages-for-user/:email", s.allMessagesForUser)
	g.DELETE("/delete-all-messages-for-user/:email", s.deleteAllMessagesForUser)
	g.PATCH("/messages-as-read", s.messagesAsRead)
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be mounted or tested without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
