package api

import (
	"fmt"
	"messages-service/domain"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

var bodyBinder = &echo.DefaultBinder{}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) createMessage(c echo.Context) error {
	var request createRequest
	if err := bodyBinder.BindBody(c, &request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid message body"})
	}
	created, ok, err := s.repository.Create(c.Request().Context(), request.toMessage())
	if err != nil {
		return s.internalError(c, err)
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "message rejected"})
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) readMessage(c echo.Context) error {
	id, err := messageID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	message, ok, err := s.repository.Read(c.Request().Context(), id)
	if err != nil {
		return s.internalError(c, err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "message not found"})
	}
	return c.JSON(http.StatusOK, message)
}

func (s *Server) updateMessage(c echo.Context) error {
	var update domain.MessageUpdate
	if err := bodyBinder.BindBody(c, &update); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid update body"})
	}
	ok, err := s.repository.Update(c.Request().Context(), &update)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(statusOf(ok), ok)
}

func (s *Server) deleteMessage(c echo.Context) error {
	id, err := messageID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	ok, err := s.repository.Delete(c.Request().Context(), id)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(statusOf(ok), ok)
}

func (s *Server) countMessages(c echo.Context) error {
	count, err := s.repository.Count(c.Request().Context())
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, count)
}

func (s *Server) allMessagesForUser(c echo.Context) error {
	email, err := emailParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed email"})
	}
	conversations, err := s.repository.GetAllMessagesForUser(c.Request().Context(), email)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, conversations)
}

func (s *Server) deleteAllMessagesForUser(c echo.Context) error {
	email, err := emailParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed email"})
	}
	ok, err := s.repository.DeleteAllMessagesForUser(c.Request().Context(), email)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(statusOf(ok), ok)
}

func (s *Server) messagesAsRead(c echo.Context) error {
	var ids []domain.MessageID
	if err := bodyBinder.BindBody(c, &ids); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "expected a list of message ids"})
	}
	ok, err := s.repository.MarkAsRead(c.Request().Context(), ids)
	if err != nil {
		return s.internalError(c, err)
	}
	return c.JSON(statusOf(ok), ok)
}

func (s *Server) internalError(c echo.Context, err error) error {
	s.log.Error("Request failed", "uri", c.Request().RequestURI, "error", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func messageID(c echo.Context) (domain.MessageID, error) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id must be a positive integer, got %q", c.Param("id"))
	}
	return domain.MessageID(n), nil
}

// emailParam returns the decoded email segment.
// Echo only hands out raw segments when it routed on the escaped path.
func emailParam(c echo.Context) (string, error) {
	email := c.Param("email")
	if c.Request().URL.RawPath == "" {
		return email, nil
	}
	return url.PathUnescape(email)
}

func statusOf(ok bool) int {
	if ok {
		return http.StatusOK
	}
	return http.StatusNotFound
}
