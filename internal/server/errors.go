package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/file-tools/internal/errs"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// handleError is the echo HTTPErrorHandler. Categorized errors map through
// errs.HTTPStatus; echo's own errors (404, 405, 413, 503 on timeout) keep
// their status.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := errs.HTTPStatus(err)
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	}

	entry := s.log.WithFields(logrus.Fields{
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		"status":     status,
	})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("request error")
	} else {
		entry.WithError(err).Debug("rejected request")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorResponse{Error: msg})
	}
	if err != nil {
		s.log.WithError(err).Error("failed to write error response")
	}
}
