package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/leadbook/internal/service"
)

// errBadBody is returned when a JSON body cannot be decoded.
var errBadBody = echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")

// NewHTTPErrorHandler maps every error that reaches echo onto the
// {message, errors?} response shape.  Unexpected errors are logged with
// their detail; the detail is echoed to the client only outside
// production.
func NewHTTPErrorHandler(log logrus.FieldLogger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := errorResponse(err, production)
		if status >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"uri":        c.Request().RequestURI,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).Error("unhandled error")
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.WithError(err).Warn("write error response")
		}
	}
}

func errorResponse(err error, production bool) (int, echo.Map) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, echo.Map{"message": "Validation failed", "errors": ve.Fields}
	}
	switch {
	case errors.Is(err, service.ErrDuplicateLead):
		return http.StatusBadRequest, echo.Map{"message": "Lead with this email already exists"}
	case errors.Is(err, service.ErrDuplicateEmail):
		return http.StatusBadRequest, echo.Map{"message": "User already exists with this email"}
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"}
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, echo.Map{"message": "Token is not valid"}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, echo.Map{"message": "Lead not found"}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		msg, ok := he.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(he.Code)
		}
		return he.Code, echo.Map{"message": msg}
	}

	status := http.StatusInternalServerError
	if he != nil {
		status = he.Code
	}
	body := echo.Map{"message": "Server error"}
	if !production {
		body["error"] = err.Error()
	}
	return status, body
}
