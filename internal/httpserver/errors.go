package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/minishop/internal/service"
	"github.com/Skotchmaster/minishop/pkg/logging"
)

// ErrorHandler renders every error as {"error": msg}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		default:
			msg = http.StatusText(code)
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"error": msg})
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("write_error_response_failed", "error", err)
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail turns a service error into an HTTP error. Domain errors keep their
// message; anything else is logged and reported as "internalMsg: cause".
func fail(l *slog.Logger, event string, err error, internalMsg string) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		l.Error(event, "status", status, "reason", internalMsg, "error", err)
		if internalMsg == "" {
			return echo.NewHTTPError(status, err.Error())
		}
		return echo.NewHTTPError(status, internalMsg+": "+err.Error())
	}
	l.Warn(event, "status", status, "reason", err.Error())
	return echo.NewHTTPError(status, err.Error())
}
