package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/anonto42/mintfeed/backend/validators"
	"github.com/labstack/echo/v4"
)

// bind decodes procedure input from the query string (GET) or JSON body
// (POST) and validates it.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.Validation("Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		var verr *validators.ValidationError
		if errors.As(err, &verr) {
			return apperr.Validation("%s", verr.Error())
		}
		return apperr.Validation("%s", err.Error())
	}
	return nil
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{
		"success": true,
		"data":    data,
	})
}

func ok(c echo.Context, data interface{}) error {
	return respond(c, http.StatusOK, data)
}

func done(c echo.Context) error {
	return ok(c, echo.Map{"success": true})
}

// ErrorHandler renders every error as {"success": false, "error": {...}}.
// Internal errors are logged and replaced by a generic message.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status int
		code   string
		msg    string
	)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		code = apperr.KindForStatus(he.Code).String()
		msg = fmt.Sprint(he.Message)
		if status >= http.StatusInternalServerError {
			slog.Error("request failed", "path", c.Path(), "error", err)
			msg = "internal server error"
		}
	} else {
		kind := apperr.KindOf(err)
		status = kind.Status()
		code = kind.String()
		msg = apperr.PublicMessage(err)
		if kind == apperr.KindInternal {
			slog.Error("procedure failed", "path", c.Path(), "error", err)
		}
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, echo.Map{
			"success": false,
			"error": echo.Map{
				"code":    code,
				"message": msg,
			},
		})
	}
	if werr != nil {
		slog.Warn("failed to write error response", "error", werr)
	}
}
