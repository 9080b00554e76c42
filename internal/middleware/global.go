package middleware

import (
	"net/http"

	"github.com/deppfellow/user-api/internal/errs"
	"github.com/deppfellow/user-api/internal/server"
	"github.com/deppfellow/user-api/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// GlobalMiddlewares groups the global middleware and the global error handler.
type GlobalMiddlewares struct {
	server *server.Server
}

func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// RequestLogger writes one "API" line per request that the dispatcher did
// not already log.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if dispatched, _ := c.Get(DispatchedKey).(bool); dispatched {
				return nil
			}

			// The global error handler writes the final status after this
			// runs, so derive it from the error.
			// See https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
			statusCode := v.Status
			if v.Error != nil {
				statusCode = statusFor(v.Error)
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// Recover turns panics outside the dispatcher into errors for the global
// error handler.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.Recover()
}

func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// BodyLimit rejects request bodies larger than the configured limit.
func (global *GlobalMiddlewares) BodyLimit() echo.MiddlewareFunc {
	return middleware.BodyLimit(global.server.Config.Server.BodyLimit)
}

// GlobalErrorHandler renders every error that escapes a handler in the same
// envelope the dispatcher uses.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	envelope := envelopeFor(err)

	logger := *GetLogger(c)
	logger.Error().Stack().
		Err(err).
		Int("status", envelope.StatusCode).
		Str("error_code", envelope.Error).
		Msg(envelope.Message)

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(envelope.StatusCode)
			return
		}
		_ = c.JSON(envelope.StatusCode, envelope)
	}
}

func envelopeFor(err error) errs.Envelope {
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if echoErr.Code == http.StatusNotFound {
			return errs.NewNotFoundError("Route not found").Envelope()
		}

		message, ok := echoErr.Message.(string)
		if !ok {
			message = http.StatusText(echoErr.Code)
		}
		return errs.Envelope{
			Error:      errs.MakeUpperCaseWithUnderscores(http.StatusText(echoErr.Code)),
			StatusCode: echoErr.Code,
			Message:    message,
		}
	}

	return errs.Classify(sqlerr.HandleError(err)).Envelope()
}

func statusFor(err error) int {
	return envelopeFor(err).StatusCode
}
