package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/artifact"
	"github.com/douaaea/schoolhub/core/identity"
	"github.com/douaaea/schoolhub/core/workreturn"
)

var (
	errInvalidCredentials = echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	errInvalidGradeFormat = core.NewValidationError(errors.New("Invalid grade format"))
	errInvalidID          = echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
	errInvalidFilePath    = echo.NewHTTPError(http.StatusBadRequest, "Invalid file path")
)

type errorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var resp errorResponse

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				resp.Message = msg
			} else {
				resp.Message = http.StatusText(code)
			}
		case validator.ValidationErrors:
			resp.Fields = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				resp.Fields[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			resp.Message = "Invalid request"
		case *core.ValidationError:
			if origErr.Fields != nil {
				resp.Fields = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					resp.Fields[fErr.Field] = fErr.Error
				}
			}
			code = http.StatusBadRequest
			resp.Message = origErr.Error()
		case *core.NotFoundError:
			code = http.StatusNotFound
			resp.Message = origErr.Error()
		default:
			switch {
			case origErr == identity.ErrUnauthenticated:
				code = errInvalidCredentials.Code
				resp.Message = errInvalidCredentials.Message.(string)
			case origErr == artifact.ErrMalformedLocator:
				code = errInvalidFilePath.Code
				resp.Message = errInvalidFilePath.Message.(string)
			default:
				code, resp.Message = serverError(err)
				args := []interface{}{err, requestExtras(ctx)}
				if d, ok := getContextIdentity(ctx); ok {
					args = append(args, d)
				}
				logger.Error(resp.Message, args...)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			resp.Message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// serverError keeps the message of a failed submission step or storage operation; anything else is opaque.
func serverError(err error) (int, string) {
	var stepErr *workreturn.StepError
	if errors.As(err, &stepErr) {
		return http.StatusInternalServerError, stepErr.Error()
	}
	var storageErr *core.StorageError
	if errors.As(err, &storageErr) {
		return http.StatusInternalServerError, storageErr.Error()
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

func requestExtras(ctx echo.Context) map[string]interface{} {
	return map[string]interface{}{
		"method": ctx.Request().Method,
		"path":   ctx.Request().URL.Path,
	}
}
