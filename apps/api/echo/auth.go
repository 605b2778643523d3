package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/douaaea/schoolhub/core/identity"
	"github.com/douaaea/schoolhub/services/metrics"
)

const contextIdentityKey = "identity"

// LoginRequest is matched exactly as sent: a missing or empty field simply finds no identity.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authApi struct {
	resolver *identity.Resolver
	metrics  *metrics.Recorder
}

func registerAuthAPI(app *echo.Echo, resolver *identity.Resolver, rec *metrics.Recorder) {
	api := authApi{resolver: resolver, metrics: rec}
	app.POST("/login", api.login)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	desc, err := api.resolver.Resolve(ctx.Request().Context(), data.Email, data.Password)
	if api.metrics != nil {
		api.metrics.Login(desc.Role)
	}
	if err != nil {
		if errors.Cause(err) == identity.ErrUnauthenticated {
			return err
		}
		return errors.Wrap(err, "resolving identity")
	}
	setContextIdentity(ctx, desc)
	return ctx.JSON(http.StatusOK, desc)
}

// setContextIdentity records who the request acts for, so server errors can be reported against them.
func setContextIdentity(ctx echo.Context, d identity.Descriptor) {
	ctx.Set(contextIdentityKey, d)
}

func getContextIdentity(ctx echo.Context) (identity.Descriptor, bool) {
	d, ok := ctx.Get(contextIdentityKey).(identity.Descriptor)
	return d, ok
}
