package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SiddharthaDhakal2/Agri-Backend/internal/khalti"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/repo"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/service"
)

// httpError translates service-layer errors into transport codes. The
// services themselves never format responses.
func httpError(err error) *echo.HTTPError {
	var gw *khalti.GatewayError
	switch {
	case errors.Is(err, repo.ErrProductNotFound),
		errors.Is(err, repo.ErrOrderNotFound),
		errors.Is(err, repo.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, repo.ErrInsufficientStock),
		errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, khalti.ErrNotConfigured):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	case errors.As(err, &gw):
		code := http.StatusBadGateway
		if gw.StatusCode >= 400 && gw.StatusCode < 600 {
			code = gw.StatusCode
		}
		return echo.NewHTTPError(code, gw.Detail)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
