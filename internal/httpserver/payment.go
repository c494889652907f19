package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mwauth "github.com/SiddharthaDhakal2/Agri-Backend/internal/middleware/auth"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/service"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/transport"
	"github.com/SiddharthaDhakal2/Agri-Backend/pkg/logging"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

// InitiateKhalti creates the order and opens a checkout session in one
// call; the response carries the URL the client redirects to.
func (h *PaymentHTTP) InitiateKhalti(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.initiate")

	userID, ok := mwauth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Checkout(ctx, userID, req)
	if err != nil {
		l.Warn("checkout failed", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, res)
}

// VerifyKhalti resolves a checkout session and settles the order.
// Retry-safe; a paid order stays paid and stock is never committed
// twice.
func (h *PaymentHTTP) VerifyKhalti(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify")

	userID, ok := mwauth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Verify(ctx, userID, req)
	if err != nil {
		l.Warn("verify failed", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, res)
}
