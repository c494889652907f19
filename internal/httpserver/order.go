package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	mwauth "github.com/SiddharthaDhakal2/Agri-Backend/internal/middleware/auth"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/models"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/mykafka"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/service"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/transport"
	"github.com/SiddharthaDhakal2/Agri-Backend/pkg/logging"
)

type OrderHTTP struct {
	Svc      *service.OrderService
	Producer *mykafka.Producer
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	userID, ok := mwauth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.CreateOrder(ctx, userID, req, nil)
	if err != nil {
		l.Warn("create order failed", "error", err)
		return httpError(err)
	}

	if err := h.Producer.PublishEvent(ctx, mykafka.TopicOrderEvents, fmt.Sprint(order.ID), map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  userID,
		"total":   order.Total,
	}); err != nil {
		l.Error("kafka publish", "error", err)
	}

	l.Info("order created", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	userID, ok := mwauth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	order, err := h.Svc.GetOrder(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if order.UserID != userID && mwauth.Role(c) != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) GetMyOrders(c echo.Context) error {
	userID, ok := mwauth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := h.Svc.ListOrdersByUser(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetAllOrders(c echo.Context) error {
	orders, err := h.Svc.ListOrders(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrdersByStatus(c echo.Context) error {
	orders, err := h.Svc.ListOrdersByStatus(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) UpdateOrderStatus(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteOrder(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
