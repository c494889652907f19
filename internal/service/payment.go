package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/SiddharthaDhakal2/Agri-Backend/internal/khalti"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/models"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/mykafka"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/repo"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/transport"
	"github.com/SiddharthaDhakal2/Agri-Backend/pkg/logging"
)

// Gateway is what PaymentService needs from the payment provider.
// khalti.Client satisfies it; tests swap in a stub.
type Gateway interface {
	Initiate(ctx context.Context, order *models.Order) (*khalti.InitiateResponse, error)
	Lookup(ctx context.Context, pidx string) (*khalti.LookupResponse, error)
}

// PaymentService orchestrates checkout and verification between the
// order store and the payment gateway. It owns no gateway protocol
// knowledge and no storage details.
type PaymentService struct {
	Orders   *OrderService
	Gateway  Gateway
	Producer *mykafka.Producer
}

// Checkout creates an unpaid order, opens a gateway session for it and
// records the session id. If the gateway call fails the order is left
// unpaid with no session id; the caller may retry checkout.
func (s *PaymentService) Checkout(ctx context.Context, userID uint, req transport.CreateOrderRequest) (*transport.CheckoutResponse, error) {
	l := logging.FromContext(ctx).With("svc", "payment.checkout")

	order, err := s.Orders.CreateOrder(ctx, userID, req, &CreateOrderOptions{
		PaymentMethod: models.PaymentMethodKhalti,
		PaymentStatus: models.PaymentStatusUnpaid,
	})
	if err != nil {
		return nil, err
	}

	session, err := s.Gateway.Initiate(ctx, order)
	if err != nil {
		l.Warn("initiate failed", "order_id", order.ID, "error", err)
		return nil, err
	}

	if _, err := s.Orders.UpdatePaymentInfo(ctx, order.ID, repo.PaymentPatch{
		Method: models.PaymentMethodKhalti,
		Pidx:   session.Pidx,
	}); err != nil {
		return nil, err
	}

	l.Info("payment initiated", "order_id", order.ID, "pidx", session.Pidx)
	return &transport.CheckoutResponse{
		OrderID:    order.ID,
		Pidx:       session.Pidx,
		PaymentURL: session.PaymentURL,
	}, nil
}

// Verify resolves the settlement status of a checkout session and maps
// it onto the order. Only the gateway status "Completed" counts as
// paid; anything else, including "Pending", marks the payment failed.
// Safe to retry: a second verification of a paid order changes
// nothing.
func (s *PaymentService) Verify(ctx context.Context, userID uint, req transport.VerifyPaymentRequest) (*transport.VerifyPaymentResponse, error) {
	l := logging.FromContext(ctx).With("svc", "payment.verify", "pidx", req.Pidx)

	if req.Pidx == "" {
		return nil, fmt.Errorf("%w: pidx required", ErrValidation)
	}

	lookup, err := s.Gateway.Lookup(ctx, req.Pidx)
	if err != nil {
		l.Warn("lookup failed", "error", err)
		return nil, err
	}

	orderID := req.OrderID
	if orderID == 0 && lookup.PurchaseOrderID != "" {
		parsed, perr := strconv.ParseUint(lookup.PurchaseOrderID, 10, 64)
		if perr == nil {
			orderID = uint(parsed)
		}
	}
	if orderID == 0 {
		return nil, fmt.Errorf("%w: no order for session %s", repo.ErrOrderNotFound, req.Pidx)
	}

	order, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order %d", ErrForbidden, orderID)
	}

	paid := lookup.Status == khalti.StatusCompleted

	patch := repo.PaymentPatch{
		Method: models.PaymentMethodKhalti,
		Status: models.PaymentStatusFailed,
	}
	if paid {
		now := time.Now().UTC()
		patch.Status = models.PaymentStatusPaid
		patch.Reference = lookup.TransactionID
		patch.PaidAt = &now
		patch.OrderStatus = models.OrderStatusProcessing
	}

	if _, err := s.Orders.UpdatePaymentInfo(ctx, orderID, patch); err != nil {
		return nil, err
	}

	if err := s.Producer.PublishEvent(ctx, mykafka.TopicOrderEvents, strconv.FormatUint(uint64(orderID), 10), map[string]any{
		"type":     "payment_verified",
		"orderID":  orderID,
		"paid":     paid,
		"status":   lookup.Status,
		"userID":   userID,
		"pidx":     req.Pidx,
		"verified": time.Now().UTC(),
	}); err != nil {
		l.Error("publish payment event", "error", err)
	}

	l.Info("payment verified", "order_id", orderID, "paid", paid, "remote_status", lookup.Status)
	return &transport.VerifyPaymentResponse{
		OrderID: orderID,
		Paid:    paid,
		Status:  lookup.Status,
	}, nil
}
