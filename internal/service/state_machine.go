package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kiosk-pos/internal/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const invalidateAttempts = 3

// UpdateOrder applies the non-nil fields of req under a row lock. Moves are
// checked against the transition tables when enforcement is on. Cancelling
// does not return reserved stock.
func (s *orderService) UpdateOrder(ctx context.Context, id uuid.UUID, req model.UpdateOrderRequest) (*model.Order, error) {
	if err := validateUpdateRequest(req); err != nil {
		s.metrics.OrderUpdated("invalid")
		return nil, err
	}

	state, err := s.updateInTx(ctx, id, req)
	if err != nil {
		s.metrics.OrderUpdated(updateResult(err))
		return nil, err
	}
	s.metrics.OrderUpdated("ok")

	s.invalidateCached(ctx, state)

	event := s.logger.Info().
		Str("order_id", id.String()).
		Str("pickup_code", state.PickupCode)
	if req.Status != nil {
		event = event.Str("status_from", string(state.Status)).Str("status_to", string(*req.Status))
	}
	if req.PaymentStatus != nil {
		event = event.Str("payment_from", string(state.PaymentStatus)).Str("payment_to", string(*req.PaymentStatus))
	}
	event.Msg("order updated")

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", id.String()).Msg("failed to reload order after update")
		return appliedOrder(state, req), nil
	}
	return order, nil
}

// invalidateCached tombstones the pickup code at the pre-update version so
// that reads which started before the commit cannot repopulate it.
func (s *orderService) invalidateCached(ctx context.Context, state *model.OrderState) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	policy := backoff.WithContext(backoff.WithMaxRetries(b, invalidateAttempts-1), ctx)

	err := backoff.Retry(func() error {
		return s.cache.Invalidate(ctx, state.PickupCode, state.UpdatedAt)
	}, policy)
	if err != nil {
		s.logger.Warn().Err(err).Str("pickup_code", state.PickupCode).Msg("failed to invalidate cached order")
	}
}

// appliedOrder is the locked header with patch applied. Items are not loaded.
func appliedOrder(state *model.OrderState, req model.UpdateOrderRequest) *model.Order {
	order := &model.Order{
		ID:            state.ID,
		PickupCode:    state.PickupCode,
		Status:        state.Status,
		PaymentMethod: state.PaymentMethod,
		PaymentStatus: state.PaymentStatus,
		UpdatedAt:     time.Now().UTC(),
		Items:         []model.OrderItem{},
	}
	if req.Status != nil {
		order.Status = *req.Status
	}
	if req.PaymentMethod != nil {
		order.PaymentMethod = req.PaymentMethod
	}
	if req.PaymentStatus != nil {
		order.PaymentStatus = *req.PaymentStatus
	}
	return order
}

// UpdateStatus moves an order to a new fulfillment status.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	return s.UpdateOrder(ctx, id, model.UpdateOrderRequest{Status: &status})
}

// UpdatePayment sets the payment status and, when given, the method.
func (s *orderService) UpdatePayment(ctx context.Context, id uuid.UUID, status model.PaymentStatus, method *model.PaymentMethod) (*model.Order, error) {
	return s.UpdateOrder(ctx, id, model.UpdateOrderRequest{PaymentStatus: &status, PaymentMethod: method})
}

func (s *orderService) updateInTx(ctx context.Context, id uuid.UUID, req model.UpdateOrderRequest) (*model.OrderState, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	state, err := s.orderRepo.LockState(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if s.cfg.EnforceTransitions {
		if err := checkTransitions(state, req); err != nil {
			s.logger.Warn().
				Err(err).
				Str("order_id", id.String()).
				Msg("order update rejected")
			return nil, err
		}
	}

	if err := s.orderRepo.UpdateState(ctx, tx, id, req); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	committed = true

	return state, nil
}

func validateUpdateRequest(req model.UpdateOrderRequest) error {
	if req.Empty() {
		return model.ErrNoFieldsToUpdate
	}
	if req.Status != nil && !req.Status.Valid() {
		return model.ErrInvalidStatus.WithMessage(fmt.Sprintf("unknown order status %q", *req.Status))
	}
	if req.PaymentMethod != nil && !req.PaymentMethod.Valid() {
		return model.ErrInvalidPaymentMethod.WithMessage(fmt.Sprintf("unknown payment method %q", *req.PaymentMethod))
	}
	if req.PaymentStatus != nil && !req.PaymentStatus.Valid() {
		return model.ErrInvalidPaymentStatus.WithMessage(fmt.Sprintf("unknown payment status %q", *req.PaymentStatus))
	}
	return nil
}

func checkTransitions(state *model.OrderState, req model.UpdateOrderRequest) error {
	if req.Status != nil && !model.CanTransitionStatus(state.Status, *req.Status) {
		return model.ErrInvalidTransition.WithMessage(
			fmt.Sprintf("cannot move order from %s to %s", state.Status, *req.Status),
		)
	}
	if req.PaymentStatus != nil && !model.CanTransitionPayment(state.PaymentStatus, *req.PaymentStatus) {
		return model.ErrInvalidTransition.WithMessage(
			fmt.Sprintf("cannot move payment from %s to %s", state.PaymentStatus, *req.PaymentStatus),
		)
	}
	return nil
}

func updateResult(err error) string {
	switch model.KindOf(err) {
	case model.KindNotFound:
		return "not_found"
	case model.KindInvalidTransition:
		return "invalid_transition"
	case model.KindValidation:
		return "invalid"
	default:
		return "error"
	}
}
