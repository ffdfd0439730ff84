package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moonssword/dating-bot/internal/config"
	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
	"github.com/moonssword/dating-bot/internal/infra/payment"
	pgrepo "github.com/moonssword/dating-bot/internal/repo/postgres"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUnknownPlan  = errors.New("unknown subscription plan")
	ErrPollExpired  = errors.New("payment poll exhausted")
	ErrOrderUnknown = errors.New("order not found")
)

type OrderStore interface {
	CreateOrder(ctx context.Context, o model.Order) (model.Order, error)
	FindOrder(ctx context.Context, orderID string) (model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status enums.PaymentStatus) (model.Order, bool, error)
}

type Provider interface {
	CreateInvoice(ctx context.Context, orderID string, amount float64, currency, description string) (payment.Invoice, error)
	QueryStatus(ctx context.Context, orderID string) (payment.OrderStatus, error)
}

type Activator interface {
	PlanByCode(code string) (config.PlanConfig, bool)
	ActivatePlan(ctx context.Context, accountID int64, planCode string) error
}

type Config struct {
	Currency        string
	PollInterval    time.Duration
	PollMaxAttempts int
}

type Service struct {
	orders     OrderStore
	provider   Provider
	activator  Activator
	cfg        Config
	logger     *zap.Logger
	newOrderID func() string
	sleep      func(context.Context, time.Duration) error
}

type InvoiceResult struct {
	OrderID    string
	PaymentURL string
	Amount     int64
	Currency   string
}

func NewService(orders OrderStore, provider Provider, activator Activator, cfg Config, logger *zap.Logger) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "RUB"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Second
	}
	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = 40
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		orders:     orders,
		provider:   provider,
		activator:  activator,
		cfg:        cfg,
		logger:     logger,
		newOrderID: uuid.NewString,
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}
}

// CreateInvoice registers a pending order and returns the payment URL.
func (s *Service) CreateInvoice(ctx context.Context, accountID int64, planCode string) (InvoiceResult, error) {
	if accountID <= 0 {
		return InvoiceResult{}, ErrValidation
	}

	plan, ok := s.activator.PlanByCode(planCode)
	if !ok {
		return InvoiceResult{}, ErrUnknownPlan
	}
	tier, ok := enums.ParseSubscriptionTier(plan.Tier)
	if !ok {
		return InvoiceResult{}, ErrUnknownPlan
	}

	orderID := s.newOrderID()
	invoice, err := s.provider.CreateInvoice(ctx, orderID, float64(plan.Amount), s.cfg.Currency, "Subscription "+plan.Code)
	if err != nil {
		return InvoiceResult{}, fmt.Errorf("create provider invoice: %w", err)
	}

	if _, err := s.orders.CreateOrder(ctx, model.Order{
		AccountID: accountID,
		OrderID:   orderID,
		Tier:      tier,
		PlanCode:  plan.Code,
		Status:    enums.PaymentStatusInProcess,
		Amount:    plan.Amount,
		Currency:  s.cfg.Currency,
	}); err != nil {
		return InvoiceResult{}, fmt.Errorf("store order: %w", err)
	}

	return InvoiceResult{
		OrderID:    orderID,
		PaymentURL: invoice.PaymentURL,
		Amount:     plan.Amount,
		Currency:   s.cfg.Currency,
	}, nil
}

// ApplyStatus advances the order idempotently. A success transition
// activates the order's plan; replays of a terminal status are no-ops.
func (s *Service) ApplyStatus(ctx context.Context, orderID string, status enums.PaymentStatus) (model.Order, bool, error) {
	if orderID == "" {
		return model.Order{}, false, ErrValidation
	}

	order, changed, err := s.orders.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		if errors.Is(err, pgrepo.ErrOrderNotFound) {
			return model.Order{}, false, ErrOrderUnknown
		}
		return model.Order{}, false, fmt.Errorf("update order status: %w", err)
	}
	if !changed || order.Status != enums.PaymentStatusSuccess {
		return order, changed, nil
	}

	if err := s.activator.ActivatePlan(ctx, order.AccountID, order.PlanCode); err != nil {
		return model.Order{}, false, fmt.Errorf("activate paid plan: %w", err)
	}

	s.logger.Info("subscription activated",
		zap.Int64("account_id", order.AccountID),
		zap.String("order_id", order.OrderID),
		zap.String("plan", order.PlanCode),
	)
	return order, true, nil
}

// Poll watches one order until the provider reports a terminal status
// or attempts run out. It blocks only its own goroutine; the caller
// starts it per order.
func (s *Service) Poll(ctx context.Context, orderID string) (enums.PaymentStatus, error) {
	if orderID == "" {
		return "", ErrValidation
	}

	for attempt := 0; attempt < s.cfg.PollMaxAttempts; attempt++ {
		if attempt > 0 {
			if err := s.sleep(ctx, s.cfg.PollInterval); err != nil {
				return "", err
			}
		}

		// The webhook may settle the order between attempts; no point
		// asking the provider again once it has.
		order, err := s.orders.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrOrderNotFound) {
				return "", ErrOrderUnknown
			}
			return "", fmt.Errorf("load order: %w", err)
		}
		if order.Status.Terminal() {
			return order.Status, nil
		}

		providerStatus, err := s.provider.QueryStatus(ctx, orderID)
		if err != nil {
			s.logger.Warn("payment status query failed",
				zap.String("order_id", orderID),
				zap.Error(err),
			)
			continue
		}

		status := StatusFromProvider(providerStatus.Status)
		if !status.Terminal() {
			continue
		}

		if _, _, err := s.ApplyStatus(ctx, orderID, status); err != nil {
			return "", err
		}
		return status, nil
	}

	// Attempts exhausted: mark the order expired so a late provider
	// success cannot silently activate a stale invoice.
	if _, _, err := s.ApplyStatus(ctx, orderID, enums.PaymentStatusExpired); err != nil {
		return "", err
	}
	return enums.PaymentStatusExpired, ErrPollExpired
}

// StatusFromProvider maps the aggregator's status strings onto the
// order lifecycle. Webhook handlers share it with the poller.
func StatusFromProvider(raw string) enums.PaymentStatus {
	switch raw {
	case "success":
		return enums.PaymentStatusSuccess
	case "expired", "canceled", "fail":
		return enums.PaymentStatusExpired
	case "hold":
		return enums.PaymentStatusHold
	default:
		return enums.PaymentStatusInProcess
	}
}
