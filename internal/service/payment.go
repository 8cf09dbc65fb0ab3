package service

import (
	"dreambot/internal/backend"
	"dreambot/internal/domain"
	"dreambot/internal/repository"

	"go.uber.org/zap"
)

const (
	subscriptionPrice       = 100
	subscriptionDescription = "Подписка"
)

// PaymentService drives the mock subscription purchase: create a
// payment, confirm it, then verify the subscription actually activated.
type PaymentService struct {
	sessions repository.SessionRepository
	backend  backend.Client
	auth     *AuthService
	logger   *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	sessions repository.SessionRepository,
	client backend.Client,
	auth *AuthService,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		sessions: sessions,
		backend:  client,
		auth:     auth,
		logger:   logger,
	}
}

// BuySubscription handles the subscribe button press end to end. Every
// failure maps to its own friendly message; none of them crash the flow.
func (s *PaymentService) BuySubscription(userID int64) ([]domain.Reply, error) {
	session, err := s.sessions.Load(userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return []domain.Reply{domain.TextReply(msgNeedStart)}, nil
	}

	token, err := s.auth.EnsureToken(userID, session)
	if err != nil {
		return []domain.Reply{domain.TextReply("Не удалось авторизоваться на сервисе. Попробуй позже.")}, nil
	}

	paymentID, err := s.backend.CreatePayment(token, subscriptionPrice, subscriptionDescription)
	if err != nil {
		s.logger.Error("Payment create failed", zap.Int64("user_id", userID), zap.Error(err))
		return []domain.Reply{domain.TextReply("Ошибка при создании платежа 😢 Попробуй чуть позже.")}, nil
	}
	if paymentID == "" {
		return []domain.Reply{domain.TextReply("Не удалось получить ID платежа. Попробуй позже.")}, nil
	}

	if err := s.backend.ConfirmMockPayment(token, paymentID); err != nil {
		s.logger.Error("Payment confirmation failed",
			zap.Int64("user_id", userID),
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		return []domain.Reply{domain.TextReply("Оплата не была подтверждена на сервере. Попробуй ещё раз чуть позже.")}, nil
	}

	status, err := s.backend.GetSubscriptionStatus(token)
	if err != nil {
		s.logger.Warn("Subscription status check failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	if status != nil && status.HasActiveSubscription {
		return []domain.Reply{domain.TextReply("🎉 Подписка успешно активирована! Теперь лимитов нет.")}, nil
	}

	return []domain.Reply{domain.TextReply(
		"Платёж создан, но сервер пока не подтвердил подписку.\n" +
			"Попробуй отправить сон — если лимит всё ещё действует, напиши админам.",
	)}, nil
}
