package bids

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"scrapbid/db"
	"scrapbid/internal/notify"
	"scrapbid/internal/otp"
)

// Ограничение на неудачные вводы кода: после maxOtpAttempts предложение
// блокируется, и бидеру придется подать его заново.
const maxOtpAttempts = 5

// BidStore — контракт хранилища предложений
type BidStore interface {
	CreateBid(ctx context.Context, b *db.Bid) error
	GetBid(ctx context.Context, id int) (*db.Bid, error)
	DeleteBid(ctx context.Context, id int) error
	MarkBidVerified(ctx context.Context, id int) (bool, error)
	RecordFailedBidAttempt(ctx context.Context, id int) (int, error)
	TransitionBidStatus(ctx context.Context, id int, from, to string) (bool, error)
}

// ListingStore — контракт хранилища лотов. Количество меняется только
// условным обновлением: проигравший гонку перечитывает свежую величину.
type ListingStore interface {
	GetListing(ctx context.Context, id int) (*db.Listing, error)
	ConditionalUpdateListingQuantity(ctx context.Context, id, expected, newQuantity int) (bool, error)
}

// Sender — шлюз уведомлений (email)
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Service владеет жизненным циклом предложения:
// Unverified -> Verified -> Approved|Rejected.
type Service struct {
	bids     BidStore
	listings ListingStore
	mailer   Sender
	log      *zap.Logger

	// подменяются в тестах
	now     func() time.Time
	genCode func() (string, error)
}

func NewService(bids BidStore, listings ListingStore, mailer Sender, log *zap.Logger) *Service {
	return &Service{
		bids:     bids,
		listings: listings,
		mailer:   mailer,
		log:      log,
		now:      time.Now,
		genCode:  otp.Generate,
	}
}

// SubmitRequest — входные параметры подачи предложения
type SubmitRequest struct {
	ListingID         int     `json:"listingId"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	Company           string  `json:"company"`
	Price             float64 `json:"price"`
	QuantityRequested int     `json:"quantityRequested"`
}

func (r *SubmitRequest) validate() error {
	if r.Email == "" {
		return newError(KindValidation, "email is required")
	}
	if r.Phone == "" {
		return newError(KindValidation, "phone is required")
	}
	if r.Company == "" {
		return newError(KindValidation, "company is required")
	}
	if r.Price <= 0 {
		return newError(KindValidation, "price must be positive")
	}
	if r.QuantityRequested < 1 {
		return newError(KindValidation, "quantityRequested must be at least 1")
	}
	return nil
}

// Submit создает неподтвержденное предложение с кодом и отправляет код
// на email. Подача транзакционна: если письмо не ушло, запись откатывается —
// висящих предложений с недоставленным кодом не остается.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*db.Bid, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	listing, err := s.listings.GetListing(ctx, req.ListingID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, newError(KindNotFound, "listing not found")
		}
		return nil, err
	}

	now := s.now()
	if listing.Deadline != nil && !now.Before(*listing.Deadline) {
		return nil, newError(KindListingExpired, "bidding deadline has passed")
	}

	code, err := s.genCode()
	if err != nil {
		return nil, err
	}

	bid := &db.Bid{
		ListingID:         listing.ID,
		Email:             req.Email,
		Phone:             req.Phone,
		Company:           req.Company,
		Price:             req.Price,
		QuantityRequested: req.QuantityRequested,
		OtpCode:           &code,
		OtpExpiry:         otp.ExpiryFrom(now),
		Status:            db.BidUnverified,
	}
	if err := s.bids.CreateBid(ctx, bid); err != nil {
		return nil, err
	}

	// Код уходит только по внешнему каналу, в ответе его нет
	if err := s.mailer.Send(ctx, bid.Email, "Your Bid OTP Verification", notify.BidOTPBody(code)); err != nil {
		if delErr := s.bids.DeleteBid(ctx, bid.ID); delErr != nil {
			s.log.Error("failed to roll back bid after send failure",
				zap.Int("bidId", bid.ID), zap.Error(delErr))
		}
		return nil, newError(KindDependencyFailure, "failed to send verification code")
	}

	s.log.Info("bid submitted",
		zap.Int("bidId", bid.ID),
		zap.Int("listingId", listing.ID),
		zap.Int("quantity", bid.QuantityRequested))
	return bid, nil
}

// Verify сверяет код и переводит предложение в Verified.
// Просроченный код оставляет предложение Unverified — нового кода сам
// сервис не шлет, предложение подается заново.
func (s *Service) Verify(ctx context.Context, bidID int, code string) error {
	bid, err := s.bids.GetBid(ctx, bidID)
	if err != nil {
		if db.IsNotFound(err) {
			return newError(KindNotFound, "bid not found")
		}
		return err
	}
	if bid.Status != db.BidUnverified {
		return newError(KindStateConflict, "bid already verified")
	}
	if bid.FailedAttempts >= maxOtpAttempts {
		return newError(KindOtpLocked, "too many failed attempts, submit a new bid")
	}
	if s.now().After(bid.OtpExpiry) {
		return newError(KindOtpExpired, "verification code has expired, submit a new bid")
	}
	if bid.OtpCode == nil || *bid.OtpCode != code {
		attempts, recErr := s.bids.RecordFailedBidAttempt(ctx, bidID)
		if recErr != nil {
			return recErr
		}
		if attempts >= maxOtpAttempts {
			return newError(KindOtpLocked, "too many failed attempts, submit a new bid")
		}
		return newError(KindInvalidOtp, fmt.Sprintf("invalid verification code, %d attempts left", maxOtpAttempts-attempts))
	}

	ok, err := s.bids.MarkBidVerified(ctx, bidID)
	if err != nil {
		return err
	}
	if !ok {
		// второй конкурентный verify проиграл гонку
		return newError(KindStateConflict, "bid already verified")
	}

	s.log.Info("bid verified", zap.Int("bidId", bidID))
	return nil
}
