package bids

import (
	"context"

	"go.uber.org/zap"

	"scrapbid/db"
	"scrapbid/internal/notify"
)

// Повторы условного обновления количества при проигрыше гонки.
// Каждый повтор перечитывает лот, так что проверка достаточности
// всегда идет против свежего значения.
const approveRetries = 5

// ApprovalResult — итог одобрения: лот с новым количеством и предложение
type ApprovalResult struct {
	Listing *db.Listing `json:"listing"`
	Bid     *db.Bid     `json:"bid"`
}

// Approve сверяет доступное количество с запрошенным и атомарно списывает.
// Два конкурентных одобрения по одному лоту не могут совместно списать
// больше, чем доступно: проигравший CAS перечитывает уменьшенное значение
// и, если его уже не хватает, получает InsufficientQuantity.
func (s *Service) Approve(ctx context.Context, bidID int) (*ApprovalResult, error) {
	bid, err := s.bids.GetBid(ctx, bidID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, newError(KindNotFound, "bid not found")
		}
		return nil, err
	}
	if bid.Status != db.BidVerified {
		return nil, newError(KindStateConflict, "only verified bids can be approved")
	}

	var listing *db.Listing
	deducted := false
	for attempt := 0; attempt < approveRetries; attempt++ {
		listing, err = s.listings.GetListing(ctx, bid.ListingID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, newError(KindNotFound, "listing not found")
			}
			return nil, err
		}
		if listing.QuantityAvailable < bid.QuantityRequested {
			// предложение остается Verified: администратор может вернуться
			// к нему после рестока или отклонить явно
			return nil, newError(KindInsufficientQuantity, "not enough quantity available")
		}
		ok, err := s.listings.ConditionalUpdateListingQuantity(ctx,
			listing.ID, listing.QuantityAvailable, listing.QuantityAvailable-bid.QuantityRequested)
		if err != nil {
			return nil, err
		}
		if ok {
			listing.QuantityAvailable -= bid.QuantityRequested
			deducted = true
			break
		}
	}
	if !deducted {
		return nil, newError(KindStateConflict, "listing is changing concurrently, retry")
	}

	ok, err := s.bids.TransitionBidStatus(ctx, bid.ID, db.BidVerified, db.BidApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		// предложение одобрили или отклонили конкурентно — возвращаем списанное
		s.restoreQuantity(ctx, listing.ID, bid.QuantityRequested)
		return nil, newError(KindStateConflict, "bid is no longer verified")
	}
	bid.Status = db.BidApproved
	bid.OtpCode = nil

	// уведомление бидеру — best-effort, не часть атомарной операции
	if err := s.mailer.Send(ctx, bid.Email, "Your bid has been approved",
		notify.ApprovalBody(listing.Name, bid.QuantityRequested)); err != nil {
		s.log.Warn("approval notice not delivered", zap.Int("bidId", bid.ID), zap.Error(err))
	}

	s.log.Info("bid approved",
		zap.Int("bidId", bid.ID),
		zap.Int("listingId", listing.ID),
		zap.Int("quantityLeft", listing.QuantityAvailable))
	return &ApprovalResult{Listing: listing, Bid: bid}, nil
}

// restoreQuantity возвращает списанное количество после проигранной гонки
// за статус предложения.
func (s *Service) restoreQuantity(ctx context.Context, listingID, quantity int) {
	for attempt := 0; attempt < approveRetries; attempt++ {
		listing, err := s.listings.GetListing(ctx, listingID)
		if err != nil {
			break
		}
		ok, err := s.listings.ConditionalUpdateListingQuantity(ctx,
			listingID, listing.QuantityAvailable, listing.QuantityAvailable+quantity)
		if err != nil {
			break
		}
		if ok {
			return
		}
	}
	s.log.Error("failed to restore listing quantity",
		zap.Int("listingId", listingID), zap.Int("quantity", quantity))
}

// Reject переводит Verified -> Rejected, количество не трогает.
// Повторное отклонение уже отклоненного — no-op успех; одобренное
// предложение отклонить нельзя, одобрение в этой модели необратимо.
func (s *Service) Reject(ctx context.Context, bidID int) error {
	bid, err := s.bids.GetBid(ctx, bidID)
	if err != nil {
		if db.IsNotFound(err) {
			return newError(KindNotFound, "bid not found")
		}
		return err
	}
	switch bid.Status {
	case db.BidRejected:
		return nil
	case db.BidVerified:
	default:
		return newError(KindStateConflict, "only verified bids can be rejected")
	}

	ok, err := s.bids.TransitionBidStatus(ctx, bid.ID, db.BidVerified, db.BidRejected)
	if err != nil {
		return err
	}
	if !ok {
		// статус сменился конкурентно; если это был второй reject — все уже сделано
		fresh, err := s.bids.GetBid(ctx, bid.ID)
		if err == nil && fresh.Status == db.BidRejected {
			return nil
		}
		return newError(KindStateConflict, "only verified bids can be rejected")
	}

	s.log.Info("bid rejected", zap.Int("bidId", bid.ID))
	return nil
}
