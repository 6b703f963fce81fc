package bids

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"scrapbid/db"
)

// Фейковые хранилища с той же семантикой условных обновлений, что и Postgres

type fakeBidStore struct {
	mu     sync.Mutex
	nextID int
	bids   map[int]*db.Bid
}

func newFakeBidStore() *fakeBidStore {
	return &fakeBidStore{nextID: 1, bids: map[int]*db.Bid{}}
}

func (s *fakeBidStore) CreateBid(ctx context.Context, b *db.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextID
	s.nextID++
	b.CreatedAt = time.Now()
	cp := *b
	s.bids[b.ID] = &cp
	return nil
}

func (s *fakeBidStore) GetBid(ctx context.Context, id int) (*db.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bids[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (s *fakeBidStore) DeleteBid(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bids, id)
	return nil
}

func (s *fakeBidStore) MarkBidVerified(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bids[id]
	if !ok || b.Status != db.BidUnverified {
		return false, nil
	}
	b.Status = db.BidVerified
	b.OtpCode = nil
	return true, nil
}

func (s *fakeBidStore) RecordFailedBidAttempt(ctx context.Context, id int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bids[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	b.FailedAttempts++
	return b.FailedAttempts, nil
}

func (s *fakeBidStore) TransitionBidStatus(ctx context.Context, id int, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bids[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	return true, nil
}

type fakeListingStore struct {
	mu       sync.Mutex
	listings map[int]*db.Listing
}

func newFakeListingStore(listings ...*db.Listing) *fakeListingStore {
	s := &fakeListingStore{listings: map[int]*db.Listing{}}
	for _, l := range listings {
		cp := *l
		s.listings[l.ID] = &cp
	}
	return s
}

func (s *fakeListingStore) GetListing(ctx context.Context, id int) (*db.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (s *fakeListingStore) ConditionalUpdateListingQuantity(ctx context.Context, id, expected, newQuantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok || l.QuantityAvailable != expected {
		return false, nil
	}
	l.QuantityAvailable = newQuantity
	return true, nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
