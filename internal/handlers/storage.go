package handlers

import (
	"context"

	"scrapbid/db"
)

type StorageInterface interface {
	CreateListing(ctx context.Context, l *db.Listing) error
	GetListing(ctx context.Context, id int) (*db.Listing, error)
	GetListings(ctx context.Context, limit, offset int) ([]db.Listing, error)
	UpdateListing(ctx context.Context, l *db.Listing) error

	GetBidsForListing(ctx context.Context, listingID int, limit, offset int) ([]db.Bid, error)
	GetBidsByEmail(ctx context.Context, email string) ([]db.BidStatusEntry, error)

	UpsertEmailVerification(ctx context.Context, v *db.EmailVerification) error
	GetEmailVerification(ctx context.Context, email string) (*db.EmailVerification, error)
	DeleteEmailVerification(ctx context.Context, email string) error
}
