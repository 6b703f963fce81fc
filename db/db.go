package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Статусы предложения
const (
	BidUnverified = "Unverified"
	BidVerified   = "Verified"
	BidApproved   = "Approved"
	BidRejected   = "Rejected"
)

// Listing (Лот)
type Listing struct {
	ID                int            `db:"id" json:"id"`
	Name              string         `db:"name" json:"name"`
	Description       string         `db:"description" json:"description"`
	QuantityAvailable int            `db:"quantity_available" json:"quantityAvailable"`
	Deadline          *time.Time     `db:"deadline" json:"deadline,omitempty"`
	Specifications    Specifications `db:"specifications" json:"specifications"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"-"`
}

// Specification — произвольная пара ключ/значение на лоте
type Specification struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Specifications []Specification

func (s Specifications) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *Specifications) Scan(src interface{}) error {
	if src == nil {
		*s = Specifications{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("specifications: unexpected type %T", src)
	}
	return json.Unmarshal(b, s)
}

func (s *Storage) CreateListing(ctx context.Context, l *Listing) error {
	query := `
        INSERT INTO listing (name, description, quantity_available, deadline, specifications)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query,
		l.Name, l.Description, l.QuantityAvailable, l.Deadline, l.Specifications).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (s *Storage) GetListing(ctx context.Context, id int) (*Listing, error) {
	l := &Listing{}
	query := `SELECT * FROM listing WHERE id=$1`
	err := s.db.GetContext(ctx, l, query, id)
	return l, err
}

func (s *Storage) GetListings(ctx context.Context, limit, offset int) ([]Listing, error) {
	query := `
        SELECT * FROM listing
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`
	listings := []Listing{}
	err := s.db.SelectContext(ctx, &listings, query, limit, offset)
	return listings, err
}

// UpdateListing обновляет метаданные лота. quantity_available здесь же:
// каталог (рестока) — единственный, кто увеличивает количество.
func (s *Storage) UpdateListing(ctx context.Context, l *Listing) error {
	query := `
        UPDATE listing
        SET name=$1, description=$2, quantity_available=$3, deadline=$4, specifications=$5, updated_at=NOW()
        WHERE id=$6`
	_, err := s.db.ExecContext(ctx, query,
		l.Name, l.Description, l.QuantityAvailable, l.Deadline, l.Specifications, l.ID)
	return err
}

// ConditionalUpdateListingQuantity — условное обновление количества (CAS).
// Обновление проходит только если прочитанное ранее значение не изменилось;
// иначе возвращает false, и вызывающий перечитывает лот.
func (s *Storage) ConditionalUpdateListingQuantity(ctx context.Context, id, expected, newQuantity int) (bool, error) {
	query := `
        UPDATE listing
        SET quantity_available=$1, updated_at=NOW()
        WHERE id=$2 AND quantity_available=$3`
	res, err := s.db.ExecContext(ctx, query, newQuantity, id, expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Bid (Предложение)
type Bid struct {
	ID                int       `db:"id" json:"id"`
	ListingID         int       `db:"listing_id" json:"listingId"`
	Email             string    `db:"email" json:"email"`
	Phone             string    `db:"phone" json:"phone"`
	Company           string    `db:"company" json:"company"`
	Price             float64   `db:"price" json:"price"`
	QuantityRequested int       `db:"quantity_requested" json:"quantityRequested"`
	OtpCode           *string   `db:"otp_code" json:"-"`
	OtpExpiry         time.Time `db:"otp_expiry" json:"-"`
	FailedAttempts    int       `db:"failed_attempts" json:"-"`
	Status            string    `db:"status" json:"status"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"-"`
}

func (s *Storage) CreateBid(ctx context.Context, b *Bid) error {
	query := `
        INSERT INTO bid
            (listing_id, email, phone, company, price, quantity_requested, otp_code, otp_expiry, status)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query,
		b.ListingID, b.Email, b.Phone, b.Company, b.Price, b.QuantityRequested,
		b.OtpCode, b.OtpExpiry, b.Status).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (s *Storage) GetBid(ctx context.Context, id int) (*Bid, error) {
	b := &Bid{}
	query := `SELECT * FROM bid WHERE id=$1`
	err := s.db.GetContext(ctx, b, query, id)
	return b, err
}

func (s *Storage) DeleteBid(ctx context.Context, id int) error {
	query := `DELETE FROM bid WHERE id=$1`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

// MarkBidVerified переводит Unverified->Verified и стирает код.
// Возвращает false, если предложение уже не Unverified (гонка двух verify).
func (s *Storage) MarkBidVerified(ctx context.Context, id int) (bool, error) {
	query := `
        UPDATE bid
        SET status=$1, otp_code=NULL, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	res, err := s.db.ExecContext(ctx, query, BidVerified, id, BidUnverified)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RecordFailedBidAttempt увеличивает счетчик неудачных вводов кода
// и возвращает новое значение.
func (s *Storage) RecordFailedBidAttempt(ctx context.Context, id int) (int, error) {
	var attempts int
	query := `
        UPDATE bid
        SET failed_attempts = failed_attempts + 1, updated_at=NOW()
        WHERE id=$1
        RETURNING failed_attempts`
	err := s.db.QueryRowContext(ctx, query, id).Scan(&attempts)
	return attempts, err
}

// TransitionBidStatus меняет статус только из ожидаемого состояния.
// Возвращает false при несовпадении (предложение уже переведено конкурентно).
func (s *Storage) TransitionBidStatus(ctx context.Context, id int, from, to string) (bool, error) {
	query := `
        UPDATE bid
        SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	res, err := s.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Storage) GetBidsForListing(ctx context.Context, listingID int, limit, offset int) ([]Bid, error) {
	query := `
        SELECT * FROM bid
        WHERE listing_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	bids := []Bid{}
	err := s.db.SelectContext(ctx, &bids, query, listingID, limit, offset)
	return bids, err
}

// BidStatusEntry — строка ответа для проверки статуса по email
type BidStatusEntry struct {
	ListingName       string  `db:"listing_name" json:"listingName"`
	Price             float64 `db:"price" json:"price"`
	QuantityRequested int     `db:"quantity_requested" json:"quantityRequested"`
	Status            string  `db:"status" json:"status"`
}

func (s *Storage) GetBidsByEmail(ctx context.Context, email string) ([]BidStatusEntry, error) {
	query := `
        SELECT l.name AS listing_name, b.price, b.quantity_requested, b.status
        FROM bid b
        JOIN listing l ON b.listing_id = l.id
        WHERE b.email = $1
        ORDER BY b.created_at DESC`
	entries := []BidStatusEntry{}
	err := s.db.SelectContext(ctx, &entries, query, email)
	return entries, err
}

// EmailVerification (Подтверждение e-mail, отдельный простой поток)
type EmailVerification struct {
	Email     string    `db:"email" json:"email"`
	OtpCode   string    `db:"otp_code" json:"-"`
	OtpExpiry time.Time `db:"otp_expiry" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func (s *Storage) UpsertEmailVerification(ctx context.Context, v *EmailVerification) error {
	query := `
        INSERT INTO email_verification (email, otp_code, otp_expiry)
        VALUES ($1, $2, $3)
        ON CONFLICT (email) DO UPDATE SET otp_code = EXCLUDED.otp_code, otp_expiry = EXCLUDED.otp_expiry, created_at = NOW()
        RETURNING created_at`
	return s.db.QueryRowContext(ctx, query, v.Email, v.OtpCode, v.OtpExpiry).Scan(&v.CreatedAt)
}

func (s *Storage) GetEmailVerification(ctx context.Context, email string) (*EmailVerification, error) {
	v := &EmailVerification{}
	query := `SELECT * FROM email_verification WHERE email=$1`
	err := s.db.GetContext(ctx, v, query, email)
	return v, err
}

func (s *Storage) DeleteEmailVerification(ctx context.Context, email string) error {
	query := `DELETE FROM email_verification WHERE email=$1`
	_, err := s.db.ExecContext(ctx, query, email)
	return err
}

// IsNotFound — true, если запись не найдена
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
