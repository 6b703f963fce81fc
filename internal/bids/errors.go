package bids

import "errors"

// Kind — стабильный машиночитаемый вид ошибки для клиента
type Kind string

const (
	KindValidation           Kind = "ValidationError"
	KindNotFound             Kind = "NotFound"
	KindStateConflict        Kind = "StateConflict"
	KindOtpExpired           Kind = "OtpExpired"
	KindInvalidOtp           Kind = "InvalidOtp"
	KindOtpLocked            Kind = "OtpLocked"
	KindInsufficientQuantity Kind = "InsufficientQuantity"
	KindListingExpired       Kind = "ListingExpired"
	KindDependencyFailure    Kind = "DependencyFailure"
)

// Error несет вид и человекочитаемое сообщение
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Msg
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// KindOf возвращает вид ошибки либо DependencyFailure для всего остального
// (ошибки стораджа, SMTP и т.п.).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDependencyFailure
}
