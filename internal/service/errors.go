package service

import "errors"

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

const (
	MsgNameAndPriceRequired = "name and price required"
	MsgItemNotFound         = "item not found"
	MsgItemIDRequired       = "itemId required"
	MsgLineNotFound         = "cart item not found"
	MsgQueryRequired        = "q required"
)

// Error carries a client-facing message and unwraps to ErrValidation or
// ErrNotFound.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func Validation(msg string) error {
	return &Error{kind: ErrValidation, msg: msg}
}

func NotFound(msg string) error {
	return &Error{kind: ErrNotFound, msg: msg}
}
