package ledger

import "errors"

var (
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrUserNotFound        = errors.New("ledger: user not found")
	ErrRoomNotFound        = errors.New("ledger: room not found")
	ErrInvalidAmount       = errors.New("ledger: invalid amount")
	ErrReadOnly            = errors.New("ledger: opened read-only")
)
