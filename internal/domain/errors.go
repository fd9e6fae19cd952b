package domain

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrEmptyLibrary = errors.New("no user games saved")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStaleWrite 仓储层 CAS 失败，由服务层重试
	ErrStaleWrite = errors.New("stale write")
)

// StoreError 底层存储调用失败
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
