package service

import "errors"

var (
	ErrNotFound        = errors.New("error not found")
	ErrInvalidInput    = errors.New("error invalid input")
	ErrStorageDisabled = errors.New("error cloud storage is disabled")
	ErrEmptyPortfolio  = errors.New("error portfolio is empty")
)
