package app

import "errors"

var (
	// ErrNotFound indicates the submission ID matched nothing, usually a
	// stale or already-processed review callback.
	ErrNotFound = errors.New("submission not found")
	// ErrAlreadyApproved indicates a reject attempt against an approved
	// submission. Approved records are never removed by rejection.
	ErrAlreadyApproved = errors.New("submission already approved")
	// ErrRateLimited indicates the submitter hit the daily submission cap.
	ErrRateLimited = errors.New("daily submission limit reached")
	// ErrEmptyField indicates a blank title or author after trimming.
	ErrEmptyField = errors.New("title and author are required")
)
