package repository

import (
	"errors"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

// Sentinel kinds for store errors.
var (
	ErrMissingFamilyID = errors.New("family id is required")
	ErrInvalidLimit    = errors.New("invalid history limit")
	// ErrPersist wraps any failure to durably write a family document.
	ErrPersist = errors.New("persist family state")
	// ErrConflict is returned when optimistic retries are exhausted.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrBaselineExists is returned by PutBaseline for a family that already has one.
	ErrBaselineExists = model.ErrBaselineExists
)
