package balance

import (
	"errors"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

// Sentinel errors for the balance aggregator.
var (
	// ErrBaselineExists is returned when a family already has a baseline.
	ErrBaselineExists  = model.ErrBaselineExists
	ErrMissingFamilyID = errors.New("family id is required")
	ErrNilRatingReader = errors.New("rating reader is required")
	ErrNilStore        = errors.New("baseline and score history stores are required")
	ErrInvalidWeights  = errors.New("invalid sub-score weights")
)
