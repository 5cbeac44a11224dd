package rating

import "github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"

// ErrUnsupportedOutcome is returned for outcomes that cannot move ratings.
// It is the same value as model.ErrUnsupportedOutcome so either can be
// matched with errors.Is.
var ErrUnsupportedOutcome = model.ErrUnsupportedOutcome
