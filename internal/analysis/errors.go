package analysis

import (
	"errors"
	"fmt"
)

// ErrEmptyAfterFilter is returned when filtering leaves no rows to analyze.
var ErrEmptyAfterFilter = errors.New("no valid data")

// ErrNoScoringData is returned by ScoreCompanies when no row passes the validity check.
// It matches ErrEmptyAfterFilter as well.
var ErrNoScoringData = fmt.Errorf("%w: no valid scoring data", ErrEmptyAfterFilter)

// ErrUnknownMethod indicates an unsupported outlier detection method.
var ErrUnknownMethod = errors.New("unknown outlier method")
