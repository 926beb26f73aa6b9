package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingSeries  = errors.New("series missing")
	ErrEmptySeries    = errors.New("series has no points")
	ErrNonFiniteValue = errors.New("series contains a non-finite value")
)

// Pipeline stages a product can be skipped at.
const (
	StageForecast    = "forecast"
	StagePerformance = "performance"
)

// DataError is a per-product input failure. It never aborts a run.
type DataError struct {
	ProductID string
	Stage     string
	Err       error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("product %q: %s: %v", e.ProductID, e.Stage, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// Skipped converts the error into the record reported alongside a run.
func (e *DataError) Skipped() SkippedProduct {
	return SkippedProduct{ProductID: e.ProductID, Stage: e.Stage, Reason: e.Err.Error()}
}

// ConfigError is an invalid shared policy value. It fails the whole run.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// IsConfigError reports whether err wraps a *ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
