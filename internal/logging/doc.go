// Package logging builds the slog loggers used across clipsmith.
//
// Two handler formats are supported: a JSON handler for machine consumption
// and a console handler that renders "TIMESTAMP LEVEL component: message k=v"
// lines. Components obtain scoped loggers via NewComponentLogger, and
// WithContext enriches records with the source reference and request id
// carried on the context.
package logging
