// Package logging builds the slog loggers used across curator.
//
// Two handlers are available: a console handler that renders component and
// item subject as a line prefix, and a JSON handler for machine consumption.
// Both drop credential values before they reach a sink. WithContext copies
// the item id, stage, content reference and correlation id stamped by the
// services package onto a logger.
package logging
