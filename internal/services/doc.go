// Package services defines shared utilities consumed by the analysis pipeline
// and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp source clip references and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag failures with a
//     stable classification (not found, invalid argument, external tool,
//     degraded input, state conflict).
//
// Use these helpers when wiring new components so operational behaviour stays
// uniform across the engine.
package services
