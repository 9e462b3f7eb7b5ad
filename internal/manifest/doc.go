// Package manifest persists per-clip edit records and serializes all writes
// to them. Each source clip has one manifest holding its rendered variations,
// the selected edit, the latest analysis, and a forward-only review status.
package manifest
