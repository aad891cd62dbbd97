// Package services defines the shared error taxonomy and context annotation
// helpers used across the pipeline.
//
// Sentinel errors classify failures into the categories the pipeline cares
// about: configuration problems and missing paths abort a run, transport and
// business failures from the drive stay isolated to the item that triggered
// them. Wrap attaches stage and operation context while preserving the
// sentinel for errors.Is checks.
package services
