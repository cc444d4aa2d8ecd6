// Package worker implements the per-target build pipeline.
//
// One worker is created per target matrix entry. It invokes the
// compiler collaborator for the target's triple, packages the resulting
// binary under the canonical artifact name, and uploads it to the
// artifact store keyed by revision and platform. Workers for distinct
// targets run fully in parallel with no shared mutable state.
//
// Every failure is a [BuildError] carrying the platform identifier and
// the pipeline stage, so an aborted run can always name the platforms
// that failed.
package worker
