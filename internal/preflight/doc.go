// Package preflight provides readiness checks for the directories, binaries,
// and remote services scribe depends on.
//
// These checks run in two contexts:
//   - Batch and watch runs call RunAll before touching any input so a
//     misconfigured installation fails fast instead of per file.
//   - The CLI "scribe status" command uses Collect to display the same
//     checks alongside binary availability.
//
// Optional features are skipped when unconfigured: the LLM check only runs
// when an API key is present.
package preflight
