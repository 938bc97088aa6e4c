// Package preflight provides readiness checks for the filesystem paths,
// the record store and the optional refinement oracle.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failure before it
//     begins serving.
//   - The CLI "roomcheck doctor" command prints the same results as a table.
//
// The LLM check only runs when an API key is configured.
package preflight
