// Package inspection models one room inspection while it is being recorded.
//
// Drafts are built from quick-issue templates or free-form input, carry an
// optional photo with stacked markers, and become DefectEntry values once a
// Builder assigns them an id. A Session collects entries for a single room and
// converts into the Record document that the sync layer persists. The room
// registry and template tables live here as plain data.
package inspection
