// Package page coordinates a master-detail entity page: a paged, sortable,
// searchable list, a detail form made of independently initialized sections,
// and the create/save/delete/clone lifecycle that keeps both in step.
//
// Everything here runs on the host's single UI goroutine. Operations block
// until they return and never leave the selection, the session's active id
// and the bound form fields disagreeing with each other.
//
// Entities are handled as *T for a caller type T. A Kind describes T through
// an explicit field table, so forms are built without reflection.
package page
