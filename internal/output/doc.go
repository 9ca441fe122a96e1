// Package output renders command reports in a user-selected format.
//
// Formats are registered by name in a [Registry]; [DefaultRegistry] provides
// json and yaml, and commands add their own human-readable table format.
package output
