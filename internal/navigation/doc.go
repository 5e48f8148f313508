// Package navigation turns a cursor position into a single go-to-declaration
// jump.
//
// A Resolver asks the providers of a Registry in priority order and keeps the
// first non-empty answer. The answer is classified into an Outcome (none,
// single or multiple). A Session runs the Resolver under a cancellable
// Progress scope and then navigates, lets the user pick through a Surface, or
// emits one of two notices: nothing found, or analysis not ready.
//
// The package does not parse source or index symbols. Providers do that.
package navigation
