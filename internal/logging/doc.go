// Package logging builds the logr.Logger used throughout spotbuild.
//
// Output is human-readable console text when writing to a terminal and
// JSON otherwise, so CI log collectors receive structured records.
package logging
