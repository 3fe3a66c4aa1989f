// Package naming provides consistent names for build resources.
//
// Instance names follow the pattern {prefix}-{8char}, where the suffix is
// taken from the run ID so that a server name can be traced back to the run
// that created it.
package naming
