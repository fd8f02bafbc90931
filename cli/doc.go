// Package cli implements the csvmodel command line front end.
//
// Each FILE argument is validated with the settings the configuration
// resolves for it. Files are checked concurrently up to --jobs and reported
// in argument order. The command returns ErrFailed when any file had
// diagnostics or could not be validated.
package cli
