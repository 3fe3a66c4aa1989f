// Package handlers implements the business logic for CLI commands.
//
// Handlers load configuration, construct the provider, SSH and archive
// clients through replaceable factory variables, and delegate the build
// itself to the image package.
package handlers
