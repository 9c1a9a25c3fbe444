// Package app assembles configuration, logging, the data service, and the
// HTTP server into a runnable application.
package app
