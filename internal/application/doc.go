// Package application provides application initialization and dependency wiring.
// It builds the configuration store, solver, handlers, router, and HTTP server,
// keeping the main package focused on CLI parsing and orchestration.
package application
