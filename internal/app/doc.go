// Package app assembles the application: configuration, logging,
// observability, storage, the AI client, the pipeline queue and the
// HTTP server, with ordered graceful shutdown.
package app
