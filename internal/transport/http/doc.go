// Package http exposes the REST API: uploads, status polling, insights
// and scouting reports. Handlers translate service errors into the
// standard JSON error envelope and never contain business logic.
package http
