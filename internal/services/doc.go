// Package services implements the application layer between the HTTP
// transport and the storage/pipeline internals. Services validate
// input, coordinate repositories and the job queue, and return domain
// values; they never touch http.ResponseWriter.
package services
