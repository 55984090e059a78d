// Package api adapts HTTP requests to the assessment, auth and backup
// services: it decodes and validates payloads, maps service errors to status
// codes and writes JSON responses.
package api
