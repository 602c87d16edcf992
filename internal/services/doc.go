// Package services defines the shared fault taxonomy used across the
// audioservice components. Errors are tagged with sentinel markers rather
// than carrying HTTP status codes; the transport layer owns that mapping.
package services
