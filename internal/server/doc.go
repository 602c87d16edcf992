// Package server exposes the audio catalog over HTTP: multipart upload,
// format-resolving download, healthcheck and Prometheus metrics.
package server
