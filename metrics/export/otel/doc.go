// Package otel bridges authkit metrics into OpenTelemetry observable
// instruments via a registered callback.
package otel
