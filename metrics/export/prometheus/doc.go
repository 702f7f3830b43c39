// Package prometheus renders authkit metrics in Prometheus text exposition
// format without taking a dependency on the Prometheus client library.
package prometheus
