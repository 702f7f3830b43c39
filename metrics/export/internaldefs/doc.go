// Package internaldefs holds the shared metric name and help-text tables used
// by the Prometheus and OTel exporters. It is not part of the public API.
package internaldefs
