// Package jwt manages access-token issuance and verification with HMAC-SHA256
// signing pinned at both parse and keyfunc level, suitable for low-latency
// authentication paths.
package jwt
