// Package api defines the wire messages and procedure names of the ledger's
// Connect services. Messages are plain Go structs encoded as JSON.
package api
