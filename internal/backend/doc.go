// Package backend implements the HTTP client for the remote indexing
// backend: the connectivity probe, best-effort index template installation,
// and the bulk write endpoint the event shipper delivers batches through.
package backend
