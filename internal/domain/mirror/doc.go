// Package mirror contains the domain model for mirroring marketplace
// listings from a remote e-commerce platform into local storage: connected
// seller accounts, mirrored listings, the synchronization request/progress
// types, and the ports implemented by the infrastructure layer.
package mirror
