// Package domain contains the core entities of the resource
// synchronization engine: remote resources and their cache entries,
// fetch tasks, filesystem change batches, sync sessions and the
// service lifecycle state. Domain types have no dependencies on
// adapters or external services.
package domain
