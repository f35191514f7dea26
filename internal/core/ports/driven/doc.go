// Package driven defines the outbound port interfaces the core
// services depend on: the resource cache, the remote content client,
// the git repository, the change watcher, the persisted state store
// and the host service binding. Adapters implement these interfaces.
package driven
