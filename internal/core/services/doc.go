// Package services contains the core engine logic: the resource
// fetcher with its fallback chain, link discovery, the multi-fetch
// dispatcher, the sanitizer, the sync committer and the service
// supervisor. Services depend only on domain types and port
// interfaces, never on concrete adapters.
package services
