// Package driving defines the inbound port interfaces through which
// the CLI (or any other caller) drives the core services.
package driving
