// Package sqlite implements the StateStore port on an embedded SQLite
// database, so service status and session history survive restarts.
package sqlite
