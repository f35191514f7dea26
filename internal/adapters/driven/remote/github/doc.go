// Package github implements the RemoteClient port against the GitHub
// contents API, with dual-strategy rate limiting: a proactive token
// bucket plus reactive backoff from the API's rate limit headers.
package github
