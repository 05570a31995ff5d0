// Package credential manages the short-lived bearer token used for Daraja
// payment calls.
//
// A Manager fetches the first token synchronously in Start and then renews
// it from a single background goroutine at max(expires_in - Margin, Floor).
// A failed renewal keeps the previous token and retries after Floor.
// Shutdown cancels the loop, including an in-flight fetch, and any token
// that arrives after shutdown has begun is discarded.
//
// States:
//
//	UNINITIALIZED -> ACTIVE <-> RENEWING -> SHUTTING_DOWN -> STOPPED
//
// Readers call CurrentToken, which is a lock-free atomic load and never
// blocks on a renewal.
package credential
