// Package daraja wraps the Safaricom Daraja (M-Pesa) REST API.
//
// FetchToken obtains a client-credentials bearer token and is the Fetcher
// used by the credential manager. STKPush and GenerateQRCode take the
// current token as an argument and never cache it.
//
// Failed payment calls return *APIError, the structured object
// {error, status_code?, details?} that tool handlers pass back to callers.
package daraja
