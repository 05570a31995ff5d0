// Package httpapi holds the request plumbing and error taxonomy shared by the
// backend wrappers (Daraja payments and the Unstructured document pipeline).
//
// Every call is a single attempt. Failures are classified as:
//   - ConfigurationError: a required setting is absent
//   - NetworkError: the request never produced a response
//   - UpstreamError: the backend answered with a non-2xx status
//
// ErrorType maps an error to one of these names for the JSON error payloads
// returned by tool handlers.
package httpapi
