// Package errs defines the error shapes returned to HTTP clients.
//
// Handlers and middleware return *HTTPError values; the global error handler
// serializes them so every failure reaching a client has the same JSON body.
// Business-rule outcomes (like a blank contact form) are not errors here:
// they are rendered as views by the handler that owns them.
package errs
