// Package model holds the request-scoped values exchanged between the HTTP
// layer, the form service and the view renderer. Nothing here is persisted.
package model
