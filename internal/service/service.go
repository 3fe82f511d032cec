// Package service contains the business logic.
//
// It sits between the handler layer and the views: it receives bound input
// from a handler, applies the business rules and returns the outcome the
// handler should render.
package service
