// Package validation builds the validator used for incoming data and turns
// its errors into field-level details.
//
// It uses the `validator` library to enforce rules declared in struct tags.
package validation
