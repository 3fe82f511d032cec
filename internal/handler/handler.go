// Package handler is the HTTP layer between the router and the services.
//
// It binds requests, calls the services and hands the selected view to the
// renderer. Logging and New Relic attributes are added in one shared pipeline.
package handler
