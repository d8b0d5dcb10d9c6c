// Package api exposes the task service over HTTP. Handlers parse and loosely
// validate requests, call a single service operation and translate the
// outcome into the JSON envelope defined in package shared.
package api
