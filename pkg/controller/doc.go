// Package controller implements the REST client for the EDA controller API.
// It owns connection handling, HTTP Basic authentication, pagination, and the
// mapping of non-2xx responses to typed errors. All reads and mutations the
// reconciliation engine performs go through this client.
package controller
