// Package middleware groups the HTTP middlewares used by the portal.
//
// Subpackages:
//   - rayid: assigns a unique ray ID to every request for log correlation
//   - auth: optional API-key protection for the REST surface
package middleware
