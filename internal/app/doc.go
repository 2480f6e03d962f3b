// Package app provides the application service layer for the HTTP surface.
//
// AuthService handles teacher credentials and session tokens; PollQueries
// serves poll history. Depends on domain interfaces, not concrete implementations.
package app
