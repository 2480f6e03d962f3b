// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (poll.go, teacher.go, errors.go) hold the shared types and the
// collaborator contracts the classroom core and the adapters agree on. No implementation code.
package domain
