package main

import (
	"errors"

	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/provpack"
)

// Default limits for CLI commands.
const (
	DefaultListLimit = 50
)

// Exit codes.
const (
	exitFailure   = 1
	exitInvalid   = 2
	exitNotFound  = 3
	exitIntegrity = 4
)

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, entities.ErrInvalidInput),
		errors.Is(err, entities.ErrMissingRequiredField),
		errors.Is(err, entities.ErrReferentialViolation):
		return exitInvalid
	case errors.Is(err, entities.ErrCaseNotFound):
		return exitNotFound
	case errors.Is(err, provpack.ErrIntegrity):
		return exitIntegrity
	default:
		return exitFailure
	}
}
