package captchacache

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection is returned when the store cannot be reached at startup
	ErrConnection = errors.New("cannot connect to store")

	// ErrExtensionNotLoaded is returned when the cache module is absent from the store
	ErrExtensionNotLoaded = errors.New("mcaptcha cache module is not loaded")

	// ErrExtensionCommandMissing is returned when the module lacks an expected command
	ErrExtensionCommandMissing = errors.New("mcaptcha cache module command not found")

	// ErrExtensionProtocol is returned when the module replies outside the expected domain
	ErrExtensionProtocol = errors.New("unexpected reply from mcaptcha cache module")

	// ErrDeserialization is returned when a structured reply cannot be parsed
	ErrDeserialization = errors.New("cannot decode reply payload")

	// ErrSerialization is returned when a captcha configuration cannot be encoded
	ErrSerialization = errors.New("cannot encode captcha configuration")

	// ErrStore is returned when a command fails in transport or the store rejects it
	ErrStore = errors.New("store command failed")

	// ErrInvalidID is returned when a captcha identifier is empty
	ErrInvalidID = errors.New("captcha id cannot be empty")

	// ErrInvalidOption is returned when an Option receives a bad value
	ErrInvalidOption = errors.New("invalid option")
)

// CommandMissingError names the module command that verification could not find.
// It matches ErrExtensionCommandMissing with errors.Is.
type CommandMissingError struct {
	Command string
}

func (e *CommandMissingError) Error() string {
	return fmt.Sprintf("%v: %s", ErrExtensionCommandMissing, e.Command)
}

func (e *CommandMissingError) Unwrap() error {
	return ErrExtensionCommandMissing
}

// storeError keeps both ErrStore and the transport's own error matchable
func storeError(command string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, command, err)
}
