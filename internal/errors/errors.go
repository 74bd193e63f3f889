// internal/errors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// ErrCampaignNotFound is returned when querying an unknown campaign key.
type ErrCampaignNotFound struct {
	Key string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign %q not found", e.Key)
}

// Helper constructor
func NewCampaignNotFound(key string) error {
	return &ErrCampaignNotFound{Key: key}
}

// ErrCampaignExists is returned when starting a campaign under a key that is
// still processing.
type ErrCampaignExists struct {
	Key string
}

func (e *ErrCampaignExists) Error() string {
	return fmt.Sprintf("campaign %q is already processing", e.Key)
}

func NewCampaignExists(key string) error {
	return &ErrCampaignExists{Key: key}
}

// ErrInvalidTransition is returned when finishing an already-terminal
// campaign with a conflicting status.
type ErrInvalidTransition struct {
	Key  string
	From string
	To   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("campaign %q cannot move from %s to %s", e.Key, e.From, e.To)
}

func NewInvalidTransition(key, from, to string) error {
	return &ErrInvalidTransition{Key: key, From: from, To: to}
}

// ErrFatalConfiguration marks errors that abort a whole campaign: missing
// credentials, a malformed provider endpoint, an unreadable input source.
type ErrFatalConfiguration struct {
	Detail string
}

func (e *ErrFatalConfiguration) Error() string {
	return "configuration error: " + e.Detail
}

func NewFatalConfiguration(detail string) error {
	return &ErrFatalConfiguration{Detail: detail}
}

func IsNotFound(err error) bool {
	var e *ErrCampaignNotFound
	return errors.As(err, &e)
}

func IsExists(err error) bool {
	var e *ErrCampaignExists
	return errors.As(err, &e)
}

func IsInvalidTransition(err error) bool {
	var e *ErrInvalidTransition
	return errors.As(err, &e)
}
