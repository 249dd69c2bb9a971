package service

import "errors"

var (
	ErrMissingStore        = errors.New("widget: message store is required")
	ErrMissingRenderer     = errors.New("widget: renderer is required")
	ErrWidgetAlreadyActive = errors.New("widget: an instance is already active for this context")
	ErrWidgetClosed        = errors.New("widget: closed")
	ErrNotOpened           = errors.New("widget: not opened")
	ErrRequestInFlight     = errors.New("widget: a request is already in flight")

	ErrUnknownOptionSet    = errors.New("widget: unknown option set")
	ErrOptionSetDisabled   = errors.New("widget: option set is disabled")
	ErrUnknownOption       = errors.New("widget: unknown option")
	ErrInvalidConfirmation = errors.New("widget: confirmation accepts only yes or no")
	ErrConfirmationPending = errors.New("widget: answer the pending confirmation first")
	ErrActionUnavailable   = errors.New("widget: action not available at this step")
	ErrTextInputDisabled   = errors.New("widget: text input is not enabled")
	ErrEmptyText           = errors.New("widget: text must not be empty")
	ErrRatingUnavailable   = errors.New("widget: no rating is pending")
	ErrInvalidRating       = errors.New("widget: rating must be between 1 and 5")
	ErrUnknownFeedback     = errors.New("widget: unknown feedback option")
)
