package notifier

import "errors"

var (
	// ErrAuthentication means the SMTP server rejected the credentials.
	ErrAuthentication = errors.New("smtp authentication failed, check smtp_username and the smtp password")

	// ErrRecipientRejected means the server permanently refused the recipient.
	ErrRecipientRejected = errors.New("recipient rejected, check the recipient address")

	// ErrInvalidMessage means the message or transport settings can never be
	// sent as they are.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrDeliveryExhausted is returned after every attempt failed with a
	// retryable error.
	ErrDeliveryExhausted = errors.New("delivery attempts exhausted")

	// ErrRateLimited means the send rate cap did not admit the message.
	// Nothing was sent.
	ErrRateLimited = errors.New("send rate limit")
)

// IsTerminal reports whether err must not be retried.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrAuthentication) ||
		errors.Is(err, ErrRecipientRejected) ||
		errors.Is(err, ErrInvalidMessage)
}
