package imap

import "fmt"

// ConnectionError reports a failed dial to the IMAP server.
type ConnectionError struct {
	Server string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("IMAP connection error (%s): %v", e.Server, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError reports rejected credentials. The login name is deliberately
// not included in the message.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("IMAP authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FolderError reports a mailbox that could not be selected.
type FolderError struct {
	Mailbox string
	Err     error
}

func (e *FolderError) Error() string {
	return fmt.Sprintf("cannot select mailbox %q: %v", e.Mailbox, e.Err)
}

func (e *FolderError) Unwrap() error { return e.Err }

// SearchError reports a failed server-side search.
type SearchError struct {
	Err error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("error searching for messages: %v", e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// FetchError reports a failed fetch of one message; the ingestion run
// skips that message and continues.
type FetchError struct {
	UID uint32
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error fetching message UID %d: %v", e.UID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
