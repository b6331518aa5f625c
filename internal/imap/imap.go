package imap

import "time"

// Client is the mailbox session used by one ingestion run. Connection,
// login and folder selection failures abort the run; per-message fetch
// failures are local to that message.
type Client interface {
	Connect(server string) error
	Login(user, password string) error
	SelectMailbox(name string) error
	// SearchDateRange returns the UIDs of messages received in
	// [since, before), in ascending server order. The before bound is
	// exclusive by IMAP BEFORE semantics.
	SearchDateRange(since, before time.Time) ([]uint32, error)
	// FetchRaw returns the full RFC 822 bytes of one message.
	FetchRaw(uid uint32) ([]byte, error)
	Close() error
}
