package imap

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

const (
	dialAttempts = 3
	dialBackoff  = 2 * time.Second
)

type StandardClient struct {
	client  *client.Client
	timeout time.Duration
}

// NewStandardClient creates a new StandardClient with a default timeout of 30 seconds for IMAP operations
func NewStandardClient() *StandardClient {
	return &StandardClient{
		timeout: 30 * time.Second,
	}
}

// Connect establishes a secure connection to the IMAP server using TLS,
// retrying transient dial failures a few times with a short backoff.
func (c *StandardClient) Connect(server string) error {
	var lastErr error
	for attempt := 0; attempt < dialAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(dialBackoff * time.Duration(attempt))
		}
		cl, err := client.DialTLS(server, nil)
		if err == nil {
			c.client = cl
			return nil
		}
		lastErr = err
	}
	return &ConnectionError{Server: server, Err: lastErr}
}

// Login authenticates the user with the IMAP server using the provided username and password.
func (c *StandardClient) Login(user, password string) error {
	if c.client == nil {
		return fmt.Errorf("not connected")
	}
	if err := c.client.Login(user, password); err != nil {
		return &AuthError{Err: err}
	}
	return nil
}

// SelectMailbox selects the specified mailbox (e.g., "INBOX") for subsequent operations.
func (c *StandardClient) SelectMailbox(name string) error {
	if c.client == nil {
		return fmt.Errorf("not connected")
	}
	if _, err := c.client.Select(name, true); err != nil {
		return &FolderError{Mailbox: name, Err: err}
	}
	return nil
}

// SearchDateRange retrieves the UIDs of messages received on or after since
// and strictly before the before bound, in ascending server order.
func (c *StandardClient) SearchDateRange(since, before time.Time) ([]uint32, error) {
	if c.client == nil {
		return nil, fmt.Errorf("not connected")
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	criteria.Before = before

	uids, err := c.client.UidSearch(criteria)
	if err != nil {
		return nil, &SearchError{Err: err}
	}

	return uids, nil
}

// FetchRaw retrieves the full RFC 822 message bytes for the specified UID.
func (c *StandardClient) FetchRaw(uid uint32) ([]byte, error) {
	if c.client == nil {
		return nil, fmt.Errorf("not connected")
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	// Peek keeps the archived message unread in the mailbox.
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	prevTimeout := c.client.Timeout
	c.client.Timeout = c.timeout
	defer func() { c.client.Timeout = prevTimeout }()

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- c.client.UidFetch(seqSet, items, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		msg = m
	}

	if err := <-done; err != nil {
		return nil, &FetchError{UID: uid, Err: err}
	}

	if msg == nil {
		return nil, &FetchError{UID: uid, Err: fmt.Errorf("no message retrieved")}
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, &FetchError{UID: uid, Err: fmt.Errorf("empty body section")}
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &FetchError{UID: uid, Err: err}
	}

	return raw, nil
}

// Close logs out from the IMAP server and closes the connection. If there is no active connection, it simply returns nil.
func (c *StandardClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Logout()
}
