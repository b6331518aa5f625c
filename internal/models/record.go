package models

import (
	"encoding/json"
	"time"
)

// SendTimeKind distinguishes a parsed Date header from the two degraded cases.
type SendTimeKind int

const (
	// SendTimeUnknown means the message carried no Date header.
	SendTimeUnknown SendTimeKind = iota
	// SendTimeMalformed means the Date header was present but unparsable.
	SendTimeMalformed
	// SendTimeKnown means the Date header parsed cleanly.
	SendTimeKnown
)

const sendTimeLayout = "2006-01-02 15:04:05"

// SendTime is the message timestamp as a tagged optional: either a known
// time or one of two sentinels. Both sentinels order before any known time.
type SendTime struct {
	Kind SendTimeKind
	Time time.Time
}

// KnownTime wraps a parsed Date header value.
func KnownTime(t time.Time) SendTime {
	return SendTime{Kind: SendTimeKnown, Time: t}
}

// Before reports whether s orders strictly before o. Unknown and Malformed
// compare equal to each other and before every Known value.
func (s SendTime) Before(o SendTime) bool {
	if s.Kind != SendTimeKnown {
		return o.Kind == SendTimeKnown
	}
	if o.Kind != SendTimeKnown {
		return false
	}
	return s.Time.Before(o.Time)
}

func (s SendTime) String() string {
	switch s.Kind {
	case SendTimeKnown:
		return s.Time.Format(sendTimeLayout)
	case SendTimeMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// MarshalJSON keeps the stored layout a plain string: the formatted time for
// Known values, "unknown"/"malformed" otherwise.
func (s SendTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SendTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "unknown", "":
		*s = SendTime{Kind: SendTimeUnknown}
		return nil
	case "malformed":
		*s = SendTime{Kind: SendTimeMalformed}
		return nil
	}
	t, err := time.ParseInLocation(sendTimeLayout, raw, time.Local)
	if err != nil {
		// A value written by hand or by an older build; degrade, don't fail the load.
		*s = SendTime{Kind: SendTimeMalformed}
		return nil
	}
	*s = SendTime{Kind: SendTimeKnown, Time: t}
	return nil
}

// Record is one ingested briefing message. Created once by the extractor and
// never mutated afterwards; the identifier is the server-assigned UID.
type Record struct {
	ID       string   `json:"email_id"`
	SendTime SendTime `json:"send_time"`
	Subject  string   `json:"subject"`
	Content  string   `json:"content"`
}
