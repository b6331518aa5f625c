package mailparse

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"briefing-mail-archive/internal/decoder"
	"briefing-mail-archive/internal/models"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

// Extract parses one raw RFC 822 message into a Record. It returns
// (nil, false) when the decoded subject does not contain subjectFilter or
// when the message cannot be parsed at all; neither case is an error.
// For multipart messages only the first text/plain part becomes the content.
func Extract(uid uint32, raw []byte, subjectFilter string) (*models.Record, bool) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, false
	}
	if mr == nil {
		return nil, false
	}

	subject := decoder.DecodeHeader(mr.Header.Get("Subject"))
	if !strings.Contains(subject, subjectFilter) {
		return nil, false
	}

	record := &models.Record{
		ID:       strconv.FormatUint(uint64(uid), 10),
		SendTime: parseSendTime(mr.Header),
		Subject:  subject,
		Content:  extractPlainText(mr),
	}

	return record, true
}

// parseSendTime maps the Date header to the tagged SendTime: absent means
// Unknown, unparsable means Malformed.
func parseSendTime(header mail.Header) models.SendTime {
	if header.Get("Date") == "" {
		return models.SendTime{Kind: models.SendTimeUnknown}
	}
	t, err := header.Date()
	if err != nil {
		return models.SendTime{Kind: models.SendTimeMalformed}
	}
	return models.KnownTime(t.Local())
}

// extractPlainText scans parts in their defined order and returns the body
// of the first inline text/plain part, trimmed. Single-part messages appear
// here as one inline part.
func extractPlainText(mr *mail.Reader) string {
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return ""
		}
		unknownCharset := err != nil && message.IsUnknownCharset(err)
		if err != nil && !unknownCharset {
			return ""
		}
		if p == nil {
			return ""
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, params, err := h.ContentType()
		if err != nil || contentType != "text/plain" {
			continue
		}

		body, err := io.ReadAll(p.Body)
		if err != nil {
			continue
		}

		// When go-message recognized the charset the body is already UTF-8;
		// otherwise pass the raw label on as a hint.
		hint := ""
		if unknownCharset {
			hint = params["charset"]
		}
		return strings.TrimSpace(decoder.DecodeBytes(body, hint))
	}
}
