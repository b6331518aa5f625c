// Package decoder normalizes header and body text from mailboxes that mix
// UTF-8 with legacy simplified-Chinese encodings. Decoding never fails: when
// no encoding fits, the raw bytes are kept as a lossy string.
package decoder

import (
	"bytes"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

func init() {
	// Register GBK so go-message can decode mail bodies from QQ/163-style
	// mailboxes; otherwise it reports `unhandled charset "gbk"`. GBK is a
	// superset of GB2312, so both labels map to the same decoder.
	charset.RegisterEncoding("gbk", simplifiedchinese.GBK)
	charset.RegisterEncoding("gb2312", simplifiedchinese.GBK)
	charset.RegisterEncoding("gb18030", simplifiedchinese.GB18030)
}

// Tried after the caller's hint and plain UTF-8, in this order.
var fallbackEncodings = []encoding.Encoding{
	simplifiedchinese.GBK,
	simplifiedchinese.GB18030,
}

// DecodeBytes converts raw payload bytes to a UTF-8 string. The hint (a
// charset label from a MIME header, may be empty) is tried first, then
// UTF-8, then the legacy fallbacks. The first clean decode wins; if nothing
// decodes cleanly the bytes are returned as-is.
func DecodeBytes(b []byte, hint string) string {
	if len(b) == 0 {
		return ""
	}
	if enc := lookupEncoding(hint); enc != nil {
		if s, ok := tryDecode(b, enc); ok {
			return s
		}
	}
	if utf8.Valid(b) {
		return string(b)
	}
	for _, enc := range fallbackEncodings {
		if s, ok := tryDecode(b, enc); ok {
			return s
		}
	}
	return string(b)
}

func lookupEncoding(hint string) encoding.Encoding {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "gbk", "gb2312":
		return simplifiedchinese.GBK
	case "gb18030":
		return simplifiedchinese.GB18030
	default:
		// UTF-8 and ASCII take the utf8.Valid path; anything else falls
		// through to the fallback chain.
		return nil
	}
}

// tryDecode runs one decoder and reports whether the result is clean.
// x/text decoders substitute U+FFFD instead of failing, so a replacement
// rune in the output counts as a failed decode.
func tryDecode(b []byte, enc encoding.Encoding) (string, bool) {
	out, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil || !utf8.Valid(out) || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// wordDecoder decodes =?charset?Q?...?= encoded words; mime.WordDecoder
// handles UTF-8 and ISO-8859-1 itself and asks the CharsetReader for the rest.
var wordDecoder = &mime.WordDecoder{
	CharsetReader: func(cs string, r io.Reader) (io.Reader, error) {
		switch strings.ToLower(strings.TrimSpace(cs)) {
		case "gbk", "gb2312":
			return simplifiedchinese.GBK.NewDecoder().Reader(r), nil
		case "gb18030":
			return simplifiedchinese.GB18030.NewDecoder().Reader(r), nil
		default:
			return r, nil
		}
	},
}

// DecodeHeader decodes an RFC 2047 header value, concatenating multi-word
// fragments in order. Malformed input degrades to the raw string.
func DecodeHeader(s string) string {
	if s == "" || !strings.Contains(s, "=?") {
		return s
	}
	decoded, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}
