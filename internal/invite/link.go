// Package invite encodes and decodes activation links.
//
// The link format is fixed because links already sent by e-mail must keep
// working:
//
//	<origin>/invite?data=<encodeURIComponent(JSON.stringify(payload))>
//
// The payload is readable by anyone holding the link; it is not signed.
package invite

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/tecnochamados/internal/domain"
)

const (
	// Path is the activation page path appended to the origin.
	Path = "/invite"
	// QueryParam carries the encoded payload.
	QueryParam = "data"
)

// ErrMalformed is returned when a link carries no decodable payload.
var ErrMalformed = errors.New("link de convite inválido")

// Payload is the invitee profile embedded in a link. Field order matters:
// it matches the key order of links issued so far.
type Payload struct {
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Role       domain.Role       `json:"role"`
	Department string            `json:"department"`
	Status     domain.UserStatus `json:"status"`
}

// Marshal serializes p the way the browser did: compact JSON without HTML
// escaping.
func (p Payload) Marshal() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// EncodeLink builds the activation link for p under origin.
func EncodeLink(origin string, p Payload) (string, error) {
	raw, err := p.Marshal()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(origin, "/") + Path + "?" + QueryParam + "=" + EncodeURIComponent(raw), nil
}

// DecodeLink extracts the payload from a full activation link.
func DecodeLink(link string) (Payload, error) {
	u, err := url.Parse(link)
	if err != nil {
		return Payload{}, ErrMalformed
	}
	return DecodeQuery(u.RawQuery)
}

// DecodeQuery extracts the payload from the raw query string of an
// activation request. The value is unescaped once by the query parser and
// once more as the activation page always did.
func DecodeQuery(rawQuery string) (Payload, error) {
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	data := values.Get(QueryParam)
	if data == "" {
		return Payload{}, ErrMalformed
	}

	decoded, err := DecodeURIComponent(data)
	if err != nil {
		return Payload{}, ErrMalformed
	}

	var p Payload
	if err := json.Unmarshal([]byte(decoded), &p); err != nil {
		return Payload{}, ErrMalformed
	}
	if strings.TrimSpace(p.Email) == "" {
		return Payload{}, ErrMalformed
	}
	return p, nil
}

// EncodeURIComponent escapes s exactly like the ECMAScript function of the
// same name: everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ) is
// percent-encoded as UTF-8 with upper-case hex.
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

// DecodeURIComponent reverses EncodeURIComponent. Like its ECMAScript
// counterpart it does not turn '+' into a space and rejects broken escapes
// and invalid UTF-8.
func DecodeURIComponent(s string) (string, error) {
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(out) {
		return "", ErrMalformed
	}
	return out, nil
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
