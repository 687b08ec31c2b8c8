// Package hashid turns numeric record ids into opaque tokens and back.
//
// Tokens make casual id enumeration harder. They are not a security
// boundary: anyone who learns the salt can decode them.
package hashid

import (
	"errors"
	"fmt"

	"github.com/speps/go-hashids/v2"
)

// Codec encodes and decodes ids with a process-wide salt
type Codec struct {
	h *hashids.HashID
}

// New creates a codec. An empty salt is rejected.
func New(salt string, minLength int) (*Codec, error) {
	if salt == "" {
		return nil, errors.New("hashid: empty salt")
	}
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = minLength

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("hashid: %w", err)
	}
	return &Codec{h: h}, nil
}

// Encode returns the token of a non-negative id
func (c *Codec) Encode(id int64) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("hashid: negative id %d", id)
	}
	token, err := c.h.EncodeInt64([]int64{id})
	if err != nil {
		return "", fmt.Errorf("hashid: encode %d: %w", id, err)
	}
	return token, nil
}

// Decode returns the id of a token. Any string that is not a token produced
// by this codec yields ok=false.
func (c *Codec) Decode(token string) (id int64, ok bool) {
	defer func() {
		if recover() != nil {
			id, ok = 0, false
		}
	}()

	if token == "" {
		return 0, false
	}
	ids, err := c.h.DecodeInt64WithError(token)
	if err != nil || len(ids) != 1 {
		return 0, false
	}
	// Decoding is lenient; only accept the canonical encoding.
	canonical, err := c.h.EncodeInt64(ids)
	if err != nil || canonical != token {
		return 0, false
	}
	return ids[0], true
}
