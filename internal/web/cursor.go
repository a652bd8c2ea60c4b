package web

import (
	"github.com/gorilla/securecookie"

	"github.com/example/restaurant-ops/internal/reservation"
)

const cursorName = "reservation-cursor"

// CursorCodec signs (and with a block key, encrypts) listing cursors so
// clients cannot forge positions.
type CursorCodec struct {
	sc *securecookie.SecureCookie
}

// NewCursorCodec uses random keys when hashKey is empty; such cursors only
// survive for the life of the process.
func NewCursorCodec(hashKey, blockKey []byte) *CursorCodec {
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
		blockKey = securecookie.GenerateRandomKey(32)
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	// listings are short lived; a day is plenty
	sc.MaxAge(24 * 60 * 60)
	return &CursorCodec{sc: sc}
}

func (c *CursorCodec) Encode(cur reservation.Cursor) (string, error) {
	return c.sc.Encode(cursorName, cur)
}

func (c *CursorCodec) Decode(s string) (*reservation.Cursor, error) {
	var cur reservation.Cursor
	if err := c.sc.Decode(cursorName, s, &cur); err != nil {
		return nil, err
	}
	return &cur, nil
}
