package repository

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidPaginationToken wraps every failure to read a page token.
var ErrInvalidPaginationToken = errors.New("token is invalid")

const (
	DefaultPaginationLimit = 10
	MaxPaginationLimit     = 100
)

// Paginator is a keyset cursor over (created_at DESC, id DESC).
type Paginator struct {
	LastID        uuid.UUID
	LastCreatedAt time.Time
}

type pageToken struct {
	At int64     `json:"at"`
	ID uuid.UUID `json:"id"`
}

// After positions the cursor right after the row with the given key.
func After(id uuid.UUID, createdAt time.Time) *Paginator {
	return &Paginator{LastID: id, LastCreatedAt: createdAt}
}

// Encode returns an opaque, URL-safe token for the cursor.
func (p Paginator) Encode() string {
	raw, _ := json.Marshal(pageToken{At: p.LastCreatedAt.UnixNano(), ID: p.LastID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func DecodePageToken(token string) (*Paginator, error) {
	if token == "" {
		return nil, ErrInvalidPaginationToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPaginationToken, err)
	}

	var decoded pageToken
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPaginationToken, err)
	}
	if decoded.ID == uuid.Nil || decoded.At <= 0 {
		return nil, fmt.Errorf("%w: missing cursor key", ErrInvalidPaginationToken)
	}

	return After(decoded.ID, time.Unix(0, decoded.At).UTC()), nil
}
