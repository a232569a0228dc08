// Package pagination implements the opaque keyset cursors evidence listings
// hand back to callers. A cursor pins the (created_at, id) position of the
// last row a page returned; because evidence rows are append-only, rows
// submitted while a caller walks pages only ever sort after the pinned
// position and no row is skipped or repeated.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size when the caller does not ask for one.
	DefaultLimit = 25
	// MaxLimit caps a single page regardless of what the caller asks for.
	MaxLimit = 100
)

// Params carries the caller's paging inputs. Cursor is the opaque token from
// the previous page, empty for the first page.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor pins a listing position by creation time, with the row id breaking
// ties between rows created in the same instant.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Clamp folds the caller's limit into the [1, MaxLimit] range, substituting
// DefaultLimit when none was given.
func Clamp(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// FetchSize is the clamped limit plus one probe row; the extra row tells the
// repository whether another page exists without a second count query.
func FetchSize(limit int) int {
	return Clamp(limit) + 1
}

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	payload := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "," + c.ID.String()
	return base64.URLEncoding.EncodeToString([]byte(payload))
}

// Decode reverses Encode. An empty token is the first page and yields a nil
// cursor without error.
func Decode(token string) (*Cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	pos := strings.LastIndexByte(string(raw), ',')
	if pos < 0 {
		return nil, fmt.Errorf("malformed cursor")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, string(raw[:pos]))
	if err != nil {
		return nil, fmt.Errorf("cursor position: %w", err)
	}
	id, err := uuid.Parse(string(raw[pos+1:]))
	if err != nil {
		return nil, fmt.Errorf("cursor row id: %w", err)
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
