package scanner

import (
	"fmt"
	"slices"
	"time"

	"bm-banbot/model"
)

// seenHistory bounds how many published ban IDs the cursor remembers.
const seenHistory = 512

// Cursor is the dedup state of the ban poller. Watermark is fixed when the
// process starts; the seen IDs only grow after a notice was published.
type Cursor struct {
	LastSeenBanID string
	Watermark     time.Time
	// SeenBanIDs holds recently published IDs, oldest first. An older ban
	// can return to the top of the feed once a newer one is lifted.
	SeenBanIDs []string
}

// NewCursor creates a cursor with nothing seen yet.
func NewCursor(watermark time.Time) Cursor {
	return Cursor{Watermark: watermark}
}

// IsNew reports whether ban should be published. Both guards are required:
// the id guard stops the same top record from repeating every tick, and the
// watermark guard stops bans issued before startup from being replayed.
func (c Cursor) IsNew(ban *model.BanRecord) (bool, error) {
	if ban.ID == "" || ban.ID == c.LastSeenBanID || slices.Contains(c.SeenBanIDs, ban.ID) {
		return false, nil
	}
	issuedAt, err := ban.IssuedAt()
	if err != nil {
		return false, fmt.Errorf("ban %s has an unparseable timestamp %q: %w", ban.ID, ban.Attributes.Timestamp, err)
	}
	return issuedAt.After(c.Watermark), nil
}

// Advance returns the cursor after banID has been published. The receiver
// is left untouched.
func (c Cursor) Advance(banID string) Cursor {
	seen := make([]string, 0, len(c.SeenBanIDs)+1)
	seen = append(seen, c.SeenBanIDs...)
	seen = append(seen, banID)
	if len(seen) > seenHistory {
		seen = seen[len(seen)-seenHistory:]
	}
	c.LastSeenBanID = banID
	c.SeenBanIDs = seen
	return c
}
