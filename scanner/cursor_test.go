package scanner

import (
	"fmt"
	"testing"
	"time"

	"bm-banbot/model"
)

var t0 = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func banAt(id string, at time.Time) *model.BanRecord {
	return &model.BanRecord{ID: id, Attributes: model.BanAttributes{Timestamp: at.Format(time.RFC3339Nano)}}
}

func TestCursorIsNew(t *testing.T) {
	c := NewCursor(t0)

	tests := []struct {
		name    string
		cursor  Cursor
		ban     *model.BanRecord
		want    bool
		wantErr bool
	}{
		{name: "after watermark", cursor: c, ban: banAt("b1", t0.Add(10*time.Second)), want: true},
		{name: "at watermark", cursor: c, ban: banAt("b1", t0), want: false},
		{name: "before watermark", cursor: c, ban: banAt("b1", t0.Add(-time.Hour)), want: false},
		{name: "same id", cursor: c.Advance("b1"), ban: banAt("b1", t0.Add(10*time.Second)), want: false},
		{name: "earlier published id", cursor: c.Advance("b1").Advance("b2"), ban: banAt("b1", t0.Add(10*time.Second)), want: false},
		{name: "empty id", cursor: c, ban: banAt("", t0.Add(time.Second)), want: false},
		{name: "bad timestamp", cursor: c, ban: &model.BanRecord{ID: "b2", Attributes: model.BanAttributes{Timestamp: "yesterday"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cursor.IsNew(tt.ban)
			if (err != nil) != tt.wantErr {
				t.Fatalf("IsNew() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("IsNew() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCursorAdvanceDoesNotAlias(t *testing.T) {
	base := NewCursor(t0).Advance("a")
	left := base.Advance("b")
	right := base.Advance("c")

	if left.SeenBanIDs[1] != "b" || right.SeenBanIDs[1] != "c" {
		t.Errorf("advances share state: %v %v", left.SeenBanIDs, right.SeenBanIDs)
	}
	if len(base.SeenBanIDs) != 1 {
		t.Errorf("base changed: %v", base.SeenBanIDs)
	}
}

func TestCursorHistoryIsBounded(t *testing.T) {
	c := NewCursor(t0)
	for i := 0; i < seenHistory+10; i++ {
		c = c.Advance(fmt.Sprintf("b%d", i))
	}
	if len(c.SeenBanIDs) != seenHistory {
		t.Fatalf("len(SeenBanIDs) = %d, want %d", len(c.SeenBanIDs), seenHistory)
	}
	if c.SeenBanIDs[0] != "b10" {
		t.Errorf("oldest = %q, want b10", c.SeenBanIDs[0])
	}
}
