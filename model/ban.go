package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Entity types used in BattleMetrics relationships and included records.
const (
	EntityPlayer  = "player"
	EntityServer  = "server"
	EntityUser    = "user"
	EntityBanList = "banList"
)

// IdentifierSteamID marks a Steam 64 identifier on a ban.
const IdentifierSteamID = "steamID"

// BanPage is the JSON:API envelope returned by the ban list endpoint.
type BanPage struct {
	Data     []BanRecord     `json:"data"`
	Included []RelatedEntity `json:"included"`
}

// BanDocument is the JSON:API envelope returned for a single ban.
type BanDocument struct {
	Data     BanRecord       `json:"data"`
	Included []RelatedEntity `json:"included"`
}

// BanRecord is a single ban as delivered by BattleMetrics. Included is copied
// from the envelope so a record carries its own side-table.
type BanRecord struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	Attributes    BanAttributes    `json:"attributes"`
	Relationships BanRelationships `json:"relationships"`
	Included      []RelatedEntity  `json:"-"`
}

type BanAttributes struct {
	Timestamp   string       `json:"timestamp"`
	Expires     *string      `json:"expires"`
	Reason      string       `json:"reason"`
	Note        *string      `json:"note"`
	Identifiers []Identifier `json:"identifiers"`
}

// Identifier is one entry of a ban's identifier list. The API returns either
// an object or a bare identifier id; bare ids decode to the zero value.
type Identifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

func (i *Identifier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*i = Identifier{}
		return nil
	}
	var raw struct {
		Type       string          `json:"type"`
		Identifier json.RawMessage `json:"identifier"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.Type = raw.Type
	i.Identifier = rawString(raw.Identifier)
	return nil
}

// rawString renders a JSON scalar as text; steam ids sometimes arrive as numbers.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type BanRelationships struct {
	Player  *Relationship `json:"player,omitempty"`
	Server  *Relationship `json:"server,omitempty"`
	User    *Relationship `json:"user,omitempty"`
	BanList *Relationship `json:"banList,omitempty"`
}

type Relationship struct {
	Data *ResourceRef `json:"data"`
}

type ResourceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// RelatedEntity is a record from the included side-table, joined by (type, id).
type RelatedEntity struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Attributes map[string]interface{} `json:"attributes"`
}

// StringAttribute returns a string attribute, or "" when absent or not a string.
func (e RelatedEntity) StringAttribute(key string) string {
	if e.Attributes == nil {
		return ""
	}
	if v, ok := e.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// RelationshipID returns the related record id for a relationship, or "".
func (r *Relationship) RelationshipID() string {
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.ID
}

// FindIncluded looks up an included entity by type and id.
func (b *BanRecord) FindIncluded(entityType, id string) (RelatedEntity, bool) {
	if id == "" {
		return RelatedEntity{}, false
	}
	for _, inc := range b.Included {
		if inc.Type == entityType && inc.ID == id {
			return inc, true
		}
	}
	return RelatedEntity{}, false
}

// IssuedAt parses the ban timestamp.
func (b *BanRecord) IssuedAt() (time.Time, error) {
	return ParseTimestamp(b.Attributes.Timestamp)
}

// ParseTimestamp parses a BattleMetrics ISO-8601 timestamp.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}
