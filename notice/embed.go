package notice

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ErrNoticeState marks a live notice that is missing an element the bot
// relies on, usually after manual edits on the platform.
var ErrNoticeState = errors.New("notice state error")

// maxFieldValue is Discord's limit for an embed field value.
const maxFieldValue = 1024

func noticeStateErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNoticeState, fmt.Sprintf(format, args...))
}

// BanIDFromEmbed recovers the ban id from the notice's identifying link.
func BanIDFromEmbed(embed *discordgo.MessageEmbed) (string, error) {
	if embed == nil {
		return "", noticeStateErr("message has no embed")
	}
	if embed.Author == nil || embed.Author.URL == "" {
		return "", noticeStateErr("could not find ban information in the embed")
	}
	u, err := url.Parse(embed.Author.URL)
	if err != nil {
		return "", noticeStateErr("identifying link %q is not a URL", embed.Author.URL)
	}
	path := strings.TrimRight(u.Path, "/")
	banID := path[strings.LastIndex(path, "/")+1:]
	if banID == "" {
		return "", noticeStateErr("identifying link %q carries no ban id", embed.Author.URL)
	}
	return banID, nil
}

// FieldValue returns the value of the named field.
func FieldValue(embed *discordgo.MessageEmbed, name string) (string, bool) {
	if embed == nil {
		return "", false
	}
	for _, f := range embed.Fields {
		if f != nil && f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// SetField replaces the value of the named field, keeping its position and
// inline flag.
func SetField(embed *discordgo.MessageEmbed, name, value string) error {
	if embed == nil {
		return noticeStateErr("message has no embed")
	}
	for _, f := range embed.Fields {
		if f != nil && f.Name == name {
			f.Value = value
			return nil
		}
	}
	return noticeStateErr("field %q not found", name)
}

// AppendEvidence returns the evidence field value with link added. The
// placeholder is replaced by Link1; otherwise Link{n} is appended after the
// existing lines, which are kept verbatim.
func AppendEvidence(current, link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("evidence link is empty")
	}

	var next string
	if current == PlaceholderEvidence || strings.TrimSpace(current) == "" {
		next = fmt.Sprintf("[Link1](%s)", link)
	} else {
		n := len(strings.Split(current, "\n")) + 1
		next = fmt.Sprintf("%s\n[Link%d](%s)", current, n, link)
	}
	if len(next) > maxFieldValue {
		return "", noticeStateErr("evidence field is full")
	}
	return next, nil
}

// EvidenceLinks lists the links recorded in an evidence field value,
// excluding the placeholder.
func EvidenceLinks(value string) []string {
	if value == PlaceholderEvidence {
		return nil
	}
	var links []string
	for _, line := range strings.Split(value, "\n") {
		open := strings.Index(line, "](")
		if open < 0 || !strings.HasSuffix(line, ")") {
			continue
		}
		links = append(links, line[open+2:len(line)-1])
	}
	return links
}

// CloneEmbed copies an embed deeply enough that edits to its fields do not
// touch the original.
func CloneEmbed(embed *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	if embed == nil {
		return nil
	}
	clone := *embed
	if embed.Author != nil {
		author := *embed.Author
		clone.Author = &author
	}
	if embed.Footer != nil {
		footer := *embed.Footer
		clone.Footer = &footer
	}
	if embed.Thumbnail != nil {
		thumb := *embed.Thumbnail
		clone.Thumbnail = &thumb
	}
	clone.Fields = make([]*discordgo.MessageEmbedField, 0, len(embed.Fields))
	for _, f := range embed.Fields {
		if f == nil {
			continue
		}
		field := *f
		clone.Fields = append(clone.Fields, &field)
	}
	return &clone
}
