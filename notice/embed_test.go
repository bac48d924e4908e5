package notice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
)

func TestBanIDFromEmbed(t *testing.T) {
	tests := []struct {
		name    string
		embed   *discordgo.MessageEmbed
		want    string
		wantErr bool
	}{
		{name: "ok", embed: &discordgo.MessageEmbed{Author: &discordgo.MessageEmbedAuthor{URL: BanURL("42")}}, want: "42"},
		{name: "trailing slash", embed: &discordgo.MessageEmbed{Author: &discordgo.MessageEmbedAuthor{URL: BanURL("42") + "/"}}, want: "42"},
		{name: "nil embed", embed: nil, wantErr: true},
		{name: "no author", embed: &discordgo.MessageEmbed{}, wantErr: true},
		{name: "empty url", embed: &discordgo.MessageEmbed{Author: &discordgo.MessageEmbedAuthor{}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BanIDFromEmbed(tt.embed)
			if tt.wantErr {
				if !errors.Is(err, ErrNoticeState) {
					t.Fatalf("error = %v, want ErrNoticeState", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("BanIDFromEmbed() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestAppendEvidence(t *testing.T) {
	first, err := AppendEvidence(PlaceholderEvidence, "https://a.example/1")
	if err != nil {
		t.Fatalf("AppendEvidence() error = %v", err)
	}
	if first != "[Link1](https://a.example/1)" {
		t.Errorf("first = %q", first)
	}

	second, err := AppendEvidence(first, " https://a.example/2 ")
	if err != nil {
		t.Fatalf("AppendEvidence() error = %v", err)
	}
	want := "[Link1](https://a.example/1)\n[Link2](https://a.example/2)"
	if second != want {
		t.Errorf("second = %q, want %q", second, want)
	}

	if got, _ := AppendEvidence("", "https://a.example/3"); got != "[Link1](https://a.example/3)" {
		t.Errorf("empty field = %q", got)
	}

	if _, err := AppendEvidence(first, "   "); err == nil {
		t.Error("blank link should be rejected")
	}

	full := strings.Repeat("x", 1000)
	if _, err := AppendEvidence(full, "https://a.example/long"); !errors.Is(err, ErrNoticeState) {
		t.Errorf("overflow error = %v, want ErrNoticeState", err)
	}
}

func TestEvidenceLinks(t *testing.T) {
	if got := EvidenceLinks(PlaceholderEvidence); got != nil {
		t.Errorf("placeholder links = %v", got)
	}
	value := "[Link1](https://a.example/1)\nnot a link\n[Link2](https://a.example/2)"
	want := []string{"https://a.example/1", "https://a.example/2"}
	if diff := cmp.Diff(want, EvidenceLinks(value)); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestSetFieldMissing(t *testing.T) {
	embed := &discordgo.MessageEmbed{Fields: []*discordgo.MessageEmbedField{{Name: FieldReason, Value: "x"}}}
	if err := SetField(embed, FieldExpires, "y"); !errors.Is(err, ErrNoticeState) {
		t.Errorf("SetField() error = %v, want ErrNoticeState", err)
	}
	if err := SetField(embed, FieldReason, "z"); err != nil {
		t.Fatalf("SetField() error = %v", err)
	}
	if v, _ := FieldValue(embed, FieldReason); v != "z" {
		t.Errorf("FieldValue() = %q", v)
	}
}

func TestCloneEmbedIsIndependent(t *testing.T) {
	orig := Render(sampleBan(), nil, renderNow)
	clone := CloneEmbed(orig)
	if err := SetField(clone, FieldExpires, LabelUnbanned); err != nil {
		t.Fatal(err)
	}
	clone.Author.URL = "changed"

	if v, _ := FieldValue(orig, FieldExpires); v == LabelUnbanned {
		t.Error("editing the clone changed the original field")
	}
	if orig.Author.URL != BanURL("12345") {
		t.Error("editing the clone changed the original author")
	}
}

func TestUpdateEditsOnlyTargetField(t *testing.T) {
	store := newMemoryStore()
	msg, _ := store.Publish(context.Background(), "c1", Render(sampleBan(), nil, renderNow), Controls())
	before, _ := store.Notice(context.Background(), "c1", msg.ID)

	after, err := Update(context.Background(), store, "c1", msg.ID, func(e *discordgo.MessageEmbed) error {
		return SetField(e, FieldExpires, LabelUnbanned)
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	want := CloneEmbed(before)
	SetField(want, FieldExpires, LabelUnbanned)
	if diff := cmp.Diff(want, after); diff != "" {
		t.Errorf("updated notice mismatch (-want +got):\n%s", diff)
	}
	live, _ := store.Notice(context.Background(), "c1", msg.ID)
	if diff := cmp.Diff(after, live); diff != "" {
		t.Errorf("live notice mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateRefusesIdentifyingLinkChange(t *testing.T) {
	store := newMemoryStore()
	msg, _ := store.Publish(context.Background(), "c1", Render(sampleBan(), nil, renderNow), Controls())

	_, err := Update(context.Background(), store, "c1", msg.ID, func(e *discordgo.MessageEmbed) error {
		e.Author.URL = BanURL("999")
		return nil
	})
	if !errors.Is(err, ErrNoticeState) {
		t.Fatalf("Update() error = %v, want ErrNoticeState", err)
	}
	if store.edits != 0 {
		t.Errorf("edits = %d, want 0", store.edits)
	}
}

func TestUpdateMissingIdentifyingLink(t *testing.T) {
	store := newMemoryStore()
	embed := Render(sampleBan(), nil, renderNow)
	embed.Author = nil
	msg, _ := store.Publish(context.Background(), "c1", embed, nil)

	called := false
	_, err := Update(context.Background(), store, "c1", msg.ID, func(e *discordgo.MessageEmbed) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrNoticeState) {
		t.Fatalf("Update() error = %v, want ErrNoticeState", err)
	}
	if called {
		t.Error("mutate should not run on a notice without its identifying link")
	}
}

func TestEvidenceModalRoundTrip(t *testing.T) {
	data := EvidenceModal("c1", "m1")
	channelID, messageID, ok := ParseEvidenceModalID(data.CustomID)
	if !ok || channelID != "c1" || messageID != "m1" {
		t.Errorf("ParseEvidenceModalID(%q) = %q, %q, %v", data.CustomID, channelID, messageID, ok)
	}
	for _, bad := range []string{"other:c1:m1", EvidenceModalPrefix + "c1", EvidenceModalPrefix + ":m1"} {
		if _, _, ok := ParseEvidenceModalID(bad); ok {
			t.Errorf("ParseEvidenceModalID(%q) should fail", bad)
		}
	}
}
