package domain

import (
	"slices"
	"testing"
)

func TestSplitName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, first, last string
	}{
		{"Ada Lovelace", "Ada", "Lovelace"},
		{"  Jean   Claude Van  Damme ", "Jean", "Claude Van Damme"},
		{"Prince", "Prince", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := SplitName(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)", tt.in, first, last, tt.first, tt.last)
		}
	}
}

func TestClassifySocialLink(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://www.linkedin.com/in/ada": SocialLinkedIn,
		"https://github.com/ada":          SocialGitHub,
		"https://x.com/ada":               SocialX,
		"https://twitter.com/ada":         SocialX,
		"https://bsky.app/profile/ada":    SocialBluesky,
		"https://mastodon.social/@ada":    SocialMastodon,
		"https://ada.dev":                 SocialWebsite,
		"HTTPS://GITHUB.COM/ADA":          SocialGitHub,
	}
	for url, want := range tests {
		if got := ClassifySocialLink(url); got != want {
			t.Errorf("ClassifySocialLink(%q) = %q, want %q", url, got, want)
		}
	}
}

func TestMergeConferenceIDs(t *testing.T) {
	t.Parallel()

	ids := []string{"c1", "c2"}
	got := MergeConferenceIDs(ids, "c3")
	if !slices.Equal(got, []string{"c1", "c2", "c3"}) {
		t.Fatalf("append: got %v", got)
	}
	if !slices.Equal(ids, []string{"c1", "c2"}) {
		t.Fatalf("input mutated: %v", ids)
	}
	if got := MergeConferenceIDs(ids, "c1"); !slices.Equal(got, ids) {
		t.Fatalf("dedup: got %v", got)
	}
	if got := MergeConferenceIDs(nil, "c1"); !slices.Equal(got, []string{"c1"}) {
		t.Fatalf("nil input: got %v", got)
	}
}

func TestFillSpeakerSlots(t *testing.T) {
	t.Parallel()

	slots, dropped := FillSpeakerSlots([]string{"a", "b", "c", "d", "e"})
	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
	if slots != (SpeakerSlots{"a", "b", "c"}) {
		t.Errorf("slots = %v", slots)
	}

	slots, dropped = FillSpeakerSlots([]string{"a"})
	if dropped != 0 || !slices.Equal(slots.IDs(), []string{"a"}) {
		t.Errorf("single: slots=%v dropped=%d", slots, dropped)
	}
}

func TestSearchText(t *testing.T) {
	t.Parallel()

	got := SessionSearchText("Go Generics", "  Deep dive ", "", []string{"Backend"}, []string{"golang"}, []string{"Ada Lovelace"})
	if want := "go generics deep dive backend golang ada lovelace"; got != want {
		t.Errorf("SessionSearchText = %q, want %q", got, want)
	}

	p := &Person{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Speaker: &SpeakerProfile{Company: "ACME"}}
	if got, want := PersonSearchText(p), "ada lovelace ada@example.com acme"; got != want {
		t.Errorf("PersonSearchText = %q, want %q", got, want)
	}
}

func TestPersonClone_IsDeep(t *testing.T) {
	t.Parallel()

	p := &Person{ID: "p1", Speaker: &SpeakerProfile{ConferenceIDs: []string{"c1"}}}
	c := p.Clone()
	c.Speaker.ConferenceIDs[0] = "changed"
	if p.Speaker.ConferenceIDs[0] != "c1" {
		t.Fatal("Clone shares ConferenceIDs backing array")
	}
}
