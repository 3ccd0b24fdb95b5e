package jobs

import (
	"strings"
	"testing"
	"time"

	"github.com/example/foty/internal/models"
)

func TestBuildDigestHTML(t *testing.T) {
	posts := []models.BulletinPost{
		{Title: "Community Garden Opens", Content: "We are proud to announce the opening of our new community garden."},
	}
	events := []models.Event{
		{
			Name:     "Youth Mentorship Day",
			Date:     time.Date(2025, 7, 12, 10, 0, 0, 0, time.UTC),
			Location: "Nairobi Community Hall",
		},
	}

	html := BuildDigestHTML("Jane", posts, events)

	for _, want := range []string{
		"Hi Jane,",
		"Community Garden Opens",
		"Youth Mentorship Day",
		"July 12, 2025",
		"Nairobi Community Hall",
		"New Bulletin Posts",
		"Upcoming Events",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("digest missing %q", want)
		}
	}
}

func TestBuildDigestHTMLTruncatesLongPosts(t *testing.T) {
	long := strings.Repeat("a", 300)
	html := BuildDigestHTML("Jane", []models.BulletinPost{{Title: "T", Content: long}}, nil)

	if strings.Contains(html, long) {
		t.Fatal("post content should be truncated to an excerpt")
	}
	if !strings.Contains(html, strings.Repeat("a", 100)+"...") {
		t.Error("excerpt should keep the first 100 characters with an ellipsis")
	}
}

func TestBuildDigestHTMLEmptySections(t *testing.T) {
	html := BuildDigestHTML("Jane", nil, nil)

	if !strings.Contains(html, "No new bulletin posts this period.") {
		t.Error("missing empty-posts placeholder")
	}
	if !strings.Contains(html, "No new or upcoming events.") {
		t.Error("missing empty-events placeholder")
	}
}
