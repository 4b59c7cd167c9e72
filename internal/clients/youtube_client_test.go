package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"

	"github.com/spacesedan/commentpulse/internal/models"
)

// The Data API authenticates with a key query parameter; a service built
// with a custom HTTP client must still attach it to every request.
func TestYouTubeRequestsCarryAPIKey(t *testing.T) {
	var gotKey, gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items": []}`)
	}))
	defer server.Close()

	client, err := newYouTubeClient(context.Background(), "test-key", option.WithEndpoint(server.URL))
	if err != nil {
		t.Fatalf("newYouTubeClient: %v", err)
	}

	if _, err := client.Search(context.Background(), "woodworking", 5, models.SearchFilters{}); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotKey != "test-key" {
		t.Fatalf("key query param = %q, want test-key", gotKey)
	}
	if !strings.Contains(gotUserAgent, USER_AGENT) {
		t.Errorf("User-Agent = %q, want it to carry %q", gotUserAgent, USER_AGENT)
	}
}

func TestYouTubeCommentPagesCarryAPIKey(t *testing.T) {
	var gotKeys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKeys = append(gotKeys, r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items": [], "nextPageToken": ""}`)
	}))
	defer server.Close()

	client, err := newYouTubeClient(context.Background(), "test-key", option.WithEndpoint(server.URL))
	if err != nil {
		t.Fatalf("newYouTubeClient: %v", err)
	}

	if _, _, err := client.ListComments(context.Background(), "v1", ""); err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if _, err := client.VideoStats(context.Background(), []string{"v1"}); err != nil {
		t.Fatalf("VideoStats: %v", err)
	}

	if len(gotKeys) != 2 {
		t.Fatalf("server saw %d requests, want 2", len(gotKeys))
	}
	for i, key := range gotKeys {
		if key != "test-key" {
			t.Errorf("request %d key query param = %q, want test-key", i, key)
		}
	}
}
