package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/post"
	"github.com/mmcdole/gofeed"
)

func TestFeedHandler_ParsesAsRSS(t *testing.T) {
	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	svc := &mockPostService{
		listFn: func(context.Context) ([]post.Summary, error) {
			return []post.Summary{
				{
					PostWithAuthor: model.PostWithAuthor{
						Post:       model.Post{ID: "p2", Title: "Second & newest", CreatedAt: created.Add(time.Hour)},
						AuthorName: "bob",
					},
					Excerpt: "second excerpt",
				},
				{
					PostWithAuthor: model.PostWithAuthor{
						Post:       model.Post{ID: "p1", Title: "First", CreatedAt: created},
						AuthorName: "alice",
					},
					Excerpt: "first",
				},
			}, nil
		},
	}
	h := NewFeedHandler(svc, "https://board.example.com/")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/feed.xml", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/rss+xml; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	if err != nil {
		t.Fatalf("failed to parse feed: %v\n%s", err, rec.Body.String())
	}
	if feed.FeedType != "rss" {
		t.Errorf("FeedType = %q, want rss", feed.FeedType)
	}
	if feed.Link != "https://board.example.com/posts" {
		t.Errorf("Link = %q", feed.Link)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(feed.Items))
	}

	first := feed.Items[0]
	if first.Title != "Second & newest" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Link != "https://board.example.com/posts/p2" {
		t.Errorf("Link = %q", first.Link)
	}
	if first.GUID != first.Link {
		t.Errorf("GUID = %q, want %q", first.GUID, first.Link)
	}
	if first.Description != "second excerpt" {
		t.Errorf("Description = %q", first.Description)
	}
	if first.PublishedParsed == nil || !first.PublishedParsed.Equal(created.Add(time.Hour)) {
		t.Errorf("Published = %v", first.PublishedParsed)
	}
}

func TestFeedHandler_Empty(t *testing.T) {
	h := NewFeedHandler(&mockPostService{}, "http://localhost:3000")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/feed.xml", nil))

	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	if err != nil {
		t.Fatalf("failed to parse feed: %v", err)
	}
	if len(feed.Items) != 0 {
		t.Errorf("items = %d, want 0", len(feed.Items))
	}
}

func TestFeedHandler_ListError(t *testing.T) {
	svc := &mockPostService{
		listFn: func(context.Context) ([]post.Summary, error) { return nil, errors.New("db down") },
	}
	h := NewFeedHandler(svc, "http://localhost:3000")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/feed.xml", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
