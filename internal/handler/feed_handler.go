package handler

import (
	"context"
	"encoding/xml"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/postboard/internal/post"
)

// フィードに含める最大件数
const feedMaxItems = 50

// PostLister は投稿一覧を取得するインターフェース。
type PostLister interface {
	List(ctx context.Context) ([]post.Summary, error)
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// FeedHandler は投稿のRSS 2.0フィードを配信する。
type FeedHandler struct {
	posts   PostLister
	baseURL string
}

// NewFeedHandler はFeedHandlerを生成する。baseURLは投稿リンクの生成に使用する。
func NewFeedHandler(posts PostLister, baseURL string) *FeedHandler {
	return &FeedHandler{
		posts:   posts,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ServeHTTP は新しい順に投稿を並べたRSSを返す。
// GET /posts/feed.xml
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		slog.Error("failed to list posts for feed", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if len(posts) > feedMaxItems {
		posts = posts[:feedMaxItems]
	}

	doc := rssDocument{
		Version: "2.0",
		Channel: rssChannel{
			Title:       "postboard",
			Link:        h.baseURL + "/posts",
			Description: "Latest posts on postboard",
			Items:       make([]rssItem, 0, len(posts)),
		},
	}
	if len(posts) > 0 {
		doc.Channel.LastBuildDate = posts[0].CreatedAt.UTC().Format(time.RFC1123Z)
	}

	for _, p := range posts {
		link := h.baseURL + "/posts/" + p.ID
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			Title:       p.Title,
			Link:        link,
			Description: p.Excerpt,
			GUID:        rssGUID{IsPermaLink: true, Value: link},
			PubDate:     p.CreatedAt.UTC().Format(time.RFC1123Z),
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		slog.Error("failed to encode feed", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	w.Write(out)
}
