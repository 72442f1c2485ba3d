package client

import (
	"context"
	"fmt"
	"strings"
)

const DefaultHackerNewsURL = "https://hacker-news.firebaseio.com/v0"

// Item is a Hacker News item. Missing numeric fields decode as zero.
type Item struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	By          string `json:"by"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
}

// Hacker News failure domains. The id list gates the whole news endpoint, while
// item failures only drop single stories, so the two never share a breaker.
var (
	HackerNewsTopStoriesKey = BreakerKey(ProviderHackerNews, "topstories")
	HackerNewsItemKey       = BreakerKey(ProviderHackerNews, "item")
)

// HackerNewsClient reads the Hacker News Firebase API.
type HackerNewsClient struct {
	fetcher Fetcher
	baseURL string
}

// NewHackerNewsClient returns a new HackerNewsClient. An empty baseURL selects DefaultHackerNewsURL.
func NewHackerNewsClient(fetcher Fetcher, baseURL string) *HackerNewsClient {
	if baseURL == "" {
		baseURL = DefaultHackerNewsURL
	}
	return &HackerNewsClient{fetcher: fetcher, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// TopStories returns the current top story ids, best first.
func (c *HackerNewsClient) TopStories(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := c.fetcher.GetJSON(ctx, HackerNewsTopStoriesKey, c.baseURL+"/topstories.json", nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Item returns the item with the given id. Deleted or unknown items come back
// from the API as JSON null and are returned as (nil, nil).
func (c *HackerNewsClient) Item(ctx context.Context, id int64) (*Item, error) {
	var item *Item
	u := fmt.Sprintf("%s/item/%d.json", c.baseURL, id)
	if err := c.fetcher.GetJSON(ctx, HackerNewsItemKey, u, nil, &item); err != nil {
		return nil, err
	}
	return item, nil
}
