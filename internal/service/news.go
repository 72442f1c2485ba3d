package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/course-portfolio-api/internal/client"
	"github.com/kjstillabower/course-portfolio-api/internal/models"
	"github.com/kjstillabower/course-portfolio-api/internal/observability"
)

const (
	DefaultNewsLimit = 12
	newsSourceName   = "Hacker News"
	itemURLFormat    = "https://news.ycombinator.com/item?id=%d"
)

// NewsService builds the news feed from Hacker News top stories.
type NewsService struct {
	stories StoryClient
	limit   int
}

// NewNewsService returns a new NewsService. A non-positive limit selects DefaultNewsLimit.
func NewNewsService(stories StoryClient, limit int) *NewsService {
	if limit <= 0 {
		limit = DefaultNewsLimit
	}
	return &NewsService{stories: stories, limit: limit}
}

// GetTopStories returns up to limit articles in top-story order. Failing to list
// the top stories fails the call; a failed or untitled item is dropped on its own.
func (s *NewsService) GetTopStories(ctx context.Context) ([]models.NewsArticle, error) {
	logger := observability.LoggerFromContext(ctx)

	ids, err := s.stories.TopStories(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch top stories: %w", err)
	}
	if len(ids) > s.limit {
		ids = ids[:s.limit]
	}

	// Each goroutine owns one slot, so output order follows ids.
	slots := make([]*models.NewsArticle, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			item, err := s.stories.Item(ctx, id)
			if err != nil {
				observability.NewsItemsDroppedTotal.WithLabelValues("fetch_error").Inc()
				logger.Warn("dropping story", zap.Int64("id", id), zap.Error(err))
				return
			}
			if item == nil || item.Title == "" {
				observability.NewsItemsDroppedTotal.WithLabelValues("missing_title").Inc()
				return
			}
			if item.ID == 0 {
				item.ID = id
			}
			slots[i] = articleFromItem(*item)
		}(i, id)
	}
	wg.Wait()

	articles := make([]models.NewsArticle, 0, len(slots))
	for _, a := range slots {
		if a != nil {
			articles = append(articles, *a)
		}
	}
	return articles, nil
}

func articleFromItem(item client.Item) *models.NewsArticle {
	by := item.By
	if by == "" {
		by = "unknown"
	}
	u := item.URL
	if u == "" {
		u = fmt.Sprintf(itemURLFormat, item.ID)
	}
	return &models.NewsArticle{
		Title:       item.Title,
		Description: fmt.Sprintf("%d points by %s | %d comments", item.Score, by, item.Descendants),
		URL:         u,
		PublishedAt: formatISO(time.Unix(item.Time, 0)),
		Source:      models.NewsSource{Name: newsSourceName},
	}
}
