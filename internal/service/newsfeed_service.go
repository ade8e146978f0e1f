package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"newsfeed/internal/domain"
	"newsfeed/internal/logger"
	"newsfeed/internal/repository"
	"newsfeed/internal/rss"

	"github.com/gorilla/feeds"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterFavorites Filter = "favorites"
)

var ErrUnknownFilter = errors.New("unknown newsfeed filter")

func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case FilterAll, FilterFavorites:
		return Filter(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

// SourceExport is the portable form of a source used by import and export.
type SourceExport struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type NewsfeedService struct {
	sourceRepo  repository.SourceRepository
	itemRepo    repository.ItemRepository
	commentRepo repository.CommentRepository
	poller      *rss.Poller
}

func NewNewsfeedService(
	sourceRepo repository.SourceRepository,
	itemRepo repository.ItemRepository,
	commentRepo repository.CommentRepository,
	poller *rss.Poller,
) *NewsfeedService {
	return &NewsfeedService{
		sourceRepo:  sourceRepo,
		itemRepo:    itemRepo,
		commentRepo: commentRepo,
		poller:      poller,
	}
}

// Newsfeed polls every source owned by userID and then lists the stored
// items. The item list is shared by all users.
func (s *NewsfeedService) Newsfeed(ctx context.Context, userID int, filter Filter) ([]domain.Item, error) {
	ids, err := s.sourceRepo.IDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}

	if len(ids) > 0 {
		report := s.poller.PollAll(ctx, ids)
		if len(report.Failures) > 0 {
			logger.Warnf("Newsfeed for user %d: %d of %d sources failed (run %s)",
				userID, len(report.Failures), len(ids), report.RunID)
		}
	}

	items, err := s.itemRepo.List(ctx, filter == FilterFavorites)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	return items, nil
}

func (s *NewsfeedService) ToggleFavorite(ctx context.Context, itemID int) (bool, error) {
	favorite, err := s.itemRepo.ToggleFavorite(ctx, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return favorite, nil
}

func (s *NewsfeedService) ItemWithComments(ctx context.Context, itemID int) (*domain.Item, []domain.Comment, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get item: %w", err)
	}

	comments, err := s.commentRepo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get comments: %w", err)
	}
	return item, comments, nil
}

func (s *NewsfeedService) AddComment(ctx context.Context, itemID, userID int, body string) (*domain.Comment, error) {
	comment := &domain.Comment{
		ItemID: itemID,
		UserID: userID,
		Body:   strings.TrimSpace(body),
	}
	if err := comment.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.itemRepo.GetByID(ctx, itemID); err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// LikeComment increments the like counter. Any signed-in user may like any
// comment, including repeatedly.
func (s *NewsfeedService) LikeComment(ctx context.Context, commentID int) (*domain.Comment, error) {
	comment, err := s.commentRepo.Like(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to like comment: %w", err)
	}
	return comment, nil
}

// ListSources returns the sources of every user.
func (s *NewsfeedService) ListSources(ctx context.Context) ([]domain.Source, error) {
	sources, err := s.sourceRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	return sources, nil
}

func (s *NewsfeedService) AddSource(ctx context.Context, userID int, name, url string) (*domain.Source, error) {
	source := &domain.Source{
		UserID: userID,
		Name:   strings.TrimSpace(name),
		URL:    strings.TrimSpace(url),
	}
	if err := source.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.sourceRepo.ExistsByURL(ctx, userID, source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check source existence: %w", err)
	}
	if exists {
		return nil, domain.ErrSourceExists
	}

	if err := s.sourceRepo.Create(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	logger.Infof("User %d added source %s", userID, source)
	return source, nil
}

func (s *NewsfeedService) DeleteSource(ctx context.Context, sourceID, userID int) error {
	if err := s.sourceRepo.Delete(ctx, sourceID, userID); err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	return nil
}

func (s *NewsfeedService) ExportSources(ctx context.Context, userID int) ([]SourceExport, error) {
	sources, err := s.sourceRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to export sources: %w", err)
	}

	out := make([]SourceExport, 0, len(sources))
	for _, src := range sources {
		out = append(out, SourceExport{Name: src.Name, URL: src.URL})
	}
	return out, nil
}

// ImportSources adds each entry that is valid and not already present. It
// returns the number added and a message per skipped entry.
func (s *NewsfeedService) ImportSources(ctx context.Context, userID int, entries []SourceExport) (int, []string) {
	added := 0
	var problems []string

	for _, entry := range entries {
		if _, err := s.AddSource(ctx, userID, entry.Name, entry.URL); err != nil {
			problems = append(problems, fmt.Sprintf("%s (%s): %v", entry.Name, entry.URL, err))
			continue
		}
		added++
	}

	logger.Infof("Imported %d of %d sources for user %d", added, len(entries), userID)
	return added, problems
}

// FavoritesFeed renders the favorite items as a syndication feed rooted at
// baseURL.
func (s *NewsfeedService) FavoritesFeed(ctx context.Context, baseURL string) (*feeds.Feed, error) {
	items, err := s.itemRepo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}

	baseURL = strings.TrimRight(baseURL, "/")
	feed := &feeds.Feed{
		Title:       "Newsfeed favorites",
		Link:        &feeds.Link{Href: baseURL + "/newsfeed/favorites/"},
		Description: "Items marked as favorite",
		Created:     time.Now().UTC(),
	}

	for _, item := range items {
		link := item.Link
		if link == "" {
			link = baseURL + "/newsfeed/" + strconv.Itoa(item.ID) + "/comments/"
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          strconv.Itoa(item.ID),
			Title:       item.Title,
			Link:        &feeds.Link{Href: link},
			Description: PlainText(item.Summary, 0),
			Author:      &feeds.Author{Name: item.SourceName},
			Created:     item.CreatedAt,
		})
	}
	return feed, nil
}
