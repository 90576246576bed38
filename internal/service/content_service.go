package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"manara/internal/model"
	"manara/internal/repository"
)

// ErrMissingTitle is returned when a content item has neither title filled in
var ErrMissingTitle = errors.New("at least one title (ar or en) is required")

const newsFeedLimit = 20

// ContentService covers the thin content surfaces around the
// challenges: lectures, the news feed, and the resource library.
type ContentService struct {
	lectures  repository.LectureRepo
	news      repository.NewsRepo
	resources repository.ResourceRepo
}

// NewContentService creates a new content service
func NewContentService(lectures repository.LectureRepo, news repository.NewsRepo, resources repository.ResourceRepo) *ContentService {
	return &ContentService{lectures: lectures, news: news, resources: resources}
}

// ListLectures returns all lectures, newest first
func (s *ContentService) ListLectures(ctx context.Context) ([]*model.Lecture, error) {
	return s.lectures.List(ctx)
}

// CreateLecture stores a new lecture record
func (s *ContentService) CreateLecture(ctx context.Context, role model.Role, userID string, lecture *model.Lecture) (*model.Lecture, error) {
	if !role.CanEditQuestions() {
		return nil, ErrForbidden
	}
	if err := requireTitle(lecture.TitleAr, lecture.TitleEn); err != nil {
		return nil, err
	}
	lecture.CreatedBy = userID
	lecture.CreatedAt = time.Now().UTC()
	if err := s.lectures.Create(ctx, lecture); err != nil {
		return nil, fmt.Errorf("failed to create lecture: %w", err)
	}
	return lecture, nil
}

// DeleteLecture removes a lecture record
func (s *ContentService) DeleteLecture(ctx context.Context, role model.Role, id string) error {
	if !role.CanEditQuestions() {
		return ErrForbidden
	}
	return s.lectures.Delete(ctx, id)
}

// ListNews returns the recent feed entries
func (s *ContentService) ListNews(ctx context.Context) ([]*model.NewsItem, error) {
	return s.news.List(ctx, newsFeedLimit)
}

// CreateNews publishes a feed entry
func (s *ContentService) CreateNews(ctx context.Context, role model.Role, userID string, item *model.NewsItem) (*model.NewsItem, error) {
	if !role.CanEditQuestions() {
		return nil, ErrForbidden
	}
	if err := requireTitle(item.TitleAr, item.TitleEn); err != nil {
		return nil, err
	}
	item.CreatedBy = userID
	item.CreatedAt = time.Now().UTC()
	if err := s.news.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create news item: %w", err)
	}
	return item, nil
}

// DeleteNews removes a feed entry
func (s *ContentService) DeleteNews(ctx context.Context, role model.Role, id string) error {
	if !role.CanEditQuestions() {
		return ErrForbidden
	}
	return s.news.Delete(ctx, id)
}

// ListResources returns library entries, optionally filtered by category
func (s *ContentService) ListResources(ctx context.Context, category string) ([]*model.Resource, error) {
	return s.resources.List(ctx, category)
}

// CreateResource stores a library entry
func (s *ContentService) CreateResource(ctx context.Context, role model.Role, userID string, res *model.Resource) (*model.Resource, error) {
	if !role.CanEditQuestions() {
		return nil, ErrForbidden
	}
	if err := requireTitle(res.TitleAr, res.TitleEn); err != nil {
		return nil, err
	}
	res.CreatedBy = userID
	res.CreatedAt = time.Now().UTC()
	if err := s.resources.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// DeleteResource removes a library entry
func (s *ContentService) DeleteResource(ctx context.Context, role model.Role, id string) error {
	if !role.CanEditQuestions() {
		return ErrForbidden
	}
	return s.resources.Delete(ctx, id)
}

func requireTitle(ar, en string) error {
	if strings.TrimSpace(ar) == "" && strings.TrimSpace(en) == "" {
		return ErrMissingTitle
	}
	return nil
}
