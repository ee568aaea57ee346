package services

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"

	"foozadmin/internal/api"
	"foozadmin/internal/logging"
	"foozadmin/internal/models"
	"foozadmin/internal/validation"
	"foozadmin/pkg/rabbitmq"

	"github.com/sirupsen/logrus"
)

const (
	DefaultMediaPage  = 1
	DefaultMediaLimit = 20
)

// MediaQuery selects a page of the media library. An empty Type lists every
// type; zero Page and Limit take the defaults.
type MediaQuery struct {
	Type  models.MediaType
	Page  int
	Limit int
}

// MediaService manages uploaded assets. Callers invalidate their own cached
// listings after mutations.
type MediaService struct {
	client    RESTClient
	publisher ChangePublisher
	log       *logrus.Entry
}

// NewMediaService creates a new MediaService. publisher may be nil.
func NewMediaService(client RESTClient, publisher ChangePublisher, log *logrus.Entry) *MediaService {
	if log == nil {
		log = logging.Discard()
	}
	return &MediaService{client: client, publisher: publisher, log: log}
}

// GetAll fetches one page of media.
func (s *MediaService) GetAll(ctx context.Context, q MediaQuery) (*models.PaginatedMedia, error) {
	if q.Type != "" && !q.Type.Valid() {
		return nil, &validation.ValidationError{Violations: []validation.FieldViolation{
			{Field: "type", Message: "must be IMAGE or GLB"},
		}}
	}
	if q.Page < 1 {
		q.Page = DefaultMediaPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultMediaLimit
	}

	params := url.Values{}
	if q.Type != "" {
		params.Set("type", string(q.Type))
	}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))

	var page models.PaginatedMedia
	if err := s.client.Get(ctx, "/media", params, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []models.MediaFile{}
	}
	return &page, nil
}

// Upload sends one file and returns the created record.
func (s *MediaService) Upload(ctx context.Context, name string, content io.Reader) (*models.MediaFile, error) {
	name = strings.TrimSpace(name)
	if name == "" || content == nil {
		return nil, &validation.ValidationError{Violations: []validation.FieldViolation{
			{Field: "file", Message: "is required"},
		}}
	}

	var file models.MediaFile
	err := s.client.Upload(ctx, "/media/upload", api.FilePart{FieldName: "file", FileName: name, Content: content}, nil, &file)
	if err != nil {
		return nil, err
	}
	announce(s.publisher, s.log, rabbitmq.ChangeEvent{Kind: rabbitmq.KindMediaUploaded, Entity: "media", IDs: []string{file.ID}})
	return &file, nil
}

// Delete removes one file.
func (s *MediaService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &validation.ValidationError{Violations: []validation.FieldViolation{
			{Field: "id", Message: "is required"},
		}}
	}
	if err := s.client.Delete(ctx, "/media/"+url.PathEscape(id), nil); err != nil {
		return err
	}
	announce(s.publisher, s.log, rabbitmq.ChangeEvent{Kind: rabbitmq.KindMediaDeleted, Entity: "media", IDs: []string{id}})
	return nil
}

// DeleteMultiple removes every file in ids with a single request. The
// backend applies it all-or-nothing; there is no partial result.
func (s *MediaService) DeleteMultiple(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return &validation.ValidationError{Violations: []validation.FieldViolation{
			{Field: "ids", Message: "must contain at least 1 item(s)"},
		}}
	}
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	if err := s.client.Post(ctx, "/media/delete-multiple", body, nil); err != nil {
		return err
	}
	announce(s.publisher, s.log, rabbitmq.ChangeEvent{Kind: rabbitmq.KindMediaDeleted, Entity: "media", IDs: ids})
	return nil
}
