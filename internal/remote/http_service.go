package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/model"
)

// HTTPService talks to the catalogue API over JSON.
type HTTPService struct {
	baseURL *url.URL
	token   string
	client  *http.Client
}

var _ Service = (*HTTPService)(nil)

func NewHTTPService(baseURL, token string, timeout time.Duration) (*HTTPService, error) {
	if baseURL == "" {
		return nil, errors.New("remote base url is empty")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid remote base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported remote url scheme %q", u.Scheme)
	}
	return &HTTPService{
		baseURL: u,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

type detailsEnvelope struct {
	Content     model.Content         `json:"content"`
	CacheUpdate model.DataCacheUpdate `json:"cache_update"`
}

func (s *HTTPService) AllDomains(ctx context.Context) ([]model.Domain, error) {
	var env listEnvelope[model.Domain]
	if err := s.get(ctx, "/domains", nil, &env); err != nil {
		return nil, &model.FetchError{Source: "domains", Err: err}
	}
	return env.Data, nil
}

func (s *HTTPService) AllCategories(ctx context.Context) ([]model.Category, error) {
	var env listEnvelope[model.Category]
	if err := s.get(ctx, "/categories", nil, &env); err != nil {
		return nil, &model.FetchError{Source: "categories", Err: err}
	}
	return env.Data, nil
}

func (s *HTTPService) ContentDetails(ctx context.Context, id int) (model.Content, model.DataCacheUpdate, error) {
	var env detailsEnvelope
	if err := s.get(ctx, "/contents/"+strconv.Itoa(id), nil, &env); err != nil {
		return model.Content{}, model.DataCacheUpdate{}, &model.FetchError{Source: fmt.Sprintf("content %d", id), Err: err}
	}
	// the detail batch always carries the content itself
	update := env.CacheUpdate
	if !containsContent(update.Contents, env.Content.ID) {
		update.Contents = append(update.Contents, env.Content)
	}
	return env.Content, update, nil
}

func (s *HTTPService) AllContents(ctx context.Context, params PageParams) (ContentsPage, error) {
	query := url.Values{}
	if params.Number > 0 {
		query.Set("page[number]", strconv.Itoa(params.Number))
	}
	if params.Size > 0 {
		query.Set("page[size]", strconv.Itoa(params.Size))
	}

	var page ContentsPage
	if err := s.get(ctx, "/contents", query, &page); err != nil {
		return ContentsPage{}, &model.FetchError{Source: "contents", Err: err}
	}
	return page, nil
}

func (s *HTTPService) get(ctx context.Context, path string, query url.Values, dest any) error {
	u := *s.baseURL
	u.Path = u.Path + path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	logger.WithComponent("remote").Debugf("GET %s", u.Redacted())
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", path, model.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrDecode, path, err)
	}
	return nil
}

func containsContent(contents []model.Content, id int) bool {
	for _, c := range contents {
		if c.ID == id {
			return true
		}
	}
	return false
}
