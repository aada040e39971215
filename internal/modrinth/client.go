package modrinth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"voxel-launcher/internal/models"
)

const (
	DefaultBaseURL = "https://api.modrinth.com/v2"
	defaultLimit   = 20
	requestTimeout = 15 * time.Second
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("mod repository returned %d", e.StatusCode)
	}
	return fmt.Sprintf("mod repository returned %d: %s", e.StatusCode, body)
}

// Client talks to the Modrinth v2 REST API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func NewClient(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: requestTimeout},
	}
}

// SearchQuery describes a project search. Empty filters are omitted.
type SearchQuery struct {
	Query        string
	GameVersions []string
	Loader       string
	Limit        int
	Offset       int
	Index        string
}

type searchResponse struct {
	Hits      []models.SearchHit `json:"hits"`
	TotalHits int                `json:"total_hits"`
}

// Facets builds the facet filter: OR within an inner list, AND across lists.
func (q SearchQuery) Facets() string {
	facets := [][]string{{"project_type:mod"}}
	if len(q.GameVersions) > 0 {
		versions := make([]string, 0, len(q.GameVersions))
		for _, v := range q.GameVersions {
			versions = append(versions, "versions:"+v)
		}
		facets = append(facets, versions)
	}
	if q.Loader != "" {
		facets = append(facets, []string{"categories:" + q.Loader})
	}
	data, _ := json.Marshal(facets)
	return string(data)
}

func (c *Client) Search(ctx context.Context, q SearchQuery) ([]models.SearchHit, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	params := url.Values{}
	params.Set("query", q.Query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("facets", q.Facets())
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Index != "" {
		params.Set("index", q.Index)
	}

	var resp searchResponse
	if err := c.getJSON(ctx, "/search", params, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", q.Query, err)
	}
	return resp.Hits, nil
}

// Project fetches a project by id or slug.
func (c *Client) Project(ctx context.Context, idOrSlug string) (*models.Project, error) {
	var project models.Project
	if err := c.getJSON(ctx, "/project/"+url.PathEscape(idOrSlug), nil, &project); err != nil {
		return nil, fmt.Errorf("get project %s: %w", idOrSlug, err)
	}
	return &project, nil
}

// Versions lists a project's versions, optionally filtered by game version and loader.
func (c *Client) Versions(ctx context.Context, projectID string, gameVersions []string, loader string) ([]models.Version, error) {
	params := url.Values{}
	if len(gameVersions) > 0 {
		data, _ := json.Marshal(gameVersions)
		params.Set("game_versions", string(data))
	}
	if loader != "" {
		data, _ := json.Marshal([]string{loader})
		params.Set("loaders", string(data))
	}

	var versions []models.Version
	if err := c.getJSON(ctx, "/project/"+url.PathEscape(projectID)+"/version", params, &versions); err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", projectID, err)
	}
	return versions, nil
}

type updateRequest struct {
	Hashes       []string `json:"hashes"`
	Algorithm    string   `json:"algorithm"`
	Loaders      []string `json:"loaders,omitempty"`
	GameVersions []string `json:"game_versions,omitempty"`
}

// LatestVersionsByHash asks for the newest version of every file identified by
// its sha1. Unknown hashes are absent from the result.
func (c *Client) LatestVersionsByHash(ctx context.Context, hashes, loaders, gameVersions []string) (map[string]models.Version, error) {
	body := updateRequest{
		Hashes:       hashes,
		Algorithm:    "sha1",
		Loaders:      loaders,
		GameVersions: gameVersions,
	}

	result := make(map[string]models.Version)
	if err := c.postJSON(ctx, "/version_files/update", body, &result); err != nil {
		return nil, fmt.Errorf("bulk update lookup: %w", err)
	}
	return result, nil
}

// Get performs a GET against an absolute URL with the client's User-Agent.
// The caller closes the body.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.download().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return resp, nil
}

// download is the client used for file transfers, which may take longer
// than an API call.
func (c *Client) download() *http.Client {
	return &http.Client{Transport: c.http.Transport}
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
