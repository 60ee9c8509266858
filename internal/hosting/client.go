// Package hosting provides the source-control hosting API client.
//
// All side effects against the hosting repository go through Client. Methods
// never retry internally; retries, if any, belong to the poll loop.
package hosting

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client defines the hosting API operations used by the pipeline.
type Client interface {
	// BranchExists probes for a branch; a 404 maps to (false, nil).
	BranchExists(ctx context.Context, branch string) (bool, error)

	// CreateBranch creates a new ref pointing at the base branch's head.
	CreateBranch(ctx context.Context, branch, baseBranch string) error

	// CommitFile creates or updates a single file in one commit on branch.
	CommitFile(ctx context.Context, branch, path, content, message string) error

	// CreatePullRequest opens a pull request from branch into baseBranch.
	CreatePullRequest(ctx context.Context, branch, title, body, baseBranch string) (int, string, error)

	// AddReviewers requests reviews from the given teams.
	AddReviewers(ctx context.Context, prNumber int, teams []string) error

	// BranchURL renders the human-facing URL of a branch.
	BranchURL(branch string) string
}

// Config holds hosting API connection settings.
type Config struct {
	// APIBaseURL is the REST API root, e.g. https://api.github.com.
	APIBaseURL string
	// HTMLBaseURL is the web UI root used for branch URLs.
	HTMLBaseURL string
	Owner       string
	Repo        string
	Token       string
	// Timeout bounds each API call. Zero means 30s.
	Timeout time.Duration
}

// GitHub implements Client against the GitHub REST API.
type GitHub struct {
	cfg        Config
	httpClient *http.Client
}

// NewGitHub creates a GitHub hosting client.
func NewGitHub(cfg Config) *GitHub {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")
	cfg.HTMLBaseURL = strings.TrimSuffix(cfg.HTMLBaseURL, "/")
	return &GitHub{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// request performs one API call. A non-nil error is always a transport
// failure; HTTP status interpretation is left to the caller.
func (c *GitHub) request(
	ctx context.Context,
	method, path string,
	body interface{},
) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	return resp.StatusCode, respBody, nil
}

func (c *GitHub) apiError(method, path string, status int, body []byte) *APIError {
	return &APIError{Method: method, Path: path, StatusCode: status, Body: string(body)}
}

func (c *GitHub) repoPath(suffix string) string {
	return fmt.Sprintf("/repos/%s/%s%s", c.cfg.Owner, c.cfg.Repo, suffix)
}

// BranchExists probes for a branch; a 404 maps to (false, nil).
func (c *GitHub) BranchExists(ctx context.Context, branch string) (bool, error) {
	path := c.repoPath("/branches/" + url.PathEscape(branch))
	status, body, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	switch {
	case status == http.StatusOK:
		return true, nil
	case status == http.StatusNotFound:
		return false, nil
	default:
		return false, c.apiError(http.MethodGet, path, status, body)
	}
}

// CreateBranch resolves the base branch's current commit and creates a new
// ref pointing at it. Fails if the branch already exists.
func (c *GitHub) CreateBranch(ctx context.Context, branch, baseBranch string) error {
	refPath := c.repoPath("/git/refs/heads/" + url.PathEscape(baseBranch))
	status, body, err := c.request(ctx, http.MethodGet, refPath, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return c.apiError(http.MethodGet, refPath, status, body)
	}

	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	if err := json.Unmarshal(body, &ref); err != nil {
		return fmt.Errorf("decode base ref for %q: %w", baseBranch, err)
	}
	if ref.Object.SHA == "" {
		return fmt.Errorf("base branch %q has no resolvable commit", baseBranch)
	}

	createPath := c.repoPath("/git/refs")
	payload := map[string]string{
		"ref": "refs/heads/" + branch,
		"sha": ref.Object.SHA,
	}
	status, body, err = c.request(ctx, http.MethodPost, createPath, payload)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return c.apiError(http.MethodPost, createPath, status, body)
	}
	return nil
}

// CommitFile creates the file if absent, or updates it using its current
// revision SHA, in a single commit on branch.
func (c *GitHub) CommitFile(ctx context.Context, branch, path, content, message string) error {
	contentsPath := c.repoPath("/contents/" + escapePath(path))
	getPath := contentsPath + "?ref=" + url.QueryEscape(branch)

	status, body, err := c.request(ctx, http.MethodGet, getPath, nil)
	if err != nil {
		return err
	}

	var existingSHA string
	switch status {
	case http.StatusOK:
		var existing struct {
			SHA string `json:"sha"`
		}
		if err := json.Unmarshal(body, &existing); err != nil {
			return fmt.Errorf("decode existing file %q: %w", path, err)
		}
		existingSHA = existing.SHA
	case http.StatusNotFound:
		// New file, no SHA needed.
	default:
		return c.apiError(http.MethodGet, getPath, status, body)
	}

	payload := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  branch,
	}
	if existingSHA != "" {
		payload["sha"] = existingSHA
	}

	status, body, err = c.request(ctx, http.MethodPut, contentsPath, payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return c.apiError(http.MethodPut, contentsPath, status, body)
	}
	return nil
}

// CreatePullRequest opens a pull request from branch into baseBranch and
// returns its number and URL.
func (c *GitHub) CreatePullRequest(
	ctx context.Context,
	branch, title, body, baseBranch string,
) (int, string, error) {
	path := c.repoPath("/pulls")
	payload := map[string]string{
		"title": title,
		"body":  body,
		"head":  branch,
		"base":  baseBranch,
	}
	status, respBody, err := c.request(ctx, http.MethodPost, path, payload)
	if err != nil {
		return 0, "", err
	}
	if status != http.StatusCreated {
		return 0, "", c.apiError(http.MethodPost, path, status, respBody)
	}

	var pr struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return 0, "", fmt.Errorf("decode created pull request: %w", err)
	}
	return pr.Number, pr.HTMLURL, nil
}

// AddReviewers requests reviews from the given teams.
func (c *GitHub) AddReviewers(ctx context.Context, prNumber int, teams []string) error {
	path := c.repoPath(fmt.Sprintf("/pulls/%d/requested_reviewers", prNumber))
	payload := map[string][]string{
		"team_reviewers": teams,
	}
	status, body, err := c.request(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return c.apiError(http.MethodPost, path, status, body)
	}
	return nil
}

// BranchURL renders the human-facing URL of a branch.
func (c *GitHub) BranchURL(branch string) string {
	return fmt.Sprintf("%s/%s/%s/tree/%s", c.cfg.HTMLBaseURL, c.cfg.Owner, c.cfg.Repo, branch)
}

// escapePath escapes each segment of a repository file path, keeping the
// directory separators intact.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
