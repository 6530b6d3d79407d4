// Package github implements the DiffProvider port against a GitHub pull
// request using the go-github library, for reviewing documents that live in a
// remote PR rather than a local checkout.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/efisher/markreview/internal/domain/model"
	"github.com/efisher/markreview/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DiffProvider = (*Provider)(nil)

// Provider serves diff text for the files of one pull request.
type Provider struct {
	gh     *gh.Client
	owner  string
	repo   string
	number int
}

// NewProvider creates a pull-request diff provider with the following
// transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewProvider(token, repoFullName string, number int) (*Provider, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Provider{gh: client, owner: owner, repo: repo, number: number}, nil
}

// NewProviderWithHTTPClient creates a Provider with a custom http.Client and
// base URL. This constructor is intended for testing, allowing injection of
// an httptest server.
func NewProviderWithHTTPClient(httpClient *http.Client, baseURL, repoFullName string, number int) (*Provider, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	client := gh.NewClient(httpClient)
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Provider{gh: client, owner: owner, repo: repo, number: number}, nil
}

// Diff fetches the pull request's unified diff and extracts the section for
// the given path. baseRef is ignored: a PR's base is fixed by the PR itself.
// A path absent from the PR diff reports FileStatusUnchanged with empty text.
func (p *Provider) Diff(ctx context.Context, path, baseRef string) (string, model.FileStatus, error) {
	raw, _, err := p.gh.PullRequests.GetRaw(ctx, p.owner, p.repo, p.number, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return "", "", fmt.Errorf("fetch PR %s/%s#%d diff: %w", p.owner, p.repo, p.number, err)
	}

	section := extractFileSection(raw, path)
	if section == "" {
		return "", model.FileStatusUnchanged, nil
	}

	switch {
	case strings.Contains(section, "new file mode"):
		return section, model.FileStatusNew, nil
	case strings.Contains(section, "deleted file mode"):
		return section, model.FileStatusDeleted, nil
	default:
		return section, model.FileStatusModified, nil
	}
}

// Branch returns the pull request's head branch name.
func (p *Provider) Branch(ctx context.Context) (string, error) {
	pr, _, err := p.gh.PullRequests.Get(ctx, p.owner, p.repo, p.number)
	if err != nil {
		return "", fmt.Errorf("fetch PR %s/%s#%d: %w", p.owner, p.repo, p.number, err)
	}
	return pr.GetHead().GetRef(), nil
}

// extractFileSection returns the single-file portion of a multi-file unified
// diff, from its "diff --git" header up to the next file's header.
func extractFileSection(multiDiff, path string) string {
	header := fmt.Sprintf("diff --git a/%s b/%s", path, path)
	start := strings.Index(multiDiff, header)
	if start < 0 {
		return ""
	}
	rest := multiDiff[start:]
	if end := strings.Index(rest[1:], "\ndiff --git "); end >= 0 {
		rest = rest[:end+2]
	}
	return rest
}

func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository name %q, expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
