// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr      string
	DBPath          string
	RepoDir         string
	BaseRef         string
	ShowLineNumbers bool
	GitHubToken     string
	GitHubRepo      string
	GitHubPR        int
}

// HasGitHubSource returns true when token, repository, and PR number are all
// set. Used by the composition root to decide between the GitHub pull request
// diff provider and the local git provider.
func (c *Config) HasGitHubSource() bool {
	return c.GitHubToken != "" && c.GitHubRepo != "" && c.GitHubPR > 0
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional. Defaults: MARKREVIEW_LISTEN_ADDR (127.0.0.1:8080),
// MARKREVIEW_DB_PATH (markreview.db), MARKREVIEW_REPO_DIR (.), MARKREVIEW_BASE_REF
// (HEAD), MARKREVIEW_SHOW_LINE_NUMBERS (true). The GitHub source variables
// (MARKREVIEW_GITHUB_TOKEN, MARKREVIEW_GITHUB_REPO, MARKREVIEW_GITHUB_PR) switch
// diffing from the local working tree to a pull request; they take effect only
// when all three are set.
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("MARKREVIEW_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "markreview.db"
	if v, ok := os.LookupEnv("MARKREVIEW_DB_PATH"); ok {
		dbPath = v
	}

	repoDir := "."
	if v, ok := os.LookupEnv("MARKREVIEW_REPO_DIR"); ok {
		repoDir = v
	}

	baseRef := "HEAD"
	if v, ok := os.LookupEnv("MARKREVIEW_BASE_REF"); ok {
		baseRef = v
	}

	showLineNumbers := true
	if v, ok := os.LookupEnv("MARKREVIEW_SHOW_LINE_NUMBERS"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("MARKREVIEW_SHOW_LINE_NUMBERS has invalid bool %q: %w", v, err)
		}
		showLineNumbers = parsed
	}

	githubPR := 0
	if v, ok := os.LookupEnv("MARKREVIEW_GITHUB_PR"); ok && v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("MARKREVIEW_GITHUB_PR has invalid PR number %q", v)
		}
		githubPR = parsed
	}

	return &Config{
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
		RepoDir:         repoDir,
		BaseRef:         baseRef,
		ShowLineNumbers: showLineNumbers,
		GitHubToken:     os.Getenv("MARKREVIEW_GITHUB_TOKEN"),
		GitHubRepo:      os.Getenv("MARKREVIEW_GITHUB_REPO"),
		GitHubPR:        githubPR,
	}, nil
}
