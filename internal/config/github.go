package config

import "fmt"

// GitHubConfig holds hosting API connection settings.
type GitHubConfig struct {
	// Token is the bearer token used against the REST API.
	Token string
	// Owner is the repository owner (organization or user).
	Owner string
	// Repo is the repository name.
	Repo string
	// BaseBranch is the branch requests branch from and target.
	BaseBranch string
	// APIBaseURL is the REST API root.
	APIBaseURL string
	// HTMLBaseURL is the web UI root used to render branch URLs.
	HTMLBaseURL string
	// ReviewerTeams are requested as reviewers on every pull request.
	// May be empty; assignment is best effort.
	ReviewerTeams []string
}

// LoadGitHubConfigFromEnv loads hosting API configuration from environment variables.
func LoadGitHubConfigFromEnv() GitHubConfig {
	return GitHubConfig{
		Token:         GetEnv("GITHUB_TOKEN", ""),
		Owner:         GetEnv("GITHUB_OWNER", ""),
		Repo:          GetEnv("GITHUB_REPO", ""),
		BaseBranch:    GetEnv("GITHUB_BASE_BRANCH", "main"),
		APIBaseURL:    GetEnv("GITHUB_API_URL", "https://api.github.com"),
		HTMLBaseURL:   GetEnv("GITHUB_HTML_URL", "https://github.com"),
		ReviewerTeams: GetEnvList("GITHUB_REVIEWER_TEAMS", nil),
	}
}

// Validate validates hosting API configuration.
func (c GitHubConfig) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("GITHUB_TOKEN is required")
	}
	if c.Owner == "" {
		return fmt.Errorf("GITHUB_OWNER is required")
	}
	if c.Repo == "" {
		return fmt.Errorf("GITHUB_REPO is required")
	}
	if c.BaseBranch == "" {
		return fmt.Errorf("GITHUB_BASE_BRANCH must not be empty")
	}
	return nil
}
