package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
	"github.com/custodia-labs/entsync/internal/logger"
)

// ShortName identifies this source in connections.
const ShortName = "github"

// Entity types this source emits.
const (
	TypeIssue       = "github_issue"
	TypePullRequest = "github_pull_request"
)

// Source streams a repository's issues and pull requests as entities.
type Source struct {
	client *Client
	owner  string
	repo   string
}

var (
	_ driven.Source             = (*Source)(nil)
	_ driven.CapabilityReporter = (*Source)(nil)
)

// NewSource creates a source for the connection.
// The connection config must carry "owner" and "repo".
func NewSource(conn domain.Connection, tokens driven.TokenProvider) (*Source, error) {
	owner := conn.Config["owner"]
	repo := conn.Config["repo"]
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("github connection needs owner and repo: %w", domain.ErrInvalidInput)
	}
	return &Source{
		client: NewClient(tokens),
		owner:  owner,
		repo:   repo,
	}, nil
}

// ShortName returns the source type identifier.
func (s *Source) ShortName() string {
	return ShortName
}

// Capabilities reports what this source supports. The API exposes no change
// feed, so deletions are only found by full-sync reconciliation.
func (s *Source) Capabilities() driven.SourceCapabilities {
	return driven.SourceCapabilities{
		SupportsWatch:    false,
		ReportsDeletions: false,
	}
}

// Validate checks credentials and repository access before any entity moves.
func (s *Source) Validate(ctx context.Context) error {
	if err := s.client.ValidateCredentials(ctx); err != nil {
		return fmt.Errorf("github %s/%s: %w", s.owner, s.repo, err)
	}
	return nil
}

// Generate streams issues then pull requests. The entity channel closes when
// the stream ends; a fatal error arrives on the error channel first.
func (s *Source) Generate(ctx context.Context) (<-chan domain.Entity, <-chan error) {
	entities := make(chan domain.Entity)
	errs := make(chan error, 1)

	go func() {
		defer close(entities)
		defer close(errs)

		if err := s.generateIssues(ctx, entities); err != nil {
			errs <- err
			return
		}
		if err := s.generatePullRequests(ctx, entities); err != nil {
			errs <- err
			return
		}
	}()

	return entities, errs
}

// Close is a no-op; the HTTP client holds no resources worth releasing.
func (s *Source) Close() error {
	return nil
}

func (s *Source) generateIssues(ctx context.Context, out chan<- domain.Entity) error {
	opts := &gh.IssueListByRepoOptions{
		State:       "all",
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	issues, err := s.client.ListIssues(ctx, s.owner, s.repo, opts)
	if err != nil {
		return err
	}
	logger.Debug("github: %d issues in %s/%s", len(issues), s.owner, s.repo)

	for _, issue := range issues {
		// ListByRepo returns pull requests too; those stream separately
		// with richer fields.
		if issue.IsPullRequest() {
			continue
		}
		select {
		case out <- s.issueEntity(issue):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Source) generatePullRequests(ctx context.Context, out chan<- domain.Entity) error {
	opts := &gh.PullRequestListOptions{
		State:       "all",
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	prs, err := s.client.ListPullRequests(ctx, s.owner, s.repo, opts)
	if err != nil {
		return err
	}
	logger.Debug("github: %d pull requests in %s/%s", len(prs), s.owner, s.repo)

	for _, pr := range prs {
		select {
		case out <- s.pullRequestEntity(pr):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Source) issueEntity(issue *gh.Issue) domain.Entity {
	var labels []string
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}

	return domain.Entity{
		ID:      fmt.Sprintf("%s/%s/issues/%d", s.owner, s.repo, issue.GetNumber()),
		Type:    TypeIssue,
		Name:    issue.GetTitle(),
		Content: issueContent(issue.GetTitle(), issue.GetBody()),
		Fields: map[string]any{
			"number":     issue.GetNumber(),
			"state":      issue.GetState(),
			"author":     issue.GetUser().GetLogin(),
			"labels":     strings.Join(labels, ","),
			"comments":   issue.GetComments(),
			"updated_at": issue.GetUpdatedAt().Format(time.RFC3339),
		},
		ObservedAt: time.Now().UTC(),
	}
}

func (s *Source) pullRequestEntity(pr *gh.PullRequest) domain.Entity {
	return domain.Entity{
		ID:      fmt.Sprintf("%s/%s/pulls/%d", s.owner, s.repo, pr.GetNumber()),
		Type:    TypePullRequest,
		Name:    pr.GetTitle(),
		Content: issueContent(pr.GetTitle(), pr.GetBody()),
		Fields: map[string]any{
			"number":     pr.GetNumber(),
			"state":      pr.GetState(),
			"author":     pr.GetUser().GetLogin(),
			"base":       pr.GetBase().GetRef(),
			"head":       pr.GetHead().GetRef(),
			"merged":     pr.GetMerged(),
			"updated_at": pr.GetUpdatedAt().Format(time.RFC3339),
		},
		ObservedAt: time.Now().UTC(),
	}
}

func issueContent(title, body string) string {
	if body == "" {
		return title
	}
	return title + "\n\n" + body
}
