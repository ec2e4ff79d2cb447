package github

import (
	"net/http"
	"testing"
	"time"

	gh "github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

func newTestSource(t *testing.T) *Source {
	t.Helper()
	source, err := NewSource(domain.Connection{
		ShortName: ShortName,
		Config:    map[string]string{"owner": "custodia-labs", "repo": "entsync"},
	}, nil)
	require.NoError(t, err)
	return source
}

func TestNewSourceRequiresOwnerAndRepo(t *testing.T) {
	_, err := NewSource(domain.Connection{Config: map[string]string{"owner": "x"}}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewSource(domain.Connection{Config: map[string]string{"repo": "y"}}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCapabilities(t *testing.T) {
	caps := newTestSource(t).Capabilities()
	assert.False(t, caps.SupportsWatch)
	assert.False(t, caps.ReportsDeletions)
}

func TestIssueEntity(t *testing.T) {
	source := newTestSource(t)

	issue := &gh.Issue{
		Number: gh.Ptr(42),
		Title:  gh.Ptr("Crash on empty config"),
		Body:   gh.Ptr("Steps to reproduce..."),
		State:  gh.Ptr("open"),
		User:   &gh.User{Login: gh.Ptr("octocat")},
		Labels: []*gh.Label{{Name: gh.Ptr("bug")}, {Name: gh.Ptr("p1")}},
	}
	entity := source.issueEntity(issue)

	assert.Equal(t, "custodia-labs/entsync/issues/42", entity.ID)
	assert.Equal(t, TypeIssue, entity.Type)
	assert.Equal(t, "Crash on empty config", entity.Name)
	assert.Contains(t, entity.Content, "Steps to reproduce")
	assert.Equal(t, 42, entity.Fields["number"])
	assert.Equal(t, "octocat", entity.Fields["author"])
	assert.Equal(t, "bug,p1", entity.Fields["labels"])
}

func TestPullRequestEntity(t *testing.T) {
	source := newTestSource(t)

	pr := &gh.PullRequest{
		Number: gh.Ptr(7),
		Title:  gh.Ptr("Add retry logic"),
		State:  gh.Ptr("closed"),
		Merged: gh.Ptr(true),
		User:   &gh.User{Login: gh.Ptr("octocat")},
		Base:   &gh.PullRequestBranch{Ref: gh.Ptr("main")},
		Head:   &gh.PullRequestBranch{Ref: gh.Ptr("retry")},
	}
	entity := source.pullRequestEntity(pr)

	assert.Equal(t, "custodia-labs/entsync/pulls/7", entity.ID)
	assert.Equal(t, TypePullRequest, entity.Type)
	assert.Equal(t, true, entity.Fields["merged"])
	assert.Equal(t, "main", entity.Fields["base"])
}

func TestEntityFingerprintChangesWithState(t *testing.T) {
	source := newTestSource(t)
	issue := &gh.Issue{Number: gh.Ptr(1), Title: gh.Ptr("t"), State: gh.Ptr("open")}

	open := source.issueEntity(issue)
	issue.State = gh.Ptr("closed")
	closed := source.issueEntity(issue)

	assert.NotEqual(t, open.Fingerprint(), closed.Fingerprint())
}

func TestRateLimiterUpdateFromResponse(t *testing.T) {
	limiter := NewRateLimiter()

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set(headerRateRemaining, "42")
	resp.Header.Set(headerRateLimit, "5000")
	resp.Header.Set(headerRateReset, "1900000000")

	limiter.UpdateFromResponse(resp)
	assert.Equal(t, 42, limiter.Remaining())
	assert.Equal(t, time.Unix(1900000000, 0), limiter.ResetTime())
}

func TestRateLimitErrorMessage(t *testing.T) {
	err := &RateLimitError{ResetAt: time.Unix(0, 0).UTC(), Remaining: 0, Limit: 5000}
	assert.Contains(t, err.Error(), "rate limit exhausted")
}
