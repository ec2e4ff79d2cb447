package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Entity{
		ID:      "docs/readme.md",
		Type:    "file",
		Content: "hello",
		Fields:  map[string]any{"size": 5, "ext": ".md"},
	}
	b := Entity{
		ID:      "docs/readme.md",
		Type:    "file",
		Content: "hello",
		Fields:  map[string]any{"ext": ".md", "size": 5},
	}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintChangesWithContent(t *testing.T) {
	e := Entity{ID: "x", Type: "file", Content: "one"}
	before := e.Fingerprint()
	e.Content = "two"
	assert.NotEqual(t, before, e.Fingerprint())
}

func TestFingerprintChangesWithFields(t *testing.T) {
	e := Entity{ID: "x", Type: "file", Fields: map[string]any{"size": 1}}
	before := e.Fingerprint()
	e.Fields["size"] = 2
	assert.NotEqual(t, before, e.Fingerprint())
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusInProgress.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.True(t, JobStatusCancelled.Terminal())
}

func TestSyncStatsProcessed(t *testing.T) {
	stats := SyncStats{Inserted: 1, Updated: 2, Deleted: 3, Kept: 4, Skipped: 5, Failed: 6}
	assert.Equal(t, int64(21), stats.Processed())
}
