package dedup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
	"github.com/iraqrahomi/iraqnews-bot/pkg/fingerprint"
	"github.com/iraqrahomi/iraqnews-bot/pkg/repository"
)

func setupDetector(t *testing.T) (*Detector, *repository.Repositories) {
	t.Helper()
	repos, err := repository.NewRepositories(context.Background(), repository.Config{DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return NewDetector(repos.Item, 0, 0), repos
}

func persist(t *testing.T, repos *repository.Repositories, title, url, content string) {
	t.Helper()
	contentHash := fingerprint.Hash(title)
	if content != "" {
		contentHash = fingerprint.Hash(content)
	}
	rec := &domain.Record{
		Source:      "test",
		Title:       title,
		URL:         fingerprint.CanonicalURL(url),
		TitleHash:   fingerprint.Hash(title),
		ContentHash: contentHash,
	}
	require.NoError(t, repos.Item.CreateItem(context.Background(), rec))
}

func TestDetector_ExactURL(t *testing.T) {
	detector, repos := setupDetector(t)
	ctx := context.Background()

	persist(t, repos, "Council approves water project", "https://example.com/a?utm_source=x&id=1", "body text")

	// same canonical url with different tracking params is a duplicate
	dup, err := detector.IsDuplicate(ctx, "completely different headline", "https://example.com/a?utm_source=OTHER&id=1", "other body")
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestDetector_ExactTitleAndContentHash(t *testing.T) {
	detector, repos := setupDetector(t)
	ctx := context.Background()

	persist(t, repos, "Road reopened after repairs", "https://example.com/one", "full article body")

	dup, err := detector.IsDuplicate(ctx, "Road reopened after repairs", "https://other.com/two", "")
	require.NoError(t, err)
	assert.True(t, dup, "matched by title fingerprint")

	dup, err = detector.IsDuplicate(ctx, "An unrelated short headline", "https://other.com/three", "full article body")
	require.NoError(t, err)
	assert.True(t, dup, "matched by content fingerprint")
}

func TestDetector_FuzzyTitle(t *testing.T) {
	detector, repos := setupDetector(t)
	ctx := context.Background()

	persist(t, repos, "Provincial council announces new infrastructure budget", "https://example.com/b1", "")

	// trailing ellipsis only, similarity well above the threshold
	dup, err := detector.IsDuplicate(ctx, "Provincial council announces new infrastructure budget…", "https://other.com/b2", "different body entirely")
	require.NoError(t, err)
	assert.True(t, dup)

	// clearly below the threshold
	dup, err = detector.IsDuplicate(ctx, "Heavy rain expected across the region tomorrow", "https://other.com/b3", "rain body")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestDetector_WindowBounded(t *testing.T) {
	repos, err := repository.NewRepositories(context.Background(), repository.Config{DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	detector := NewDetector(repos.Item, 0.92, 2) // tiny window
	ctx := context.Background()

	persist(t, repos, "Old headline pushed out of the recency window", "https://example.com/c1", "")
	persist(t, repos, "Filler one", "https://example.com/c2", "filler body one")
	persist(t, repos, "Filler two", "https://example.com/c3", "filler body two")

	// near-identical to the oldest title, but it is outside the window and
	// all fingerprints differ, so it passes through
	dup, err := detector.IsDuplicate(ctx, "Old headline pushed out of the recency window!", "https://other.com/c4", "fresh body")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("same", "same"), 0.001)
	assert.InDelta(t, 1.0, Similarity("  padded  ", "padded"), 0.001)
	assert.Zero(t, Similarity("", "anything"))
	assert.Zero(t, Similarity("anything", ""))
	assert.Greater(t, Similarity("headline about a thing", "headline about a thing…"), 0.92)
	assert.Less(t, Similarity("first headline", "totally unrelated news"), 0.5)
}
