// Test Type: Unit Test
// Description: Tests for catalog search - relevance ranking over asset names and entry ids

package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westonplatter/agentic-prompt-sync/pkg/catalog"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
)

func searchFixture() *catalog.Catalog {
	return &catalog.Catalog{
		Version: catalog.CurrentVersion,
		Entries: []catalog.Entry{
			{ID: "skills:code-review", ManifestEntryID: "skills", Name: "code-review", Kind: manifest.KindAgentSkill},
			{ID: "skills:test-writer", ManifestEntryID: "skills", Name: "test-writer", Kind: manifest.KindAgentSkill},
			{ID: "rules:code-style.mdc", ManifestEntryID: "rules", Name: "code-style.mdc", Kind: manifest.KindCursorRules},
			{ID: "rules:git-workflow.mdc", ManifestEntryID: "rules", Name: "git-workflow.mdc", Kind: manifest.KindCursorRules},
		},
	}
}

func TestSearch_ExactNameHitRanksFirst(t *testing.T) {
	c := searchFixture()

	results := c.Search("code-review", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "code-review", results[0].Entry.Name)
}

func TestSearch_TokensMatchAcrossNames(t *testing.T) {
	c := searchFixture()

	results := c.Search("review code quality", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "code-review", results[0].Entry.Name)
}

func TestSearch_ManifestEntryIDContributes(t *testing.T) {
	c := searchFixture()

	results := c.Search("rules", 5)
	require.NotEmpty(t, results)
	for _, res := range results[:2] {
		assert.Equal(t, "rules", res.Entry.ManifestEntryID)
	}
}

func TestSearch_LimitCapsResults(t *testing.T) {
	c := searchFixture()

	results := c.Search("code", 1)
	assert.Len(t, results, 1)
}

func TestSearch_NoMatch(t *testing.T) {
	c := searchFixture()
	assert.Empty(t, c.Search("kubernetes operator", 5))
}

func TestSearch_EmptyQueryOrLimit(t *testing.T) {
	c := searchFixture()
	assert.Empty(t, c.Search("", 5))
	assert.Empty(t, c.Search("   ", 5))
	assert.Empty(t, c.Search("code", 0))
}

func TestSearch_ScoresAreOrdered(t *testing.T) {
	c := searchFixture()

	results := c.Search("code style", 5)
	require.True(t, len(results) >= 2)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	assert.Equal(t, "code-style.mdc", results[0].Entry.Name)
}
