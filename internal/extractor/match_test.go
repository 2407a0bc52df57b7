package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citia/citewatch/internal/model"
)

func TestMatch(t *testing.T) {
	t.Parallel()

	entity := model.Entity{
		EntityID:   "ent-hendricks",
		EntityName: "Hendricks.ai",
		Domains:    []string{"hendricks.ai"},
		Synonyms:   []string{"Hendricks"},
	}

	tests := []struct {
		name           string
		text           string
		entity         model.Entity
		wantName       int
		wantDomain     int
		wantSynonym    int
		wantFirstIndex int
	}{
		{
			name:           "name once plus domain in url",
			text:           "Hendricks.ai offers AI consulting. See hendricks.ai/docs for details.",
			entity:         entity,
			wantName:       1,
			wantDomain:     1,
			wantFirstIndex: 0,
		},
		{
			name:           "case insensitive",
			text:           "Many recommend HENDRICKS.AI for this.",
			entity:         entity,
			wantName:       1,
			wantFirstIndex: 15,
		},
		{
			name:           "domain embedded in www token still counts as domain",
			text:           "Their site is www.hendricks.ai and nothing else.",
			entity:         entity,
			wantName:       0,
			wantDomain:     1,
			wantFirstIndex: 18,
		},
		{
			name:           "url path does not count as name",
			text:           "Read hendricks.ai/docs/getting-started first.",
			entity:         entity,
			wantName:       0,
			wantDomain:     1,
			wantFirstIndex: 5,
		},
		{
			name:           "synonym as whole word",
			text:           "The Hendricks team published a benchmark.",
			entity:         entity,
			wantSynonym:    1,
			wantFirstIndex: -1,
		},
		{
			name:           "synonym embedded in larger word ignored",
			text:           "The Hendricksons are unrelated.",
			entity:         entity,
			wantFirstIndex: -1,
		},
		{
			name: "name span not recounted for domain or synonym",
			text: "Hendricks.ai",
			entity: model.Entity{
				EntityName: "Hendricks.ai",
				Domains:    []string{"hendricks.ai"},
				Synonyms:   []string{"hendricks.ai"},
			},
			wantName:       1,
			wantFirstIndex: 0,
		},
		{
			name:           "no occurrences",
			text:           "A completely unrelated answer about databases.",
			entity:         entity,
			wantFirstIndex: -1,
		},
		{
			name:           "empty text",
			text:           "",
			entity:         entity,
			wantFirstIndex: -1,
		},
		{
			name: "multiple name occurrences",
			text: "Acme is popular. Acme also ships fast. acme wins.",
			entity: model.Entity{
				EntityName: "Acme",
			},
			wantName:       3,
			wantFirstIndex: 0,
		},
		{
			name: "hyphen glue blocks word match",
			text: "The acme-corp toolkit is separate.",
			entity: model.Entity{
				EntityName: "Acme",
			},
			wantName:       0,
			wantFirstIndex: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := Match(tt.text, tt.entity)
			assert.Equal(t, tt.wantName, result.NameMatches, "name matches")
			assert.Equal(t, tt.wantDomain, result.DomainMatches, "domain matches")
			assert.Equal(t, tt.wantSynonym, result.SynonymMatches, "synonym matches")
			assert.Equal(t, tt.wantFirstIndex, result.FirstNameIndex, "first name index")
			assert.Equal(t, tt.wantName+tt.wantDomain+tt.wantSynonym, result.Total(), "total")
		})
	}
}

func TestMatchDomainOverlapClaimedOnce(t *testing.T) {
	t.Parallel()

	entity := model.Entity{
		EntityName: "Hendricks.ai",
		Domains:    []string{"hendricks.ai"},
	}
	// Two standalone occurrences: the first is claimed by the name class, the
	// second by the domain class. Neither is counted twice.
	result := Match("Hendricks.ai beats hendricks.ai/pricing on clarity.", entity)
	assert.Equal(t, 1, result.NameMatches)
	assert.Equal(t, 1, result.DomainMatches)
	assert.Equal(t, 2, result.Total())
}
