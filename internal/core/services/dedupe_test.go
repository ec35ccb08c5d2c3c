package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sharewatch-cli/internal/core/classify"
	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

func testClassifier() *classify.Classifier {
	return classify.New("contoso.com", classify.DefaultMatcher())
}

func record(mod func(*domain.SharingRecord)) domain.SharingRecord {
	r := domain.SharingRecord{
		DriveID:      "d1",
		ItemID:       "f1",
		RiskLevel:    domain.RiskLow,
		Source:       domain.SourceOneDrive,
		ItemPath:     "/notes.txt",
		ItemWebURL:   "https://contoso.com/notes",
		ItemType:     domain.ItemTypeFile,
		SharingType:  domain.SharingUser,
		SharedWith:   "bob@contoso.com",
		AudienceType: domain.AudienceInternal,
		Role:         domain.RoleRead,
	}
	if mod != nil {
		mod(&r)
	}
	return r
}

func TestDeduplicateGroupsByWebURL(t *testing.T) {
	records := []domain.SharingRecord{
		record(nil),
		record(func(r *domain.SharingRecord) {
			r.SharedWith = "carol@contoso.com"
		}),
		record(func(r *domain.SharingRecord) {
			r.ItemID = "f2"
			r.ItemWebURL = "https://contoso.com/other"
			r.ItemPath = "/other.txt"
		}),
	}

	deduped := Deduplicate(records, testClassifier(), DedupOptions{})
	require.Len(t, deduped, 2)

	var notes *domain.FileExposure
	for i := range deduped {
		if deduped[i].ItemPath == "/notes.txt" {
			notes = &deduped[i]
		}
	}
	require.NotNil(t, notes)
	assert.Equal(t, "bob@contoso.com, carol@contoso.com", notes.SharedWith)
	assert.Empty(t, notes.ID, "identifiers are only emitted on request")
}

func TestDeduplicateFallsBackToSourcePath(t *testing.T) {
	records := []domain.SharingRecord{
		record(func(r *domain.SharingRecord) { r.ItemWebURL = "" }),
		record(func(r *domain.SharingRecord) {
			r.ItemWebURL = ""
			r.DriveID = "d2" // same path through another drive
			r.SharedWith = "carol@contoso.com"
		}),
	}

	deduped := Deduplicate(records, testClassifier(), DedupOptions{})
	require.Len(t, deduped, 1)
}

func TestDeduplicateIncludeIDsKeysByItem(t *testing.T) {
	records := []domain.SharingRecord{
		record(func(r *domain.SharingRecord) { r.ItemWebURL = "" }),
		record(func(r *domain.SharingRecord) {
			r.ItemWebURL = ""
			r.DriveID = "d2"
		}),
	}

	deduped := Deduplicate(records, testClassifier(), DedupOptions{IncludeIDs: true})
	require.Len(t, deduped, 2, "identifier mode never collapses across drives")
	assert.Equal(t, "d1:f1", deduped[0].ID)
}

func TestDeduplicateWorstAudienceWins(t *testing.T) {
	records := []domain.SharingRecord{
		record(nil),
		record(func(r *domain.SharingRecord) {
			r.SharedWith = "ex@partner.dk"
			r.AudienceType = domain.AudienceExternal
			r.RiskLevel = domain.RiskHigh
		}),
	}

	deduped := Deduplicate(records, testClassifier(), DedupOptions{})
	require.Len(t, deduped, 1)
	assert.Equal(t, domain.RiskHigh, deduped[0].RiskLevel,
		"the external grant dominates the consolidated row")
	assert.Equal(t, "Internal, External", deduped[0].AudienceTypes)
}

func TestDeduplicateWorstRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  string
	}{
		{"write beats read", []string{domain.RoleRead, domain.RoleWrite}, domain.RoleWrite},
		{"owner counts as write", []string{domain.RoleRead, domain.RoleOwner}, domain.RoleWrite},
		{"read only", []string{domain.RoleRead}, domain.RoleRead},
		{"unrecognised roles", []string{"custom"}, domain.RoleUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, worstRoleOf(tt.roles))
		})
	}
}

func TestDeduplicateTagsTeamsChatFiles(t *testing.T) {
	records := []domain.SharingRecord{
		record(func(r *domain.SharingRecord) {
			r.ItemPath = "/Microsoft Teams-chatfiler/shared.png"
		}),
	}

	deduped := Deduplicate(records, testClassifier(), DedupOptions{TagTeams: true})
	require.Len(t, deduped, 1)
	assert.Equal(t, domain.SourceTeams, deduped[0].Source)

	untagged := Deduplicate(records, testClassifier(), DedupOptions{})
	assert.Equal(t, domain.SourceOneDrive, untagged[0].Source)
}

func TestDeduplicateTeamsTagOnlyForPersonalDrives(t *testing.T) {
	records := []domain.SharingRecord{
		record(func(r *domain.SharingRecord) {
			r.Source = domain.SourceSharePoint
			r.ItemPath = "/Microsoft Teams Chat Files/shared.png"
		}),
	}

	deduped := Deduplicate(records, testClassifier(), DedupOptions{TagTeams: true})
	assert.Equal(t, domain.SourceSharePoint, deduped[0].Source)
}

func TestDeduplicateSortsByScoreDescending(t *testing.T) {
	records := []domain.SharingRecord{
		record(nil),
		record(func(r *domain.SharingRecord) {
			r.ItemID = "f2"
			r.ItemWebURL = "https://contoso.com/public"
			r.ItemPath = "/public.xlsx"
			r.SharingType = domain.SharingLinkAnyone
			r.SharedWith = "anonymous"
			r.AudienceType = domain.AudienceAnonymous
			r.RiskLevel = domain.RiskHigh
		}),
	}

	deduped := Deduplicate(records, testClassifier(), DedupOptions{})
	require.Len(t, deduped, 2)
	assert.Equal(t, "/public.xlsx", deduped[0].ItemPath)
	assert.Greater(t, deduped[0].RiskScore, deduped[1].RiskScore)
	assert.Equal(t, domain.RiskHigh, deduped[0].RiskLevel)
}

func TestDeduplicateRecipientCountFeedsScore(t *testing.T) {
	single := []domain.SharingRecord{record(nil)}
	many := []domain.SharingRecord{
		record(nil),
		record(func(r *domain.SharingRecord) { r.SharedWith = "c1@contoso.com" }),
		record(func(r *domain.SharingRecord) { r.SharedWith = "c2@contoso.com" }),
	}

	one := Deduplicate(single, testClassifier(), DedupOptions{})
	three := Deduplicate(many, testClassifier(), DedupOptions{})
	require.Len(t, one, 1)
	require.Len(t, three, 1)
	assert.Greater(t, three[0].RiskScore, one[0].RiskScore,
		"wider fan-out scores higher for the same file")
}

func TestDeduplicateEmptyInput(t *testing.T) {
	deduped := Deduplicate(nil, testClassifier(), DedupOptions{})
	assert.Empty(t, deduped)
}
