package services

import (
	"sort"
	"strings"

	"github.com/custodia-labs/sharewatch-cli/internal/core/classify"
	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

// audiencePriority orders audience types worst-first for consolidation.
var audiencePriority = map[domain.AudienceType]int{
	domain.AudienceAnonymous: 0,
	domain.AudienceExternal:  1,
	domain.AudienceGuest:     2,
	domain.AudienceInternal:  3,
	domain.AudienceUnknown:   4,
}

// riskRank orders risk levels worst-first for sorting.
var riskRank = map[domain.RiskLevel]int{
	domain.RiskHigh:   0,
	domain.RiskMedium: 1,
	domain.RiskLow:    2,
}

// DedupOptions control deduplication output.
type DedupOptions struct {
	// IncludeIDs keys groups by (drive id, item id) and emits the
	// composite identifier, for remediation callers. Without it,
	// groups key on web URL (or source and path when absent), which
	// collapses the same file reached through different drives.
	IncludeIDs bool

	// TagTeams relabels personal-drive items under the Teams
	// chat-files folder with the Teams source for display.
	TagTeams bool
}

type exposureGroup struct {
	driveID    string
	itemID     string
	source     string
	itemPath   string
	itemWebURL string
	itemType   domain.ItemType

	sharingTypes []string
	sharedWith   []string
	audiences    []string
	roles        []string
}

// Deduplicate collapses raw sharing records into one row per file.
// Sharing details are consolidated in first-seen order, the audience
// is the worst across all grants, and the risk level and score are
// recomputed for the consolidated row with the recipient count as
// fan-out. Rows come back sorted by score descending, then severity.
func Deduplicate(records []domain.SharingRecord, cls *classify.Classifier, opts DedupOptions) []domain.FileExposure {
	groups := make(map[string]*exposureGroup)
	var order []string

	for i := range records {
		r := &records[i]

		var key string
		if opts.IncludeIDs {
			key = r.DriveID + ":" + r.ItemID
		} else if r.ItemWebURL != "" {
			key = r.ItemWebURL
		} else {
			key = r.Source + ":" + r.ItemPath
		}

		g, ok := groups[key]
		if !ok {
			g = &exposureGroup{
				driveID:    r.DriveID,
				itemID:     r.ItemID,
				source:     r.Source,
				itemPath:   r.ItemPath,
				itemWebURL: r.ItemWebURL,
				itemType:   r.ItemType,
			}
			groups[key] = g
			order = append(order, key)
		}

		g.sharingTypes = appendUnique(g.sharingTypes, string(r.SharingType))
		g.sharedWith = appendUnique(g.sharedWith, r.SharedWith)
		g.audiences = appendUnique(g.audiences, string(r.AudienceType))
		g.roles = appendUnique(g.roles, r.Role)
	}

	result := make([]domain.FileExposure, 0, len(order))
	for _, key := range order {
		g := groups[key]

		worstAudience := worstAudienceType(g.audiences)
		worstRole := worstRoleOf(g.roles)

		// Risk recomputation uses the first sharing type seen, not the
		// worst. The worst audience dominates the level either way.
		firstSharing := domain.SharingType("")
		if len(g.sharingTypes) > 0 {
			firstSharing = domain.SharingType(g.sharingTypes[0])
		}

		source := g.source
		if opts.TagTeams && source == domain.SourceOneDrive && classify.IsTeamsChatPath(g.itemPath) {
			source = domain.SourceTeams
		}

		level := cls.RiskLevelFor(firstSharing, worstAudience, g.itemPath)
		score := cls.RiskScore(worstAudience, firstSharing, g.itemPath, worstRole, g.itemType, len(g.sharedWith))

		exposure := domain.FileExposure{
			DriveID:       g.driveID,
			ItemID:        g.itemID,
			RiskScore:     score,
			RiskLevel:     level,
			Source:        source,
			ItemType:      g.itemType,
			ItemPath:      g.itemPath,
			ItemWebURL:    g.itemWebURL,
			SharingTypes:  strings.Join(g.sharingTypes, ", "),
			SharedWith:    strings.Join(g.sharedWith, ", "),
			AudienceTypes: strings.Join(g.audiences, ", "),
			Roles:         strings.Join(g.roles, ", "),
		}
		if opts.IncludeIDs {
			exposure.ID = g.driveID + ":" + g.itemID
		}
		result = append(result, exposure)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].RiskScore != result[j].RiskScore {
			return result[i].RiskScore > result[j].RiskScore
		}
		return riskRank[result[i].RiskLevel] < riskRank[result[j].RiskLevel]
	})
	return result
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func worstAudienceType(audiences []string) domain.AudienceType {
	worst := domain.AudienceUnknown
	best := len(audiencePriority) + 1
	for _, a := range audiences {
		at := domain.AudienceType(a)
		p, ok := audiencePriority[at]
		if !ok {
			p = len(audiencePriority)
		}
		if p < best {
			best = p
			worst = at
		}
	}
	return worst
}

func worstRoleOf(roles []string) string {
	hasRead := false
	for _, r := range roles {
		if r == domain.RoleWrite || r == domain.RoleOwner {
			return domain.RoleWrite
		}
		if r == domain.RoleRead {
			hasRead = true
		}
	}
	if hasRead {
		return domain.RoleRead
	}
	return domain.RoleUnknown
}
