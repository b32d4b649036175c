// Package dedup filters candidate deals against stored history and against
// each other using fuzzy name matching.
//
// Company names use the partial edit-distance ratio, which tolerates
// abbreviation ("Acme Corp" vs "Acme Corporation" scores 100 where the
// plain ratio stalls at 72). Investor names use the token-set ratio because
// firm names vary by suffix far more than company names do ("Insight" vs
// "Insight Partners" scores 100).
package dedup

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"go.uber.org/zap"

	"dealtrack-engine/internal/config"
	"dealtrack-engine/internal/domain"
)

// Result is the outcome of one filtering pass.
type Result struct {
	Accepted []domain.CandidateDeal
	Skipped  int
}

// Filter rejects invalid and duplicate candidates. Thresholds are 0-100
// similarity scores; meeting the threshold counts as a match.
type Filter struct {
	CompanyThreshold  int
	InvestorThreshold int
	Log               *zap.SugaredLogger
}

func NewFilter(cfg config.Config, log *zap.SugaredLogger) *Filter {
	return &Filter{
		CompanyThreshold:  cfg.Dedup.CompanyThreshold,
		InvestorThreshold: cfg.Dedup.InvestorThreshold,
		Log:               log,
	}
}

// Apply walks candidates in input order against a known set seeded from
// history. Accepted candidates join the known set immediately so later
// candidates in the same run are deduplicated against them too.
//
// No date window: if a similar company+investor pair exists anywhere in
// history (soft-deleted included), the candidate is a duplicate. Firm sites
// list old deals indefinitely, so a window would re-admit them.
func (f *Filter) Apply(candidates []domain.CandidateDeal, existing []domain.DealProjection) Result {
	known := make([]domain.DealProjection, len(existing))
	copy(known, existing)

	var res Result
	for _, c := range candidates {
		switch {
		case f.isInvalid(c):
			res.Skipped++
		case f.isDuplicate(c, known):
			f.Log.Infow("duplicate skipped", "company", c.CompanyName, "investor", c.Investor)
			res.Skipped++
		default:
			res.Accepted = append(res.Accepted, c)
			known = append(known, domain.DealProjection{
				ID:          "",
				CompanyName: c.CompanyName,
				Investor:    c.Investor,
				Date:        c.Date,
			})
		}
	}
	return res
}

// isInvalid catches blank fields and the self-referential case where a firm
// is extracted as investing in itself.
func (f *Filter) isInvalid(c domain.CandidateDeal) bool {
	name := strings.ToLower(c.CompanyName)
	investor := strings.ToLower(c.Investor)

	if strings.TrimSpace(name) == "" || strings.TrimSpace(investor) == "" {
		return true
	}
	if fuzzy.TokenSetRatio(name, investor) >= f.InvestorThreshold {
		f.Log.Infow("invalid candidate skipped",
			"company", c.CompanyName, "investor", c.Investor, "reason", "company matches investor")
		return true
	}
	return false
}

func (f *Filter) isDuplicate(c domain.CandidateDeal, known []domain.DealProjection) bool {
	name := strings.ToLower(c.CompanyName)
	investor := strings.ToLower(c.Investor)

	for _, k := range known {
		nameScore := fuzzy.PartialRatio(name, strings.ToLower(k.CompanyName))
		investorScore := fuzzy.TokenSetRatio(investor, strings.ToLower(k.Investor))
		if nameScore >= f.CompanyThreshold && investorScore >= f.InvestorThreshold {
			return true
		}
	}
	return false
}
