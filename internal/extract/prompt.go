package extract

import (
	"strings"

	"dealtrack-engine/internal/domain"
)

// extractionPrompt instructs the model to return only confirmed new
// growth-equity/PE deals as a bare JSON array. The date rule matters: a
// deal without an explicit date in the text must be skipped, never
// backfilled with today.
const extractionPrompt = `You are a growth equity deal extraction assistant. Analyze the following text and extract ONLY deals that are clearly NEW investment announcements — meaning there is explicit language like "announces investment in", "closes funding round", "raises Series X", "secures growth equity investment", or similar.

For EACH confirmed new deal announcement, extract:
- company_name: The portfolio company receiving investment
- investor: The PE/growth equity firm investing
- amount_raised: Dollar amount in USD (number only, no formatting). Use null if undisclosed.
- end_market: Classify into exactly one of these categories: {end_markets}
- description: 1-2 sentence summary of what the company does
- date: The actual announcement or close date in YYYY-MM-DD format. This MUST come from the text itself (e.g. press release date, "announced January 15", article publication date). NEVER use today's date as a fallback. If you cannot find a specific date in the text, skip the deal entirely.
- source_url: The URL this was scraped from (provided below)

CRITICAL RULES:
- ONLY extract deals that are clearly NEW announcements with announcement language and a verifiable date
- Do NOT extract companies simply listed on a portfolio page, team page, or case study — these are existing investments, not new deals
- Do NOT extract deals where the only evidence is a company name appearing in a list of portfolio companies
- Only extract GROWTH EQUITY or PRIVATE EQUITY deals (not venture/seed, not M&A/acquisitions, not debt)
- The investor must be a PE/growth equity firm, not a strategic acquirer
- Skip deals with announcement dates older than {recency_days} days from today's date
- Skip duplicate mentions of the same deal
- If no confirmed new deal announcements are found, return an empty array

Source name: {source_name}
Source URL: {source_url}
Today's date: {today}

Respond with ONLY a JSON array of deal objects. No markdown, no explanation.
Example: [{"company_name": "Acme Corp", "investor": "Summit Partners", "amount_raised": 50000000, "end_market": "FinTech", "description": "Acme Corp provides...", "date": "2026-02-20", "source_url": "https://..."}]

If no deals found, respond with: []

--- SCRAPED TEXT ---
{text}`

// buildPrompt substitutes one source into the extraction template. Each
// placeholder is replaced once so page text can never smuggle in a second
// substitution.
func buildPrompt(src domain.FetchResult, endMarkets []string, today string, recencyDays string) string {
	p := extractionPrompt
	p = strings.Replace(p, "{end_markets}", strings.Join(endMarkets, ", "), 1)
	p = strings.Replace(p, "{recency_days}", recencyDays, 1)
	p = strings.Replace(p, "{source_name}", src.SourceName, 1)
	p = strings.Replace(p, "{source_url}", src.SourceURL, 1)
	p = strings.Replace(p, "{today}", today, 1)
	p = strings.Replace(p, "{text}", src.Text, 1)
	return p
}
