package domain

// SourceCategory distinguishes news wires from competitor firm pages.
type SourceCategory string

const (
	SourceNews SourceCategory = "news"
	SourceFirm SourceCategory = "firm"
)

// Source is one fetch target from the static catalog.
type Source struct {
	Name     string         `json:"name"`
	URL      string         `json:"url"`
	Category SourceCategory `json:"category"`
}

// FetchResult is the cleaned text of one successfully fetched source.
// Failed fetches produce nothing; there is no error variant.
type FetchResult struct {
	SourceName string `json:"source_name"`
	SourceURL  string `json:"source_url"`
	Text       string `json:"text"`
}

// CandidateDeal is an extracted deal pending validation and dedup. It is
// either promoted to a stored deal or discarded, never persisted as-is.
type CandidateDeal struct {
	CompanyName  string   `json:"company_name"`
	Investor     string   `json:"investor"`
	AmountRaised *float64 `json:"amount_raised"`
	EndMarket    string   `json:"end_market"`
	Description  string   `json:"description"`
	Date         string   `json:"date"` // YYYY-MM-DD, always from the source text
	SourceURL    string   `json:"source_url"`
}

// DealProjection is the read-only slice of a stored deal used for duplicate
// comparison. Soft-deleted deals are included so they keep suppressing
// re-insertion.
type DealProjection struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
	Investor    string `json:"investor"`
	Date        string `json:"date"`
}

// RunResult summarizes one pipeline execution. Success means the pipeline
// ran to completion; partial failures live in Errors.
type RunResult struct {
	Success             bool     `json:"success"`
	SourcesFetched      int      `json:"sourcesFetched"`
	CandidatesExtracted int      `json:"candidatesExtracted"`
	RecordsInserted     int      `json:"recordsInserted"`
	Errors              []string `json:"errors"`
	DurationMs          int64    `json:"durationMs"`
}

// EndMarketOther is the sentinel category applied at persistence time when
// the extractor left the field blank.
const EndMarketOther = "Other"

// EndMarkets is the fixed classification set offered to the extraction
// prompt. Keep in sync with the tracker UI.
var EndMarkets = []string{
	"Software",
	"FinTech",
	"Healthcare IT",
	"Tech-Enabled Services",
	"Data & Analytics",
	"Cybersecurity",
	"Logistics & Supply Chain",
	"GovTech",
	"EdTech",
	EndMarketOther,
}

// NormalizeEndMarket maps a blank end market to the Other sentinel.
func NormalizeEndMarket(m string) string {
	if m == "" {
		return EndMarketOther
	}
	return m
}
