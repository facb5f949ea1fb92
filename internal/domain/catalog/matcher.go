package catalog

import (
	"strconv"
	"strings"
)

// Premium variant markers: a hardcover or deluxe printing is a different
// product than its standard counterpart even when the titles otherwise match.
var premiumSuffixes = []string{"c.p dura", "c.p. dura", "capa dura", "deluxe"}

// Match acceptance thresholds (token-sort ratio, 0-100). The reconcilers use
// the strict default; interactive search accepts looser matches.
const (
	DefaultMatchThreshold = 90
	SearchThreshold       = 70
)

// LineItem is one row extracted from a distributor document.
type LineItem struct {
	Name          string
	EditionNumber *int
	Barcode       string
	Quantity      int
	CoverPrice    string
	NetPrice      string
}

// EditionKey returns the edition number as a comparison string, mapping an
// absent edition to "0".
func (li LineItem) EditionKey() string {
	if li.EditionNumber == nil {
		return "0"
	}
	return strconv.Itoa(*li.EditionNumber)
}

// MatchResult is the outcome of resolving a line item against the catalog.
type MatchResult struct {
	Magazine *Magazine
	Score    int
}

// Found reports whether an existing catalog entry was resolved.
func (r MatchResult) Found() bool {
	return r.Magazine != nil
}

// MatcherConfig tunes the matcher.
type MatcherConfig struct {
	// Threshold is the minimum acceptable similarity score.
	Threshold int

	// Scorer computes name similarity; defaults to TokenSortScorer.
	Scorer Scorer
}

// Matcher resolves line items to existing catalog entries. It is pure: it
// never mutates the snapshot it is given, and holds no state between calls.
type Matcher struct {
	threshold int
	scorer    Scorer
}

// NewMatcher creates a matcher with the given configuration.
func NewMatcher(cfg MatcherConfig) *Matcher {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultMatchThreshold
	}
	if cfg.Scorer == nil {
		cfg.Scorer = TokenSortScorer{}
	}
	return &Matcher{threshold: cfg.Threshold, scorer: cfg.Scorer}
}

// FindMatch resolves a line item against a point-in-time catalog snapshot.
//
// Barcode is authoritative: a trimmed exact barcode match wins immediately,
// regardless of how the names compare. Without a barcode match the item is
// compared fuzzily against candidates of the same edition whose premium-suffix
// classification agrees, and the best candidate at or above the threshold is
// accepted.
func (m *Matcher) FindMatch(item LineItem, snapshot []*Magazine) MatchResult {
	if barcode := strings.TrimSpace(item.Barcode); barcode != "" {
		for _, mag := range snapshot {
			if mag.HasBarcode() && strings.TrimSpace(*mag.Barcode) == barcode {
				return MatchResult{Magazine: mag, Score: 100}
			}
		}
	}

	name := NormalizeName(item.Name)
	if name == "" {
		return MatchResult{}
	}

	editionKey := item.EditionKey()
	itemPremium := hasPremiumSuffix(item.Name)

	var best *Magazine
	bestScore := 0
	for _, mag := range snapshot {
		if mag.EditionKey() != editionKey {
			continue
		}
		if hasPremiumSuffix(mag.Name) != itemPremium {
			continue
		}

		score := m.scorer.Score(name, NormalizeName(mag.Name))
		if score > bestScore {
			best = mag
			bestScore = score
		}
	}

	if best == nil || bestScore < m.threshold {
		return MatchResult{}
	}
	return MatchResult{Magazine: best, Score: bestScore}
}

func hasPremiumSuffix(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range premiumSuffixes {
		if strings.Contains(lower, suffix) {
			return true
		}
	}
	return false
}
