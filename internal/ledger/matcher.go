package ledger

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gripfin/grip/internal/domain"
)

// amountEpsilon bounds float comparison of money magnitudes; amounts come
// from two-decimal currency values.
const amountEpsilon = 0.005

// matchInput is everything the surety matcher needs, prefetched so the
// matcher itself performs no I/O.
type matchInput struct {
	today    time.Time
	horizon  time.Time
	previous []domain.Transaction
	current  []domain.Transaction
	// coveredSignatures holds subcategory+amount signatures already served
	// by a declared recurring obligation.
	coveredSignatures map[string]bool
	exclusions        []domain.ExclusionRule
	includeHidden     bool
}

type matchResult struct {
	items          []domain.LedgerItem
	projectedTotal float64
	unpaidTotal    float64
}

// matchSureties detects recurring payments the user never declared. For
// every previous-period candidate it establishes exclusion status, estimates
// the current-period due date, and searches the current period for a
// satisfying payment; only unexcluded, unsatisfied candidates contribute to
// totals.
func matchSureties(in matchInput) matchResult {
	var res matchResult
	claimed := make([]bool, len(in.current))

	for _, prev := range in.previous {
		status, hasExclusion := exclusionStatus(prev, in.exclusions, in.coveredSignatures)
		estimated := estimateDueDate(prev.Date, in.today)

		matchIdx := findMatch(prev, in.current, claimed)
		if matchIdx >= 0 {
			claimed[matchIdx] = true
			// Already satisfied this period: visible only on request,
			// never counted.
			if in.includeHidden {
				res.items = append(res.items, suretyItem(prev, in.current[matchIdx].Date, domain.StatusPaid))
			}
			continue
		}

		if hasExclusion {
			if in.includeHidden {
				res.items = append(res.items, suretyItem(prev, estimated, status))
			}
			continue
		}

		switch {
		case estimated.Before(in.today):
			res.items = append(res.items, suretyItem(prev, estimated, domain.StatusOverdue))
			res.unpaidTotal += math.Abs(prev.Amount)
		case !estimated.After(in.horizon):
			res.items = append(res.items, suretyItem(prev, estimated, domain.StatusProjected))
			res.projectedTotal += math.Abs(prev.Amount)
		}
	}
	return res
}

// exclusionStatus resolves the highest-priority exclusion applying to a
// candidate. Priority is fixed: SKIP > MANUAL_PAID > PERMANENT > COVERED.
func exclusionStatus(txn domain.Transaction, rules []domain.ExclusionRule, covered map[string]bool) (domain.LedgerStatus, bool) {
	var manualPaid, permanent bool
	for _, rule := range rules {
		switch rule.Scope {
		case domain.ExclusionSkip:
			if rule.SourceTransactionID == txn.ID {
				return domain.StatusSkipped, true
			}
		case domain.ExclusionManualPaid:
			if rule.SourceTransactionID == txn.ID {
				manualPaid = true
			}
		case domain.ExclusionPermanent:
			if patternMatches(rule.MerchantPattern, txn.Merchant) && patternMatches(rule.SubcategoryPattern, txn.Subcategory) {
				permanent = true
			}
		}
	}
	if manualPaid {
		return domain.StatusPaid, true
	}
	if permanent {
		return domain.StatusTerminated, true
	}
	if covered[signatureOf(txn.Subcategory, txn.Amount)] {
		return domain.StatusCovered, true
	}
	return "", false
}

// patternMatches implements PERMANENT rule matching: empty or "*" is a
// match-all wildcard, anything else matches by case-insensitive containment.
func patternMatches(pattern, value string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

// estimateDueDate projects a previous payment's day-of-month into the
// current period, clamped to the current month's last day.
func estimateDueDate(previous, today time.Time) time.Time {
	day := clampDay(previous.Day(), today.Year(), today.Month())
	return time.Date(today.Year(), today.Month(), day, 0, 0, 0, 0, today.Location())
}

// findMatch scans the current period for an unclaimed transaction satisfying
// the candidate: equal magnitude plus merchant equality, subcategory
// equality, or fuzzy merchant containment. First match wins.
func findMatch(prev domain.Transaction, current []domain.Transaction, claimed []bool) int {
	for i, cur := range current {
		if claimed[i] {
			continue
		}
		if math.Abs(math.Abs(cur.Amount)-math.Abs(prev.Amount)) > amountEpsilon {
			continue
		}
		if strings.EqualFold(cur.Merchant, prev.Merchant) ||
			strings.EqualFold(cur.Subcategory, prev.Subcategory) ||
			merchantsAlike(cur.Merchant, prev.Merchant) {
			return i
		}
	}
	return -1
}

// merchantsAlike is a deliberately loose containment heuristic: either name
// containing the other counts as a match. Short common substrings can
// produce false positives; tolerance was chosen over precision here.
func merchantsAlike(a, b string) bool {
	al, bl := strings.ToLower(a), strings.ToLower(b)
	if al == "" || bl == "" {
		return false
	}
	return strings.Contains(al, bl) || strings.Contains(bl, al)
}

func signatureOf(subcategory string, amount float64) string {
	return fmt.Sprintf("%s|%.2f", strings.ToLower(subcategory), math.Abs(amount))
}

func suretyItem(txn domain.Transaction, due time.Time, status domain.LedgerStatus) domain.LedgerItem {
	title := txn.Merchant
	if title == "" {
		title = "Surety"
	}
	return domain.LedgerItem{
		ID:                  "auto-" + txn.ID,
		Title:               title + " (Auto-detected)",
		Amount:              math.Abs(txn.Amount),
		DueDate:             due,
		Type:                domain.LedgerSuretyTxn,
		Status:              status,
		Category:            txn.Category,
		Subcategory:         txn.Subcategory,
		SourceTransactionID: txn.ID,
	}
}
