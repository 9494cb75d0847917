package extract

import "regexp"

// Amount patterns, most specific first. The final bare currency-number
// pattern is a last resort and marks its match low-confidence.
var defaultAmountPatterns = []*regexp.Regexp{
	// "debited/credited/spent of INR X": the verb anchors the amount to the transaction itself.
	regexp.MustCompile(`(?i)(?:debited|credited|spent|charged|paid|withdrawn|transferred)\s+(?:of\s+)?(?:INR|Rs\.?|₹)\s*([\d,]+\.?\d*)`),
	// "INR X has been debited", linking verb optional: "Rs. X debited"
	regexp.MustCompile(`(?i)(?:INR|Rs\.?|₹)\s*([\d,]+\.?\d*)\s+(?:(?:has been|was|is|have been)\s+)?(?:debited|credited|spent|withdrawn)`),
	// "Amount: INR X" / "transaction of INR X"
	regexp.MustCompile(`(?i)(?:amount|transaction)\s*(?:of|:)\s*(?:INR|Rs\.?|₹)\s*([\d,]+\.?\d*)`),
	// "Amount - X" with the currency marker optional
	regexp.MustCompile(`(?i)amount\s*[:\-]\s*(?:INR|Rs\.?|₹)?\s*([\d,]+\.?\d*)`),
	// bare "INR X" anywhere, last resort
	regexp.MustCompile(`(?i)(?:INR|Rs\.?|₹)\s*([\d,]+\.?\d*)`),
}

// Merchant patterns, ordered by structural specificity across bank formats.
var defaultMerchantPatterns = []*regexp.Regexp{
	// UPI P2M/P2P reference segments: "UPI/P2M/8XXXX/MERCHANT"
	regexp.MustCompile(`(?i)UPI/P2[MP]/\d+/([A-Z0-9 ._-]+?)(?:\s|$|/)`),
	// Axis-style "Transaction Info: UPI/..../MERCHANT"
	regexp.MustCompile(`(?im)Transaction\s+Info\s*:\s*UPI/\w+/\d+/([A-Z0-9 ._-]+?)(?:\s*$)`),
	// "spent at MERCHANT" (HDFC/ICICI credit cards)
	regexp.MustCompile(`(?i)(?:spent\s+at|purchase\s+at|used\s+at)\s+([A-Za-z0-9&'._ -]{3,40}?)(?:\s+on|\s+for|\s*\.|\s*,)`),
	// "To: MERCHANT" transfers
	regexp.MustCompile(`(?i)\bTo\s*:\s*([A-Za-z0-9&'._ -]{3,40}?)(?:\n|\r|\.)`),
	// "At MERCHANT", Kotak style
	regexp.MustCompile(`(?i)\bAt\s+([A-Za-z0-9&'._ -]{3,40}?)(?:\s+on|\s+for|\s*\.|\s*,)`),
	// "Merchant: NAME"
	regexp.MustCompile(`(?i)Merchant\s*:\s*([A-Za-z0-9&'._ -]{3,40})`),
	// VPA before the @ for P2P transfers
	regexp.MustCompile(`(?i)\bto\s+([a-zA-Z0-9._-]+)@[a-zA-Z]+`),
}

// Candidates that are really bank or corporate-suffix tokens are false
// positives, not merchants.
var merchantRejectPattern = regexp.MustCompile(`(?i)\b(?:axis|hdfc|icici|sbi|kotak|bank|ltd|pvt)\b`)

// datePattern pairs a detection regex with the time layouts that can parse
// its captured text.
type datePattern struct {
	re      *regexp.Regexp
	layouts []string
}

var defaultDatePatterns = []datePattern{
	{regexp.MustCompile(`\b(\d{2}[-/]\d{2}[-/]\d{4})\b`), []string{"02-01-2006", "02/01/2006"}},
	{regexp.MustCompile(`\b(\d{2}[-/]\d{2}[-/]\d{2})\b`), []string{"02-01-06", "02/01/06"}},
	{regexp.MustCompile(`(?i)\b(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4})\b`), []string{"2 Jan 2006", "2 January 2006"}},
	{regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), []string{"2006-01-02"}},
}

var creditPattern = regexp.MustCompile(`(?i)\b(?:credited|credit|received|deposited|refunded|reversed)\b`)

var creditCardPattern = regexp.MustCompile(`(?i)\b(?:credit\s+card|cc\s+no|card\s+ending|credit\s+limit|outstanding|minimum\s+due)\b`)

var whitespacePattern = regexp.MustCompile(`\s+`)
