package classify

import "regexp"

// DefaultConfig returns the stock gate tables tuned for Indian bank and
// payment-provider alert mail.
func DefaultConfig() Config {
	return Config{
		TrustedAddresses: setOf(
			// Axis Bank
			"alerts@axisbank.com", "noreply@axisbank.com", "axisbank@alerts.axisbank.com",
			// HDFC Bank
			"alerts@hdfcbank.net", "noreply@hdfcbank.net",
			// ICICI Bank
			"alerts@icicibank.com", "noreply@icicibank.com",
			// SBI
			"donotreply@sbi.co.in", "alerts@sbi.co.in",
			// Kotak
			"alerts@kotak.com", "noreply@kotak.com",
			// IndusInd
			"alerts@indusind.com",
			// Yes Bank
			"alerts@yesbank.in",
			// Federal Bank
			"alerts@fedbank.co.in",
			// IDFC First
			"alerts@idfcfirstbank.com",
			// UPI apps
			"noreply@phonepe.com", "alerts@phonepe.com",
			"noreply@gpay.app", "notifications@google.com",
			"noreply@paytm.com",
			// Payment gateways
			"noreply@razorpay.com",
		),
		TrustedDomains: setOf(
			"axisbank.com", "hdfcbank.net", "icicibank.com", "sbi.co.in",
			"kotak.com", "indusind.com", "yesbank.in", "fedbank.co.in",
			"idfcfirstbank.com", "phonepe.com", "paytm.com", "razorpay.com",
			"pnbindia.in", "bankofbaroda.in", "canarabank.com", "unionbankofindia.co.in",
		),
		TransactionSubject: compileAll(
			`\bdebited\b`, `\bcredited\b`, `\balert\b`, `\bspent\b`,
			`\btransaction\b`, `\bpayment\b`, `\ba/c\b`, `\baccount\b`,
			`\bneft\b`, `\bimps\b`, `\bupi\b`, `\brtgs\b`,
			`\bwithdrawn\b`, `\bpurchase\b`, `\bemv\b`,
		),
		MarketingSubject: compileAll(
			`\boffer\b`, `\bcashback\b`, `\breward\b`, `\bwin\b`,
			`\bexclusive\b`, `\bupgrade\b`, `\bcongratulations\b`,
			`\bapply now\b`, `\bupto\b`, `\bhurry\b`, `\bdeal\b`,
			`\bdiscount\b`, `\bfree\b`, `\bbonus\b`, `\bspecial\b`,
		),
		RequiredBody: compileAll(
			`(?i)\b(?:debited|credited|spent|paid|charged|withdrawn|transferred)\b`,
			`(?i)\b(?:a/c|acct|account)\s*(?:no\.?|number)?\s*(?:xx|XX|\d{4})`,
		),
		SupportingBody: compileAll(
			`(?i)\b(?:upi|neft|imps|rtgs|nach)\b`,
			`(?i)\b(?:transaction|txn)\s*(?:id|ref|no)\.?\b`,
			`(?i)\bavailable\s+balance\b`,
			`(?i)\bif\s+not\s+done\s+by\s+you\b`,
			`(?i)\binr\s+[\d,]+`,
			`₹\s*[\d,]+`,
		),
		MarketingBody: compileAll(
			`(?i)\bclick\s+here\b`,
			`(?i)\blimited\s+(?:time|period|offer)\b`,
			`(?i)\bterms?\s+(?:and|&)\s+conditions?\s+apply\b`,
			`(?i)\bopt\s*out\b`,
			`(?i)\bunsubscribe\b`,
			`(?i)\bvalid\s+(?:till|until|on)\s+\d`,
			`(?i)\bminimum\s+(?:transaction|purchase|spend)\b`,
			`(?i)\beach\s+transaction\b`,
			`(?i)\bper\s+transaction\b`,
		),
		MarketingSubjectLimit: 2,
		MarketingBodyLimit:    3,
	}
}

func setOf(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
