// Package classify gates raw notification messages: only messages that look
// like genuine transaction alerts proceed to field extraction. The gate is a
// layered filter over sender, subject and body; each rejection carries a
// reason code for audit logging.
package classify

import (
	"regexp"
	"strings"
)

// Reason is the audit code explaining why a message was accepted or rejected.
type Reason string

const (
	ReasonUntrustedSender       Reason = "UNTRUSTED_SENDER"
	ReasonMarketingSubject      Reason = "MARKETING_SUBJECT"
	ReasonNoTxnSubjectKeyword   Reason = "NO_TXN_SUBJECT_KEYWORD"
	ReasonMarketingBody         Reason = "MARKETING_BODY"
	ReasonNoRequiredBodySignal  Reason = "NO_REQUIRED_BODY_SIGNAL"
	ReasonNoSupportingSignal    Reason = "NO_SUPPORTING_BODY_SIGNAL"
	ReasonPassed                Reason = "PASSED_ALL_LAYERS"
)

// Verdict is the classifier output for one message.
type Verdict struct {
	Accepted bool
	Reason   Reason
}

// Config carries the immutable pattern tables and thresholds. The zero value
// is not usable; start from DefaultConfig.
type Config struct {
	TrustedAddresses map[string]bool
	TrustedDomains   map[string]bool

	TransactionSubject []*regexp.Regexp
	MarketingSubject   []*regexp.Regexp
	RequiredBody       []*regexp.Regexp
	SupportingBody     []*regexp.Regexp
	MarketingBody      []*regexp.Regexp

	// A subject with at least this many marketing keyword hits is rejected.
	MarketingSubjectLimit int
	// A body with at least this many marketing signals is rejected.
	MarketingBodyLimit int
}

// Classifier applies the six-layer gate. It is immutable after construction
// and safe for concurrent use.
type Classifier struct {
	cfg Config
}

func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify runs the gate layers in order and short-circuits on the first
// failing layer. Sender may be empty, in which case the trust check is
// skipped entirely.
func (c *Classifier) Classify(subject, body, sender string) Verdict {
	subjectLower := strings.ToLower(subject)

	// Layer 1: sender trust.
	if sender != "" {
		addr := strings.ToLower(strings.TrimSpace(sender))
		// "Display Name <addr@domain>" forms carry the address in brackets.
		if lt := strings.LastIndex(addr, "<"); lt >= 0 {
			addr = strings.TrimSuffix(addr[lt+1:], ">")
		}
		domain := addr
		if at := strings.LastIndex(addr, "@"); at >= 0 {
			domain = addr[at+1:]
		}
		if !c.cfg.TrustedDomains[domain] && !c.cfg.TrustedAddresses[addr] {
			return Verdict{Reason: ReasonUntrustedSender}
		}
	}

	// Layer 2: marketing pressure in the subject.
	if countMatches(c.cfg.MarketingSubject, subjectLower) >= c.cfg.MarketingSubjectLimit {
		return Verdict{Reason: ReasonMarketingSubject}
	}

	// Layer 3: the subject must contain a transaction keyword.
	if !anyMatch(c.cfg.TransactionSubject, subjectLower) {
		return Verdict{Reason: ReasonNoTxnSubjectKeyword}
	}

	// Layer 4: marketing pressure in the body.
	if countMatches(c.cfg.MarketingBody, body) >= c.cfg.MarketingBodyLimit {
		return Verdict{Reason: ReasonMarketingBody}
	}

	// Layer 5: an action verb or account reference is mandatory.
	if !anyMatch(c.cfg.RequiredBody, body) {
		return Verdict{Reason: ReasonNoRequiredBodySignal}
	}

	// Layer 6: at least one supporting transaction signal.
	if countMatches(c.cfg.SupportingBody, body) == 0 {
		return Verdict{Reason: ReasonNoSupportingSignal}
	}

	return Verdict{Accepted: true, Reason: ReasonPassed}
}

func anyMatch(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}
