package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/gripfin/grip/internal/domain"
)

// ErrCredentialRevoked indicates the mailbox credential is no longer valid
// and the user must reconnect their account.
var ErrCredentialRevoked = errors.New("mail: credential revoked")

// transactionQuery narrows the mailbox scan to likely bank notifications.
const transactionQuery = "debit OR debited OR credit OR alert OR spent"

// Fetcher retrieves candidate notification messages newer than a watermark.
type Fetcher interface {
	Fetch(ctx context.Context, after time.Time, max int64) ([]domain.RawMessage, error)
}

// GmailFetcher reads messages from a user's Gmail account via an OAuth
// access token.
type GmailFetcher struct {
	svc *gmail.Service
}

func NewGmailFetcher(ctx context.Context, accessToken string) (*GmailFetcher, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("NewGmailFetcher: gmail service: %w", err)
	}
	return &GmailFetcher{svc: svc}, nil
}

// Fetch lists matching messages received after the watermark and loads each
// one's full payload. Spam and trash are included; bank alerts routinely
// land there.
func (f *GmailFetcher) Fetch(ctx context.Context, after time.Time, max int64) ([]domain.RawMessage, error) {
	query := transactionQuery
	if !after.IsZero() {
		query = fmt.Sprintf("%s after:%d", transactionQuery, after.Unix())
	}

	list, err := f.svc.Users.Messages.List("me").
		Q(query).
		MaxResults(max).
		IncludeSpamTrash(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyAPIError("Fetch", err)
	}

	msgs := make([]domain.RawMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		full, err := f.svc.Users.Messages.Get("me", ref.Id).
			Format("full").
			Context(ctx).
			Do()
		if err != nil {
			return nil, classifyAPIError("Fetch", err)
		}
		msgs = append(msgs, toRawMessage(full))
	}
	return msgs, nil
}

func toRawMessage(m *gmail.Message) domain.RawMessage {
	msg := domain.RawMessage{
		ID:        m.Id,
		Delivered: time.UnixMilli(m.InternalDate),
		Snippet:   m.Snippet,
	}
	if m.Payload != nil {
		for _, h := range m.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "subject":
				msg.Subject = h.Value
			case "from":
				msg.Sender = h.Value
			}
		}
		msg.Body = extractBody(m.Payload)
	}
	return msg
}

// extractBody walks the MIME tree collecting text/plain parts, falling back
// to whatever body data the root part carries.
func extractBody(p *gmail.MessagePart) string {
	var parts []string
	collectPlainText(p, &parts)
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}
	if p.Body != nil && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	return ""
}

func collectPlainText(p *gmail.MessagePart, out *[]string) {
	if p == nil {
		return
	}
	if p.MimeType == "text/plain" && p.Body != nil && p.Body.Data != "" {
		if s := decodeBody(p.Body.Data); s != "" {
			*out = append(*out, s)
		}
	}
	for _, child := range p.Parts {
		collectPlainText(child, out)
	}
}

// decodeBody handles both unpadded and padded URL-safe base64, which Gmail
// emits inconsistently.
func decodeBody(data string) string {
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}

func classifyAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 401 || apiErr.Code == 403) {
		return fmt.Errorf("%s: %v: %w", op, err, ErrCredentialRevoked)
	}
	msg := err.Error()
	if strings.Contains(msg, "invalid_grant") || strings.Contains(msg, "revoked") {
		return fmt.Errorf("%s: %v: %w", op, err, ErrCredentialRevoked)
	}
	return fmt.Errorf("%s: listing messages: %w", op, err)
}
