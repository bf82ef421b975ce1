package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"portfolio/internal/apperr"
	"portfolio/internal/model"
	"portfolio/internal/provider"
	"portfolio/internal/repository"
	"portfolio/internal/sanitize"
)

var domainPattern = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)

// Mailer delivers a single transactional email.
type Mailer interface {
	Configured() bool
	Send(ctx context.Context, e provider.Email) (string, error)
}

// TXTResolver is the subset of *net.Resolver used for domain checks.
type TXTResolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// Quota reports how much of today's send allowance is used.
type Quota struct {
	CanSend    bool  `json:"canSend"`
	SentToday  int64 `json:"sentToday"`
	DailyLimit int   `json:"dailyLimit"`
	Remaining  int64 `json:"remaining"`
}

type DMARCResult struct {
	Found  bool   `json:"found"`
	Policy string `json:"policy,omitempty"`
	Record string `json:"record,omitempty"`
}

type DKIMResult struct {
	Found    bool   `json:"found"`
	Selector string `json:"selector"`
	Record   string `json:"record,omitempty"`
}

// DomainAuth is the outcome of a DMARC and DKIM check for one domain.
type DomainAuth struct {
	Domain        string      `json:"domain"`
	DMARC         DMARCResult `json:"dmarc"`
	DKIM          DKIMResult  `json:"dkim"`
	Authenticated bool        `json:"authenticated"`
}

// EmailService sends transactional mail within a daily quota and checks sender domain records.
type EmailService struct {
	mailer     Mailer
	messages   *repository.MessageRepository
	resolver   TXTResolver
	dailyLimit int
	domain     string
	selector   string
	log        *zap.Logger
	now        func() time.Time
}

func NewEmailService(mailer Mailer, messages *repository.MessageRepository, resolver TXTResolver,
	dailyLimit int, domain, selector string, log *zap.Logger) *EmailService {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EmailService{
		mailer:     mailer,
		messages:   messages,
		resolver:   resolver,
		dailyLimit: dailyLimit,
		domain:     domain,
		selector:   selector,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *EmailService) Configured() bool {
	return s.mailer != nil && s.mailer.Configured()
}

// Quota counts sends since midnight UTC.
func (s *EmailService) Quota(ctx context.Context) (Quota, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	sent, err := s.messages.CountEmailsSince(ctx, midnight)
	if err != nil {
		return Quota{}, fmt.Errorf("count emails: %w", err)
	}
	remaining := int64(s.dailyLimit) - sent
	if remaining < 0 {
		remaining = 0
	}
	return Quota{CanSend: remaining > 0, SentToday: sent, DailyLimit: s.dailyLimit, Remaining: remaining}, nil
}

// Send validates and delivers e, refusing once the daily quota is spent.
func (s *EmailService) Send(ctx context.Context, e provider.Email) (string, error) {
	if !s.Configured() {
		return "", apperr.NotConfigured("email")
	}
	to, ok := sanitize.Email(e.To)
	if !ok {
		return "", apperr.Invalid("to", "is not a valid address")
	}
	e.To = to
	if e.ReplyTo != "" {
		replyTo, ok := sanitize.Email(e.ReplyTo)
		if !ok {
			return "", apperr.Invalid("replyTo", "is not a valid address")
		}
		e.ReplyTo = replyTo
	}
	e.Subject = sanitize.Text(e.Subject, 200)
	if e.Subject == "" {
		return "", apperr.Invalid("subject", "is required")
	}
	if strings.TrimSpace(e.HTML) == "" && strings.TrimSpace(e.Text) == "" {
		return "", apperr.Invalid("html", "html or text body is required")
	}
	if sanitize.ContainsScript(e.HTML) {
		return "", apperr.Invalid("html", "must not contain scripts")
	}

	quota, err := s.Quota(ctx)
	if err != nil {
		return "", err
	}
	if !quota.CanSend {
		return "", fmt.Errorf("daily email limit of %d reached: %w", s.dailyLimit, apperr.ErrRateLimited)
	}

	id, err := s.mailer.Send(ctx, e)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	entry := model.EmailLog{Recipient: e.To, Subject: e.Subject, MessageID: id, Status: "sent"}
	if err := s.messages.LogEmail(ctx, &entry); err != nil {
		s.log.Warn("email sent but not logged", zap.String("message_id", id), zap.Error(err))
	}
	return id, nil
}

// CheckDomain looks up the DMARC and DKIM records of domain concurrently.
// An empty domain falls back to the configured sending domain.
func (s *EmailService) CheckDomain(ctx context.Context, domain string) (*DomainAuth, error) {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		domain = s.domain
	}
	if domain == "" {
		return nil, apperr.Invalid("domain", "is required")
	}
	if !domainPattern.MatchString(domain) {
		return nil, apperr.Invalid("domain", "is not a valid domain name")
	}

	result := &DomainAuth{Domain: domain, DKIM: DKIMResult{Selector: s.selector}}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := s.lookup(gctx, "_dmarc."+domain)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(rec)), "V=DMARC1") {
				result.DMARC = DMARCResult{Found: true, Policy: tagValue(rec, "p"), Record: rec}
				break
			}
		}
		return nil
	})
	g.Go(func() error {
		records, err := s.lookup(gctx, s.selector+"._domainkey."+domain)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if isDKIM(rec) {
				result.DKIM.Found = true
				result.DKIM.Record = rec
				break
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.Authenticated = result.DMARC.Found && result.DKIM.Found
	return result, nil
}

// lookup treats a missing record as an empty answer.
func (s *EmailService) lookup(ctx context.Context, name string) ([]string, error) {
	records, err := s.resolver.LookupTXT(ctx, name)
	if err == nil {
		return records, nil
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return nil, nil
	}
	return nil, &apperr.UpstreamError{Service: "dns", Status: 502, Message: err.Error()}
}

// tagValue returns the value of key in a "k=v; k=v" record.
func tagValue(record, key string) string {
	for _, part := range strings.Split(record, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && strings.EqualFold(strings.TrimSpace(k), key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func isDKIM(record string) bool {
	upper := strings.ToUpper(record)
	marked := strings.Contains(upper, "V=DKIM1") || strings.Contains(upper, "K=RSA")
	return marked && tagValue(record, "p") != ""
}
