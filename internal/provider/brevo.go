package provider

import (
	"context"
	"net/http"

	"portfolio/internal/apperr"
)

// Email is a single transactional message.
type Email struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
}

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoRequest struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent,omitempty"`
	TextContent string         `json:"textContent,omitempty"`
	ReplyTo     *brevoAddress  `json:"replyTo,omitempty"`
}

// Brevo sends transactional email through the Brevo v3 API.
type Brevo struct {
	baseURL     string
	apiKey      string
	senderEmail string
	senderName  string
	httpClient  *http.Client
}

func NewBrevo(apiKey, senderEmail, senderName string, httpClient *http.Client) *Brevo {
	return &Brevo{
		baseURL:     "https://api.brevo.com/v3",
		apiKey:      apiKey,
		senderEmail: senderEmail,
		senderName:  senderName,
		httpClient:  defaultHTTPClient(httpClient),
	}
}

func (b *Brevo) WithBaseURL(u string) *Brevo {
	b.baseURL = u
	return b
}

func (b *Brevo) Configured() bool {
	return b.apiKey != "" && b.senderEmail != ""
}

// Send hands the message to Brevo and returns its message id.
func (b *Brevo) Send(ctx context.Context, e Email) (string, error) {
	if !b.Configured() {
		return "", apperr.NotConfigured("email")
	}
	req := brevoRequest{
		Sender:      brevoAddress{Email: b.senderEmail, Name: b.senderName},
		To:          []brevoAddress{{Email: e.To, Name: e.ToName}},
		Subject:     e.Subject,
		HTMLContent: e.HTML,
		TextContent: e.Text,
	}
	if e.ReplyTo != "" {
		req.ReplyTo = &brevoAddress{Email: e.ReplyTo}
	}
	var out struct {
		MessageID string `json:"messageId"`
	}
	headers := map[string]string{"api-key": b.apiKey}
	if _, err := call(ctx, b.httpClient, "brevo", http.MethodPost, b.baseURL+"/smtp/email", headers, req, &out); err != nil {
		return "", err
	}
	return out.MessageID, nil
}
