package provider

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strings"
)

type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Source string `json:"source"`
}

var fallbackQuotes = []Quote{
	{Text: "Simplicity is prerequisite for reliability.", Author: "Edsger W. Dijkstra"},
	{Text: "Programs must be written for people to read, and only incidentally for machines to execute.", Author: "Harold Abelson"},
	{Text: "Make it work, make it right, make it fast.", Author: "Kent Beck"},
	{Text: "The best way to predict the future is to invent it.", Author: "Alan Kay"},
	{Text: "Clear is better than clever.", Author: "Rob Pike"},
}

// Quotes fetches a random quote and falls back to a built-in list when the
// upstream is unavailable.
type Quotes struct {
	url        string
	httpClient *http.Client
}

func NewQuotes(httpClient *http.Client) *Quotes {
	return &Quotes{url: "https://zenquotes.io/api/random", httpClient: defaultHTTPClient(httpClient)}
}

func (q *Quotes) WithURL(u string) *Quotes {
	q.url = u
	return q
}

// Random never fails; the error reports why the fallback was used.
func (q *Quotes) Random(ctx context.Context) (Quote, error) {
	var raw []struct {
		Q string `json:"q"`
		A string `json:"a"`
	}
	_, err := call(ctx, q.httpClient, "quote", http.MethodGet, q.url, nil, nil, &raw)
	if err == nil && len(raw) > 0 && strings.TrimSpace(raw[0].Q) != "" {
		return Quote{Text: strings.TrimSpace(raw[0].Q), Author: strings.TrimSpace(raw[0].A), Source: "zenquotes"}, nil
	}
	fb := fallbackQuotes[rand.IntN(len(fallbackQuotes))]
	fb.Source = "fallback"
	return fb, err
}
