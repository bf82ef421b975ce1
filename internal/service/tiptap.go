package service

import (
	"bytes"
	"encoding/json"
	"strings"
)

// emptyDoc is the TipTap document stored for notes created without content.
var emptyDoc = json.RawMessage(`{"type":"doc","content":[]}`)

type tiptapNode struct {
	Type    string       `json:"type"`
	Text    string       `json:"text"`
	Content []tiptapNode `json:"content"`
}

var blockNodes = map[string]bool{
	"paragraph":      true,
	"heading":        true,
	"blockquote":     true,
	"codeBlock":      true,
	"listItem":       true,
	"taskItem":       true,
	"tableRow":       true,
	"horizontalRule": true,
}

// validDoc reports whether raw is a JSON object with a "type" field, the
// minimum shape of a TipTap document.
func validDoc(raw json.RawMessage) bool {
	if !json.Valid(raw) {
		return false
	}
	var doc struct {
		Type string `json:"type"`
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Unmarshal(raw, &doc) == nil && doc.Type != ""
}

// plainText flattens a TipTap document into searchable text.
func plainText(raw json.RawMessage) string {
	var root tiptapNode
	if err := json.Unmarshal(raw, &root); err != nil {
		return ""
	}
	var sb strings.Builder
	writeNode(&sb, root)
	lines := strings.Split(sb.String(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func writeNode(sb *strings.Builder, n tiptapNode) {
	switch n.Type {
	case "text":
		sb.WriteString(n.Text)
		return
	case "hardBreak":
		sb.WriteByte('\n')
		return
	}
	for _, c := range n.Content {
		writeNode(sb, c)
	}
	if blockNodes[n.Type] {
		sb.WriteByte('\n')
	}
}

func sameJSON(a, b json.RawMessage) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
