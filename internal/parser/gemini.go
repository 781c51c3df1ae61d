package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/sabilulmuttaqin/myuang/internal/core"
)

const defaultModel = "gemini-2.5-flash"

// GeminiParser extracts expense candidates from free text and receipt
// images via the Gemini API. Responses are treated as untrusted: anything
// it returns goes through Normalize before use.
type GeminiParser struct {
	client *genai.Client
	model  string
}

// NewGeminiParser builds a parser against the Gemini API. An empty model
// selects the default.
func NewGeminiParser(ctx context.Context, apiKey, model string) (*GeminiParser, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	return &GeminiParser{client: client, model: model}, nil
}

// ParseFreeText asks the model to extract a single expense from free text.
// Returns nil (no error) when the model produced nothing usable.
func (p *GeminiParser) ParseFreeText(ctx context.Context, text string, available []string) (*core.ParsedExpense, error) {
	prompt := fmt.Sprintf(`Analisis teks pengeluaran ini: %q.
Extract informasi pengeluaran menjadi JSON dengan format: {"name": "nama item", "category": "kategori", "amount": angka}

Kategori yang tersedia: %s

Rules:
- amount harus angka (contoh: 15000)
- Gunakan kategori yang paling sesuai
- Jika tidak ada kategori yang pas, gunakan "Lainnya"
- Return hanya JSON valid, tanpa markdown.`, text, strings.Join(available, ", "))

	raw, err := p.generate(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}

	candidates, err := decodeCandidates(raw)
	if err != nil {
		return nil, fmt.Errorf("decode free-text response: %w", err)
	}

	normalized := Normalize(candidates, available)
	if len(normalized) == 0 {
		slog.InfoContext(ctx, "Free-text parse produced no usable expense", "raw_len", len(raw))
		return nil, nil
	}
	return &normalized[0], nil
}

// ParseReceiptImage asks the model to extract expenses from a receipt
// image. With splitItems it returns one candidate per line item; otherwise
// a single candidate carrying the receipt total. Returns nil when nothing
// usable was extracted.
func (p *GeminiParser) ParseReceiptImage(ctx context.Context, image []byte, mimeType string, available []string, splitItems bool) ([]core.ParsedExpense, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	categories := strings.Join(available, ", ")
	var prompt string
	if splitItems {
		prompt = fmt.Sprintf(`Kamu adalah asisten untuk aplikasi pencatat pengeluaran. Analisis gambar struk/nota/kwitansi ini dan extract SEMUA item pengeluaran.

Parse menjadi JSON ARRAY dengan format: [{"name": "nama item", "category": "kategori", "amount": angka}]

Kategori yang tersedia: %s

Rules:
- Extract SETIAP ITEM dengan harga masing-masing
- Jangan gabungkan item berbeda
- amount = harga per item (bukan total)
- Gunakan kategori yang paling sesuai untuk SETIAP item
- Jika hanya ada 1 item atau total, return array dengan 1 item saja

PENTING: Return JSON array saja, tanpa penjelasan.`, categories)
	} else {
		prompt = fmt.Sprintf(`Kamu adalah asisten untuk aplikasi pencatat pengeluaran. Analisis gambar struk/nota/kwitansi ini dan extract informasi pengeluaran.

Parse menjadi JSON dengan format: {"name": "nama item/merchant", "category": "kategori", "amount": total_amount_angka}

Kategori yang tersedia: %s

Rules:
- Ambil TOTAL amount (bukan subtotal)
- Jika ada multiple items, ambil yang paling dominan atau merchant name
- amount harus angka tanpa format (contoh: 15000, bukan "15.000" atau "15k")
- Gunakan kategori yang paling sesuai dari list yang tersedia

PENTING: Hanya return JSON saja, tanpa penjelasan tambahan.`, categories)
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		},
	}}

	raw, err := p.generate(ctx, contents)
	if err != nil {
		return nil, err
	}

	candidates, err := decodeCandidates(raw)
	if err != nil {
		return nil, fmt.Errorf("decode receipt response: %w", err)
	}

	normalized := Normalize(candidates, available)
	if len(normalized) == 0 {
		slog.InfoContext(ctx, "Receipt parse produced no usable expenses", "raw_len", len(raw))
		return nil, nil
	}
	return normalized, nil
}

func (p *GeminiParser) generate(ctx context.Context, contents []*genai.Content) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty gemini response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// decodeCandidates pulls candidate records out of a possibly noisy model
// response: markdown fences and surrounding prose are tolerated, and both
// a single object and an array are accepted.
func decodeCandidates(raw string) ([]Candidate, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	if strings.HasPrefix(payload, "[") {
		var list []Candidate
		if err := json.Unmarshal([]byte(payload), &list); err != nil {
			return nil, fmt.Errorf("unmarshal array: %w", err)
		}
		return list, nil
	}

	var single Candidate
	if err := json.Unmarshal([]byte(payload), &single); err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	return []Candidate{single}, nil
}

// extractJSON returns the first JSON array or object embedded in s, or ""
// when neither is present. The model is told to answer with bare JSON but
// loves wrapping it in ```json fences anyway.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start >= 0 {
		if end := strings.LastIndex(s, "]"); end > start {
			return s[start : end+1]
		}
	}
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			return s[start : end+1]
		}
	}
	return ""
}
