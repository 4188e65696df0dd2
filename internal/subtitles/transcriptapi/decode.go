package transcriptapi

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type envelope struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type payload struct {
	Transcript   string          `json:"transcript"`
	Detail       json.RawMessage `json:"detail"`
	Summary      string          `json:"summary"`
	Title        string          `json:"title"`
	Duration     json.RawMessage `json:"duration"`
	CoverURL     string          `json:"cover_url"`
	CoverURLAlt  string          `json:"coverUrl"`
	Language     string          `json:"language"`
	Subtitles    []subtitleLine  `json:"subtitles"`
	SubtitlesAlt []subtitleLine  `json:"subtitlesArray"`
}

type detailObject struct {
	Title           string          `json:"title"`
	Duration        json.RawMessage `json:"duration"`
	Cover           string          `json:"cover"`
	DescriptionText string          `json:"descriptionText"`
	SubtitlesArray  []subtitleLine  `json:"subtitlesArray"`
}

type subtitleLine struct {
	StartTime float64 `json:"startTime"`
	Text      string  `json:"text"`
}

func decodeResponse(raw []byte) (Transcript, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Transcript{}, &APIError{Message: fmt.Sprintf("decode response: %v", err)}
	}
	if code, present := parseCode(env.Code); present && code != "0" {
		if strings.EqualFold(code, "PAYMENT_REQUIRED") || code == "402" {
			return Transcript{}, fmt.Errorf("%w: %s", ErrPaymentRequired, env.Message)
		}
		return Transcript{}, &APIError{Code: code, Message: env.Message}
	}

	body := raw
	if trimmed := strings.TrimSpace(string(env.Data)); strings.HasPrefix(trimmed, "{") {
		body = env.Data
	}
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Transcript{}, &APIError{Message: fmt.Sprintf("decode payload: %v", err)}
	}

	out := Transcript{
		Summary:         strings.TrimSpace(p.Summary),
		Title:           strings.TrimSpace(p.Title),
		CoverURL:        firstNonEmpty(p.CoverURL, p.CoverURLAlt),
		Language:        firstNonEmpty(p.Language, defaultLanguage),
		DurationSeconds: parseDuration(p.Duration),
		Text:            strings.TrimSpace(p.Transcript),
	}

	var detail detailObject
	detailText := ""
	if len(p.Detail) > 0 {
		if err := json.Unmarshal(p.Detail, &detailText); err != nil {
			detailText = ""
			_ = json.Unmarshal(p.Detail, &detail)
		}
	}
	if out.Text == "" {
		out.Text = strings.TrimSpace(detailText)
	}
	if out.Text == "" {
		lines := p.Subtitles
		if len(lines) == 0 {
			lines = p.SubtitlesAlt
		}
		if len(lines) == 0 {
			lines = detail.SubtitlesArray
		}
		out.Text = joinSubtitles(lines)
	}
	if out.Title == "" {
		out.Title = strings.TrimSpace(detail.Title)
	}
	if out.CoverURL == "" {
		out.CoverURL = strings.TrimSpace(detail.Cover)
	}
	if out.DurationSeconds == 0 {
		out.DurationSeconds = parseDuration(detail.Duration)
	}
	if out.Text == "" {
		return Transcript{}, ErrEmptyTranscript
	}
	return out, nil
}

// parseCode accepts numeric or string codes. present is false when the
// field is absent or null.
func parseCode(raw json.RawMessage) (string, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatInt(int64(n), 10), true
	}
	return text, true
}

func parseDuration(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 && n < math.MaxInt32 {
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && v > 0 && v < math.MaxInt32 {
			return int(v)
		}
	}
	return 0
}

func joinSubtitles(lines []subtitleLine) string {
	var b strings.Builder
	for _, line := range lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		total := int(line.StartTime)
		if total < 0 {
			total = 0
		}
		fmt.Fprintf(&b, "[%02d:%02d:%02d] %s\n", total/3600, (total%3600)/60, total%60, text)
	}
	return strings.TrimSpace(b.String())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
