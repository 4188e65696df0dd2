package rewrite

import "strings"

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChoice struct {
	Message chatText `json:"message"`
	// Some OpenAI-compatible gateways answer with the streaming shape or the
	// legacy completions field even for non-streamed calls.
	Delta        chatText `json:"delta"`
	Text         string   `json:"text"`
	FinishReason string   `json:"finish_reason"`
}

type chatText struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

type chatCompletionResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// answer returns the first non-blank content across choices plus the first
// finish reason and refusal seen.
func (r chatCompletionResponse) answer() (content, finishReason, refusal string) {
	for _, c := range r.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(c.FinishReason)
		}
		if refusal == "" {
			refusal = firstNonBlank(c.Message.Refusal, c.Delta.Refusal)
		}
		if content == "" {
			content = firstNonBlank(c.Message.Content, c.Delta.Content, c.Text)
		}
	}
	return content, finishReason, refusal
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// snippet collapses whitespace and cuts s to 160 runes for error messages.
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "<empty>"
	}
	if r := []rune(s); len(r) > 160 {
		return string(r[:160]) + "..."
	}
	return s
}
