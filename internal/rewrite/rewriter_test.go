package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"curator/internal/config"
	"curator/internal/services"
)

type fakeCompleter struct {
	configured bool
	reply      string
	err        error
	prompt     string
}

func (f *fakeCompleter) Configured() bool { return f.configured }

func (f *fakeCompleter) Complete(_ context.Context, _ string, userPrompt string) (string, error) {
	f.prompt = userPrompt
	return f.reply, f.err
}

func TestRewriteStripsFenceAndTruncates(t *testing.T) {
	fake := &fakeCompleter{configured: true, reply: "```markdown\n# 标题\n\n正文\n```"}
	r := New(config.Rewrite{Enabled: true, MaxInputRunes: 5}, fake, nil)

	got, err := r.Rewrite(context.Background(), Request{Title: "T", URL: "u", Transcript: "一二三四五六七"})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got != "# 标题\n\n正文" {
		t.Fatalf("Rewrite = %q", got)
	}
	if !strings.Contains(fake.prompt, "一二三四五"+TruncationNotice) || strings.Contains(fake.prompt, "六七") {
		t.Fatalf("transcript not truncated in prompt:\n%s", fake.prompt)
	}
	if !strings.Contains(fake.prompt, "频道：未知") {
		t.Fatalf("missing channel fallback in prompt")
	}
}

func TestRewriteDisabled(t *testing.T) {
	cases := map[string]*Rewriter{
		"switched off": New(config.Rewrite{Enabled: false}, &fakeCompleter{configured: true}, nil),
		"no key":       New(config.Rewrite{Enabled: true}, &fakeCompleter{configured: false}, nil),
		"no client":    New(config.Rewrite{Enabled: true}, nil, nil),
	}
	for name, r := range cases {
		if r.Enabled() {
			t.Errorf("%s: reports enabled", name)
		}
		if _, err := r.Rewrite(context.Background(), Request{Transcript: "x"}); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("%s: expected ErrNotConfigured, got %v", name, err)
		}
	}
}

func TestRewriteWrapsBackendError(t *testing.T) {
	fake := &fakeCompleter{configured: true, err: errors.New("boom")}
	r := New(config.Rewrite{Enabled: true}, fake, nil)
	_, err := r.Rewrite(context.Background(), Request{Transcript: "x"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
}
