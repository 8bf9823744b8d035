package ideas

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/newsdrift/contentpipeline/internal/feed"
)

func techArticle(title, url string) feed.Article {
	return feed.Article{
		Title:   title,
		URL:     url,
		Summary: "Software platform adopts automation and digital data systems across the industry.",
		Content: "The software platform uses automation, automation and more automation. Digital data drives every system decision.",
	}
}

func TestGenerate_EmptyInput(t *testing.T) {
	var g Generator
	if got := g.Generate(nil); got != nil {
		t.Fatalf("expected nil ideas for no articles, got %d", len(got))
	}
}

func TestGenerate_CapAndDeduplication(t *testing.T) {
	var g Generator
	articles := []feed.Article{
		techArticle("Automation Platform News", "https://example.com/a"),
		techArticle("Automation Platform News", "https://example.com/b"),
		techArticle("Digital Freight Shipping Grows", "https://example.com/c"),
	}
	ideas := g.Generate(articles)
	if len(ideas) == 0 {
		t.Fatal("expected ideas")
	}
	if len(ideas) > maxIdeas {
		t.Fatalf("got %d ideas, cap is %d", len(ideas), maxIdeas)
	}
	seen := make(map[string]struct{})
	for _, idea := range ideas {
		if _, dup := seen[idea.Title]; dup {
			t.Fatalf("duplicate title survived: %q", idea.Title)
		}
		seen[idea.Title] = struct{}{}
	}
	// Two articles share a title, so their per-article ideas collapse.
	for i := 1; i < len(ideas); i++ {
		if len(ideas[i].Keywords) > len(ideas[i-1].Keywords) {
			t.Fatalf("ideas not sorted by keyword count: %d after %d",
				len(ideas[i].Keywords), len(ideas[i-1].Keywords))
		}
	}
}

func TestGenerate_IsDeterministic(t *testing.T) {
	var g Generator
	articles := []feed.Article{
		techArticle("Supply Chain Automation Report", "https://example.com/a"),
		techArticle("Green Shipping Emission Policy", "https://example.com/b"),
	}
	first := g.Generate(articles)
	for run := 0; run < 5; run++ {
		again := g.Generate(articles)
		if len(again) != len(first) {
			t.Fatalf("run %d: got %d ideas, want %d", run, len(again), len(first))
		}
		for i := range first {
			if again[i].Title != first[i].Title {
				t.Fatalf("run %d: idea %d title %q, want %q", run, i, again[i].Title, first[i].Title)
			}
		}
	}
}

func TestExtractKeywords_FiltersAndOrders(t *testing.T) {
	articles := []feed.Article{{
		Title:   "The cat sat",
		Summary: "freight freight freight shipping shipping warehouse",
	}}
	words := extractKeywords(articles)
	if len(words) == 0 {
		t.Fatal("expected keywords")
	}
	if words[0] != "freight" {
		t.Fatalf("most frequent keyword = %q, want freight", words[0])
	}
	for _, w := range words {
		if len(w) < minKeywordLength {
			t.Fatalf("short word %q not filtered", w)
		}
		if _, stop := stopWords[w]; stop {
			t.Fatalf("stop word %q not filtered", w)
		}
	}
}

func TestIdentifyThemes(t *testing.T) {
	themes := identifyThemes([]string{"freight", "shipping", "warehouse", "software", "quasar"})
	logistics, ok := themes["logistics"]
	if !ok {
		t.Fatal("logistics theme not identified")
	}
	if len(logistics) != 3 {
		t.Fatalf("logistics keywords = %v, want 3 entries", logistics)
	}
	if _, ok := themes["technology"]; !ok {
		t.Fatal("technology theme not identified")
	}
	if _, ok := themes["finance"]; ok {
		t.Fatal("finance theme identified with no matching keywords")
	}
}

func TestCrossArticleIdeas_RequireThemeDepth(t *testing.T) {
	articles := []feed.Article{{Title: "x", URL: "https://example.com/x"}}
	thin := map[string][]string{"finance": {"cost", "price"}}
	if out := crossArticleIdeas(articles, thin); len(out) != 0 {
		t.Fatalf("theme with %d keywords produced %d roundups", 2, len(out))
	}
	deep := map[string][]string{"finance": {"cost", "price", "funding"}}
	out := crossArticleIdeas(articles, deep)
	if len(out) != 4 {
		t.Fatalf("got %d roundup ideas, want 4", len(out))
	}
	for _, idea := range out {
		if idea.ContentType != "Newsletter" {
			t.Fatalf("roundup content type = %q, want Newsletter", idea.ContentType)
		}
		if !strings.Contains(idea.Title, "Finance") {
			t.Fatalf("roundup title %q missing theme name", idea.Title)
		}
	}
}

func TestMainTopic(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"The Freight Market Report", "Freight Market"},
		{"An Update", "Update"},
		{"plain title", "Plain Title"},
	}
	for _, tc := range cases {
		if got := mainTopic(tc.in); got != tc.want {
			t.Fatalf("mainTopic(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	long := mainTopic(strings.Repeat("very long headline ", 10))
	if !strings.HasSuffix(long, "...") {
		t.Fatalf("long title not truncated: %q", long)
	}
}

type stubChat struct {
	reply    string
	err      error
	calls    int
	lastUser string
}

func (s *stubChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls++
	if n := len(req.Messages); n > 0 {
		s.lastUser = req.Messages[n-1].Content
	}
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.reply}},
		},
	}, nil
}

func TestLLMRefiner_RewritesTitles(t *testing.T) {
	chat := &stubChat{reply: "1. Better First\n2. Better Second"}
	r := &LLMRefiner{Client: chat, Model: "test-model"}
	in := []Idea{{Title: "first"}, {Title: "second"}}
	out := r.Refine(in)
	if chat.calls != 1 {
		t.Fatalf("chat calls = %d, want 1", chat.calls)
	}
	if chat.lastUser != "1. first\n2. second" {
		t.Fatalf("request titles = %q, want numbered lines", chat.lastUser)
	}
	if out[0].Title != "Better First" || out[1].Title != "Better Second" {
		t.Fatalf("refined titles = %q, %q", out[0].Title, out[1].Title)
	}
	if in[0].Title != "first" {
		t.Fatal("input slice mutated")
	}
}

func TestLLMRefiner_KeepsOriginalsOnError(t *testing.T) {
	chat := &stubChat{err: errors.New("boom")}
	r := &LLMRefiner{Client: chat, Model: "test-model"}
	in := []Idea{{Title: "first"}}
	out := r.Refine(in)
	if out[0].Title != "first" {
		t.Fatalf("title changed on error: %q", out[0].Title)
	}
}

func TestLLMRefiner_PartialResponse(t *testing.T) {
	chat := &stubChat{reply: "Only One"}
	r := &LLMRefiner{Client: chat, Model: "test-model"}
	out := r.Refine([]Idea{{Title: "first"}, {Title: "second"}})
	if out[0].Title != "Only One" {
		t.Fatalf("first title = %q", out[0].Title)
	}
	if out[1].Title != "second" {
		t.Fatalf("unmatched title changed: %q", out[1].Title)
	}
}

func TestGenerate_RefinerIsApplied(t *testing.T) {
	chat := &stubChat{reply: strings.Repeat("Refined\n", maxIdeas)}
	g := Generator{Refiner: &LLMRefiner{Client: chat, Model: "m"}}
	ideas := g.Generate([]feed.Article{techArticle("Automation Platform", "https://example.com/a")})
	if len(ideas) == 0 {
		t.Fatal("expected ideas")
	}
	if chat.calls != 1 {
		t.Fatalf("refiner not invoked: calls = %d", chat.calls)
	}
	if ideas[0].Title != "Refined" {
		t.Fatalf("refined title = %q", ideas[0].Title)
	}
}
