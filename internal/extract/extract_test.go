package extract

import (
	"fmt"
	"strings"
	"testing"
)

// prose builds n sentences of wordsPer words each, joined into a single
// block, so tests can hit exact word and sentence counts.
func prose(n, wordsPer int) string {
	var sentences []string
	for i := 0; i < n; i++ {
		words := make([]string, wordsPer)
		for j := range words {
			words[j] = fmt.Sprintf("word%d", (i*wordsPer+j)%97)
		}
		sentences = append(sentences, strings.Join(words, " ")+".")
	}
	return strings.Join(sentences, " ")
}

func TestExtract_FullConfidenceScenario(t *testing.T) {
	// Rank-0 selector, 520 words in 26 sentences of 20 words, two
	// paragraphs: every confidence factor should saturate at 1.0.
	body := prose(13, 20)
	html := `<html><body><div id="entry-content"><p>` + body + `</p><p>` + body + `</p></div></body></html>`

	res := Extract(html)
	if res.Text == "" {
		t.Fatalf("expected extracted text, got none")
	}
	if res.Confidence != 1.0 {
		t.Fatalf("expected confidence 1.0, got %v", res.Confidence)
	}
	if !strings.Contains(res.Text, "\n") {
		t.Fatalf("expected paragraph break to survive extraction")
	}
}

func TestExtract_SelectorPriority(t *testing.T) {
	idText := prose(8, 15)
	articleText := "ARTICLE-TAG " + prose(8, 15)
	html := `<html><body>
		<article>` + articleText + `</article>
		<div id="entry-content">` + idText + `</div>
	</body></html>`

	res := Extract(html)
	if res.Text == "" {
		t.Fatalf("expected extracted text")
	}
	if strings.Contains(res.Text, "ARTICLE-TAG") {
		t.Fatalf("expected the ID container to win over the generic article tag")
	}
}

func TestExtract_ListingPageShortCircuit(t *testing.T) {
	html := `<html><body>
		<div class="post-card">teaser one</div>
		<div class="post-card">teaser two</div>
		<div class="post-card">teaser three</div>
		<p>` + prose(10, 20) + `</p>
	</body></html>`

	res := Extract(html)
	if res.Text != "" || res.Confidence != 0 {
		t.Fatalf("expected empty result for listing page, got %q (%v)", res.Text, res.Confidence)
	}
}

func TestExtract_LengthGate(t *testing.T) {
	at := strings.Repeat("a", 100)
	res := Extract(`<html><body><div id="entry-content">` + at + `</div></body></html>`)
	if res.Text != "" || res.Confidence != 0 {
		t.Fatalf("exactly 100 characters must be rejected, got %q", res.Text)
	}

	over := strings.Repeat("a", 101)
	res = Extract(`<html><body><div id="entry-content">` + over + `</div></body></html>`)
	if res.Text == "" {
		t.Fatalf("101 characters must be accepted")
	}
	if res.Confidence <= 0 || res.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", res.Confidence)
	}
}

func TestExtract_ParagraphFallbackFiltersShort(t *testing.T) {
	long1 := "First long paragraph with plenty of readable words inside it."
	long2 := "Second long paragraph that also clears the filter threshold."
	long3 := "Third long paragraph rounding out the remaining article body."
	html := `<html><body>
		<p>Short</p>
		<p>` + long1 + `</p>
		<p>Tiny</p>
		<p>` + long2 + `</p>
		<p>` + long3 + `</p>
	</body></html>`

	res := Extract(html)
	if res.Text == "" {
		t.Fatalf("expected paragraph fallback to produce text")
	}
	for _, want := range []string{long1, long2, long3} {
		if !strings.Contains(res.Text, want) {
			t.Fatalf("expected paragraph %q in result", want)
		}
	}
	for _, reject := range []string{"Short", "Tiny"} {
		if strings.Contains(res.Text, reject) {
			t.Fatalf("short paragraph %q must be filtered out", reject)
		}
	}
	if res.Confidence > paragraphFallbackCap {
		t.Fatalf("paragraph fallback confidence %v exceeds cap %v", res.Confidence, paragraphFallbackCap)
	}
}

func TestExtract_GenericContainerCap(t *testing.T) {
	html := `<html><body><section class="article-body">` + prose(10, 20) + `</section></body></html>`

	res := Extract(html)
	if res.Text == "" {
		t.Fatalf("expected generic container fallback to produce text")
	}
	// section.article-body is not on the ranked list, so the generic tier
	// ceiling applies.
	if res.Confidence > genericContainerCap {
		t.Fatalf("confidence %v exceeds generic container cap %v", res.Confidence, genericContainerCap)
	}
}

func TestExtract_PaywallCapsConfidence(t *testing.T) {
	html := `<html><body>
		<div class="paywall">Subscribe to continue reading</div>
		<div id="entry-content"><p>` + prose(13, 20) + `</p><p>` + prose(13, 20) + `</p></div>
	</body></html>`

	res := Extract(html)
	if res.Text == "" {
		t.Fatalf("paywalled pages should still yield teaser text")
	}
	if res.Confidence > paywallConfidenceCap {
		t.Fatalf("paywalled confidence %v exceeds cap %v", res.Confidence, paywallConfidenceCap)
	}
}

func TestExtract_NoiseRemoval(t *testing.T) {
	html := `<html><body><div id="entry-content">
		<nav>NAVIGATION LINKS</nav>
		<p>` + prose(10, 20) + `</p>
		<aside class="related-posts">RELATED POSTS</aside>
	</div></body></html>`

	res := Extract(html)
	if res.Text == "" {
		t.Fatalf("expected content")
	}
	if strings.Contains(res.Text, "NAVIGATION LINKS") || strings.Contains(res.Text, "RELATED POSTS") {
		t.Fatalf("noise elements must be stripped before reading text")
	}
}

func TestExtract_EmptyAndMalformedInputs(t *testing.T) {
	inputs := []string{
		"",
		"plain text, no markup at all",
		"<html><body></body></html>",
		"<div><p>unclosed everywhere",
		"<<<<>>>>",
	}
	for _, in := range inputs {
		res := Extract(in)
		if res.Confidence < 0 || res.Confidence > 1 {
			t.Fatalf("confidence out of bounds for %q: %v", in, res.Confidence)
		}
		if (res.Text == "") != (res.Confidence == 0) {
			t.Fatalf("empty-text/zero-confidence invariant violated for %q: %q (%v)", in, res.Text, res.Confidence)
		}
	}
}

func TestExtract_StructurePenaltyForWallOfText(t *testing.T) {
	// One long run-on sentence: avg words per sentence far above the window,
	// so the structure factor drops to its penalty value.
	words := make([]string, 520)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i%89)
	}
	html := `<html><body><div id="entry-content"><p>` + strings.Join(words, " ") + `.</p><p>` + strings.Join(words, " ") + `.</p></div></body></html>`

	res := Extract(html)
	if res.Text == "" {
		t.Fatalf("expected content")
	}
	want := (selectorWeight*1.0 + lengthWeight*1.0 + structureWeight*structurePenalty + patternWeight*1.0) / weightTotal
	if diff := res.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected confidence %v, got %v", want, res.Confidence)
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"a  b\tc\n\n\nd",
		"  leading and trailing  \n mixed \t whitespace ",
		"already\nclean\nlines",
	}
	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Fatalf("Clean not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestClean_NormalizesWhitespace(t *testing.T) {
	got := Clean("one   two\n\n  three\tfour  \n")
	want := "one two\nthree four"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
