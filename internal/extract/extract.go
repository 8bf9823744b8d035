package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Result is the outcome of a single extraction attempt. Text is the cleaned
// article body and Confidence a heuristic reliability estimate in [0,1].
// An empty Text always carries a zero Confidence.
type Result struct {
	Text       string
	Confidence float64
}

// Tuning constants for the extraction cascade. The selector blend mixes its
// four signals 4:3:2:1; each fallback tier below the ordered scan gets a
// progressively lower confidence ceiling because it is more likely to capture
// boilerplate.
const (
	// minContentLength is the uniform "is this actually content" gate: a
	// candidate region must yield strictly more than this many characters.
	minContentLength = 100
	// minParagraphLength filters nav and caption noise out of the paragraph
	// aggregation fallback.
	minParagraphLength = 30
	// fullLengthWords is the word count at which length confidence saturates.
	fullLengthWords = 500

	selectorWeight  = 4
	lengthWeight    = 3
	structureWeight = 2
	patternWeight   = 1
	weightTotal     = selectorWeight + lengthWeight + structureWeight + patternWeight

	// rankDecay lowers selector confidence linearly by list position.
	rankDecay = 0.05

	// Well-formed prose averages between these words per sentence
	// (exclusive); anything outside is penalized as caption/list noise or
	// wall-of-text.
	minAvgSentenceWords = 10
	maxAvgSentenceWords = 30
	structurePenalty    = 0.7

	// singleBlockPattern applies when the text has no internal paragraph
	// break.
	singleBlockPattern = 0.8

	templateProbeCap     = 0.6
	paragraphFallbackCap = 0.5
	genericContainerCap  = 0.4

	// paywallConfidenceCap bounds the final confidence whenever a
	// subscription gate is present, regardless of which tier produced the
	// text. Teaser text is trusted no more than a feed summary.
	paywallConfidenceCap = 0.3

	// maxArticleCards is the highest card count still treated as a single
	// article page; anything above it is a listing page.
	maxArticleCards = 2
)

// contentSelectors is the ordered scan list: most structurally specific
// first. Position doubles as priority rank, so earlier entries yield higher
// base confidence. The list is static configuration and never mutated.
var contentSelectors = []string{
	"#entry-content",
	".entry-content",
	"div.entry-content",
	"article.post",
	`article[role="main"]`,
	"main article.post",
	"main article",
	"div.article-content",
	"div.post-content",
	"div.content-body",
	"section.post-content",
	"div.content",
	"article",
	"main",
}

// paywallSelectors indicate gated content; a match caps confidence but does
// not abort extraction since teaser text may still be usable.
var paywallSelectors = []string{
	"iframe.omedagate",
	".paywall",
	".subscriber-only",
	".premium-content",
}

const (
	articleCardSelectors     = ".post-card, .article-card, .entry-card"
	noiseSelectors           = "script, style, nav, header, footer, aside, .related-posts, .newsletter-signup"
	probeNoiseSelectors      = "script, style, nav, header, footer, aside"
	templateProbeSelector    = "article.post"
	genericContainerSelector = "div.content, section.content, div.article-body, section.article-body"
)

var sentenceEndRe = regexp.MustCompile(`[.!?]+`)

// Extract returns the main readable text of an HTML page together with a
// confidence score. It never fails: malformed or unmatchable HTML is a valid
// "no content" result, not an error. The function is pure and stateless and
// is safe for concurrent use.
func Extract(rawHTML string) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Result{}
	}

	paywalled := false
	for _, sel := range paywallSelectors {
		if doc.Find(sel).Length() > 0 {
			paywalled = true
			break
		}
	}

	// Listing pages enumerate many short teasers that would otherwise pass
	// the length gate, so they are rejected outright.
	if doc.Find(articleCardSelectors).Length() > maxArticleCards {
		return Result{}
	}

	finish := func(text string, confidence float64) Result {
		if paywalled && confidence > paywallConfidenceCap {
			confidence = paywallConfidenceCap
		}
		return Result{Text: Clean(text), Confidence: confidence}
	}

	// Ordered selector scan, first-match-wins: once a selector yields a
	// qualifying region no further selectors are tried.
	for rank, sel := range contentSelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		el.Find(noiseSelectors).Remove()
		text := blockText(el)
		if len(text) <= minContentLength {
			// Short matches are noise, e.g. empty theme containers.
			continue
		}
		return finish(text, scoreMatch(rank, text))
	}

	// Secondary fallback: one specific probe for a common blog template,
	// capped lower because it sits outside the ranked list.
	if probe := doc.Find(templateProbeSelector).First(); probe.Length() > 0 {
		probe.Find(probeNoiseSelectors).Remove()
		text := blockText(probe)
		if len(text) > minContentLength {
			return finish(text, cappedLengthConfidence(text, templateProbeCap))
		}
	}

	// Tertiary fallback: aggregate every paragraph long enough to be prose.
	var kept []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		t := strings.TrimSpace(p.Text())
		if len(t) > minParagraphLength {
			kept = append(kept, t)
		}
	})
	if len(kept) > 0 {
		text := strings.Join(kept, "\n")
		if len(text) > minContentLength {
			return finish(text, cappedLengthConfidence(text, paragraphFallbackCap))
		}
	}

	// Quaternary fallback: generic content containers, first qualifying one
	// wins.
	var out Result
	doc.Find(genericContainerSelector).EachWithBreak(func(_ int, c *goquery.Selection) bool {
		text := blockText(c)
		if len(text) > minContentLength {
			out = finish(text, cappedLengthConfidence(text, genericContainerCap))
			return false
		}
		return true
	})
	return out
}

// scoreMatch blends four signals into the final confidence for a ranked
// selector match.
func scoreMatch(rank int, text string) float64 {
	selectorConfidence := 1.0 - float64(rank)*rankDecay

	words := len(strings.Fields(text))
	sentences := len(sentenceEndRe.Split(text, -1))
	if sentences < 1 {
		sentences = 1
	}
	avgSentence := float64(words) / float64(sentences)

	lengthConfidence := float64(words) / fullLengthWords
	if lengthConfidence > 1.0 {
		lengthConfidence = 1.0
	}

	structureConfidence := structurePenalty
	if avgSentence > minAvgSentenceWords && avgSentence < maxAvgSentenceWords {
		structureConfidence = 1.0
	}

	patternConfidence := singleBlockPattern
	if strings.Contains(text, "\n") {
		patternConfidence = 1.0
	}

	// Integer-scaled terms with a single division: when every signal
	// saturates the sum is exactly weightTotal, so the score lands on 1.0
	// with no float drift.
	confidence := (selectorWeight*selectorConfidence +
		lengthWeight*lengthConfidence +
		structureWeight*structureConfidence +
		patternWeight*patternConfidence) / weightTotal
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// cappedLengthConfidence scores a fallback match purely by word count,
// bounded by the tier ceiling.
func cappedLengthConfidence(text string, ceiling float64) float64 {
	confidence := float64(len(strings.Fields(text))) / fullLengthWords
	if confidence > ceiling {
		confidence = ceiling
	}
	return confidence
}

// blockText collects the text of a selection with block-level separation:
// each non-empty text node contributes one line, joined by single newlines.
func blockText(s *goquery.Selection) string {
	var parts []string
	for _, n := range s.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(parts, "\n")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// Clean normalizes extracted text: whitespace runs collapse to single spaces
// per line, blank lines are dropped, and lines are rejoined with single
// newlines. Clean is idempotent.
func Clean(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
