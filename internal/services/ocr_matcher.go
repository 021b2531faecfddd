package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/codyseavey/pokefolio/backend/internal/metrics"
	"github.com/codyseavey/pokefolio/backend/internal/models"
)

const (
	// DefaultMaxScanResults caps the cards returned by one scan.
	DefaultMaxScanResults = 10
	maxCandidatePhrases   = 15
	maxPhraseWords        = 3
	minTokenLength        = 3
	minPhraseLength       = 3
	phrasePageSize        = 6
	numberPageSize        = 10
)

var (
	ocrMarkupChars  = regexp.MustCompile(`[|*_=\[\]{}<>]`)
	ocrDisallowed   = regexp.MustCompile(`[^\w\s/.-]`)
	ocrWhitespace   = regexp.MustCompile(`\s+`)
	digitsOnly      = regexp.MustCompile(`^\d+$`)
	collectorNumber = regexp.MustCompile(`\b(\d{1,3})\s*/\s*\d{1,3}\b`)
)

// TextRecognizer turns a card image into raw text.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// StaticRecognizer is used when recognition already happened on the client:
// the uploaded payload is the recognized text itself.
type StaticRecognizer struct{}

func (StaticRecognizer) Recognize(_ context.Context, payload []byte) (string, error) {
	if !utf8.Valid(payload) {
		return "", errors.New("payload is not UTF-8 text; run OCR before uploading")
	}
	return string(payload), nil
}

// ScanResult is the outcome of matching one block of recognized text.
type ScanResult struct {
	RecognizedText string        `json:"recognized_text"`
	Sanitized      string        `json:"sanitized"`
	Phrases        []string      `json:"phrases"`
	Cards          []models.Card `json:"cards"`
	NumberFallback string        `json:"number_fallback,omitempty"`
}

// SanitizeOCRText removes markup noise and collapses whitespace.
func SanitizeOCRText(text string) string {
	text = ocrMarkupChars.ReplaceAllString(text, " ")
	text = ocrDisallowed.ReplaceAllString(text, " ")
	text = ocrWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// TokenizeOCRText splits sanitized text into tokens, dropping short ones.
func TokenizeOCRText(sanitized string) []string {
	var tokens []string
	for _, tok := range strings.Split(sanitized, " ") {
		if len(tok) >= minTokenLength {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// BuildCandidatePhrases emits every run of up to three adjacent tokens,
// longest windows first, skipping short or purely numeric phrases. The
// result is deduplicated, ordered by length (longest first, stable) and capped.
func BuildCandidatePhrases(tokens []string) []string {
	seen := make(map[string]bool)
	var phrases []string

	for size := min(maxPhraseWords, len(tokens)); size >= 1; size-- {
		for i := 0; i+size <= len(tokens); i++ {
			phrase := strings.Join(tokens[i:i+size], " ")
			if len(phrase) < minPhraseLength || digitsOnly.MatchString(phrase) {
				continue
			}
			if !seen[phrase] {
				seen[phrase] = true
				phrases = append(phrases, phrase)
			}
		}
	}

	sort.SliceStable(phrases, func(i, j int) bool {
		return len(phrases[i]) > len(phrases[j])
	})
	if len(phrases) > maxCandidatePhrases {
		phrases = phrases[:maxCandidatePhrases]
	}
	return phrases
}

// OCRMatcher turns noisy recognized text into candidate cards.
type OCRMatcher struct {
	api        CardAPI
	recognizer TextRecognizer
	maxResults int
}

// NewOCRMatcher creates a matcher. maxResults outside 1..DefaultMaxScanResults
// falls back to the default; a nil recognizer uses StaticRecognizer.
func NewOCRMatcher(api CardAPI, recognizer TextRecognizer, maxResults int) *OCRMatcher {
	if maxResults <= 0 || maxResults > DefaultMaxScanResults {
		maxResults = DefaultMaxScanResults
	}
	if recognizer == nil {
		recognizer = StaticRecognizer{}
	}
	return &OCRMatcher{api: api, recognizer: recognizer, maxResults: maxResults}
}

// Identify recognizes the image and matches the text.
func (m *OCRMatcher) Identify(ctx context.Context, image []byte) (*ScanResult, error) {
	text, err := m.recognizer.Recognize(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("text recognition failed: %w", err)
	}
	return m.FindCards(ctx, text)
}

// FindCards queries the card API once per candidate phrase, in order, and
// collects unique cards until the result limit is reached. A failing phrase
// is skipped. When no phrase matches, a collector number such as "25/165"
// is tried instead.
func (m *OCRMatcher) FindCards(ctx context.Context, text string) (*ScanResult, error) {
	result := &ScanResult{RecognizedText: text, Cards: []models.Card{}}

	result.Sanitized = SanitizeOCRText(text)
	if result.Sanitized == "" {
		metrics.OCRScansTotal.WithLabelValues("empty").Inc()
		return result, nil
	}

	result.Phrases = BuildCandidatePhrases(TokenizeOCRText(result.Sanitized))
	seen := make(map[string]bool)
	tried := 0

	for _, phrase := range result.Phrases {
		if m.enough(result) {
			break
		}
		if ctx.Err() != nil {
			metrics.OCRScansTotal.WithLabelValues("aborted").Inc()
			return nil, fmt.Errorf("%w: %v", ErrAborted, ctx.Err())
		}

		tried++
		found, err := m.api.SearchCards(ctx, NameQuery(phrase, phrasePageSize))
		if err != nil {
			if errors.Is(err, ErrAborted) {
				metrics.OCRScansTotal.WithLabelValues("aborted").Inc()
				return nil, err
			}
			log.Printf("OCR matcher: phrase %q failed: %v", phrase, err)
			continue
		}
		m.collect(result, seen, found)
	}
	metrics.OCRPhrasesTried.Observe(float64(tried))

	if len(result.Cards) > 0 {
		metrics.OCRScansTotal.WithLabelValues("phrase").Inc()
		return result, nil
	}

	match := collectorNumber.FindStringSubmatch(result.Sanitized)
	if match == nil {
		metrics.OCRScansTotal.WithLabelValues("empty").Inc()
		return result, nil
	}

	result.NumberFallback = match[1]
	found, err := m.api.SearchCards(ctx, NumberQuery(match[1], numberPageSize))
	if err != nil {
		if errors.Is(err, ErrAborted) {
			metrics.OCRScansTotal.WithLabelValues("aborted").Inc()
		}
		return nil, err
	}
	m.collect(result, seen, found)
	metrics.OCRScansTotal.WithLabelValues("number_fallback").Inc()
	return result, nil
}

// enough reports whether the scan has reached its result limit.
func (m *OCRMatcher) enough(result *ScanResult) bool {
	return len(result.Cards) >= m.maxResults
}

func (m *OCRMatcher) collect(result *ScanResult, seen map[string]bool, found *models.CardSearchResult) {
	if found == nil {
		return
	}
	for _, card := range found.Cards {
		if m.enough(result) {
			return
		}
		if seen[card.ID] {
			continue
		}
		seen[card.ID] = true
		result.Cards = append(result.Cards, card)
	}
}
