package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/rs/zerolog/log"
)

// MaxChunkChars is the longest text the TTS endpoint accepts per request.
const MaxChunkChars = 100

// Synthesizer converts text to MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// CoachingScript is the spoken summary of improvement tips for a role.
func CoachingScript(targetRole string) string {
	return strings.Join([]string{
		"Hello! Here are the key tips to improve your resume for the " + targetRole + " position.",
		"First, focus on strengthening your professional summary. Make sure it clearly states your value proposition and aligns with the " + targetRole + " requirements.",
		"Second, add more quantifiable achievements. Instead of saying you improved processes, specify by how much - percentages, dollar amounts, or timeframes make a big difference.",
		"Third, include industry-specific keywords that are relevant to " + targetRole + ". This helps your resume pass through applicant tracking systems.",
		"Fourth, ensure your experience descriptions are tailored to match the job requirements. Highlight skills and technologies that are most relevant.",
		"Finally, consider adding a dedicated skills section if you don't have one, and make sure your contact information is up to date.",
		"Remember, a great resume tells a story of how your experience makes you the perfect fit for this role. Keep refining and good luck with your applications!",
	}, " ")
}

// HTTPSynthesizer speaks to a Google Translate style TTS endpoint and
// concatenates the MP3 frames of each chunk.
type HTTPSynthesizer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSynthesizer creates a new HTTPSynthesizer.
func NewHTTPSynthesizer(baseURL string, timeout time.Duration) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Synthesize returns MP3 audio for text.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	chunks := SplitChunks(text, MaxChunkChars)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: nothing to speak", common.ErrExportGeneration)
	}

	var audio []byte
	for i, chunk := range chunks {
		part, err := s.fetch(ctx, chunk, lang, i, len(chunks))
		if err != nil {
			log.Error().Err(err).Int("chunk", i).Msg("TTS request failed")
			return nil, fmt.Errorf("%w: %v", common.ErrExportGeneration, err)
		}
		audio = append(audio, part...)
	}
	return audio, nil
}

func (s *HTTPSynthesizer) fetch(ctx context.Context, chunk, lang string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", chunk)
	q.Set("tl", lang)
	q.Set("client", "tw-ob")
	q.Set("ttsspeed", "1")
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", "http://translate.google.com/")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts endpoint returned %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("tts endpoint returned no audio")
	}
	return body, nil
}

// SplitChunks breaks text into pieces of at most limit runes, cutting at
// spaces. A single word longer than limit is cut mid-word.
func SplitChunks(text string, limit int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > limit {
			flush()
			r := []rune(word)
			chunks = append(chunks, string(r[:limit]))
			word = string(r[limit:])
		}
		if word == "" {
			continue
		}
		wl := utf8.RuneCountInString(word)
		if curLen > 0 && curLen+1+wl > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += wl
	}
	flush()
	return chunks
}
