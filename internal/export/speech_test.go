package export

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChunks(t *testing.T) {
	chunks := SplitChunks(CoachingScript("Backend Engineer"), MaxChunkChars)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), MaxChunkChars)
		assert.Equal(t, strings.TrimSpace(c), c)
	}
	assert.Equal(t,
		strings.Join(strings.Fields(CoachingScript("Backend Engineer")), " "),
		strings.Join(chunks, " "))
}

func TestSplitChunks_LongWord(t *testing.T) {
	word := strings.Repeat("a", 25)
	assert.Equal(t, []string{strings.Repeat("a", 10), strings.Repeat("a", 10), "aaaaa b"}, SplitChunks(word+" b", 10))
	assert.Equal(t, []string{strings.Repeat("a", 10)}, SplitChunks(strings.Repeat("a", 10), 10))
	assert.Empty(t, SplitChunks("   ", 10))
}

func TestHTTPSynthesizer_ConcatenatesChunks(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query().Get("q"))
		mu.Unlock()
		assert.Equal(t, "en", r.URL.Query().Get("tl"))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3" + r.URL.Query().Get("idx")))
	}))
	defer srv.Close()

	s := NewHTTPSynthesizer(srv.URL, 5*time.Second)
	text := CoachingScript("Dev")
	audio, err := s.Synthesize(context.Background(), text, "en")
	require.NoError(t, err)

	chunks := SplitChunks(text, MaxChunkChars)
	assert.Equal(t, chunks, queries)
	assert.True(t, strings.HasPrefix(string(audio), "ID30ID31"))
}

func TestHTTPSynthesizer_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewHTTPSynthesizer(srv.URL, 5*time.Second)
	_, err := s.Synthesize(context.Background(), "hello world", "en")
	assert.ErrorIs(t, err, common.ErrExportGeneration)

	_, err = s.Synthesize(context.Background(), "  ", "en")
	assert.ErrorIs(t, err, common.ErrExportGeneration)
}

func TestCoachingScript_MentionsRole(t *testing.T) {
	script := CoachingScript("Product Manager")
	assert.True(t, strings.HasPrefix(script, "Hello! Here are the key tips to improve your resume for the Product Manager position."))
	assert.Equal(t, 3, strings.Count(script, "Product Manager"))
}
