package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"BookAnnotator/internal/domain"
)

const pageHTML = `<html><head><title>t</title><style>.x{}</style></head>
<body>
  <nav>Главная   Каталог</nav>
  <main>
    <article>Учебное пособие
      «Ресторанный бизнес»</article>
    <div class="description">предназначено для студентов</div>
  </main>
  <script>var x = 1;</script>
  <footer>footer</footer>
</body></html>`

func TestFetchHTMLRestrictsToContent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("unexpected user agent: %s", ua)
		}
		_, _ = w.Write([]byte(pageHTML))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), Options{})
	got, err := f.Fetch(context.Background(), domain.CandidateSource{URL: server.URL + "/book", Kind: domain.KindHTML})
	require.NoError(t, err)
	require.Equal(t, domain.KindHTML, got.Kind)
	require.Equal(t, "Учебное пособие «Ресторанный бизнес» предназначено для студентов", got.RawText)
	require.NotContains(t, got.RawText, "footer")
}

func TestFetchHTMLFallsBackToBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>Только\n\n тело</p><main>  </main></body></html>"))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), Options{})
	got, err := f.Fetch(context.Background(), domain.CandidateSource{URL: server.URL})
	require.NoError(t, err)
	require.Equal(t, "Только тело", got.RawText)
}

func TestFetchRejectsShortPDFText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 stub"))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), Options{})
	f.parsePDF = func([]byte) (string, error) { return "   короткий   текст  ", nil }

	_, err := f.Fetch(context.Background(), domain.CandidateSource{URL: server.URL + "/a.pdf", Kind: domain.KindPDF})
	require.ErrorIs(t, err, ErrPDFTooShort)
}

func TestFetchAcceptsPDFText(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 body"))
	}))
	defer server.Close()

	long := strings.Repeat("учебное   пособие\n", 10)
	f := NewFetcher(server.Client(), Options{})
	f.parsePDF = func(data []byte) (string, error) {
		gotBody = data
		return long, nil
	}

	got, err := f.Fetch(context.Background(), domain.CandidateSource{URL: server.URL + "/a.PDF"})
	require.NoError(t, err)
	require.Equal(t, domain.KindPDF, got.Kind)
	require.Equal(t, "%PDF-1.4 body", string(gotBody))
	require.Equal(t, strings.TrimSpace(strings.Repeat("учебное пособие ", 10)), got.RawText)
}

func TestFetchPDFParseRacesDeadline(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF"))
	}))
	defer server.Close()

	release := make(chan struct{})
	defer close(release)

	f := NewFetcher(server.Client(), Options{PDFTimeout: 50 * time.Millisecond})
	f.parsePDF = func([]byte) (string, error) {
		<-release
		return "", nil
	}

	start := time.Now()
	_, err := f.Fetch(context.Background(), domain.CandidateSource{URL: server.URL + "/slow.pdf", Kind: domain.KindPDF})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestFetchHTMLDeadline(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), Options{HTMLTimeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := f.Fetch(context.Background(), domain.CandidateSource{URL: server.URL})
	require.Error(t, err)
	require.Less(t, time.Since(start), time.Second)
}

func TestFetchNonSuccessStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	f := NewFetcher(server.Client(), Options{})
	_, err := f.Fetch(context.Background(), domain.CandidateSource{URL: server.URL + "/missing"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestFetchBodyLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), Options{MaxBodyBytes: 16})
	_, err := f.Fetch(context.Background(), domain.CandidateSource{URL: server.URL})
	require.ErrorIs(t, err, ErrBodyTooLong)
}

func TestSanitizeURL(t *testing.T) {
	t.Parallel()

	got, err := sanitizeURL(" https://lib.kz/ book .pdf\n")
	require.NoError(t, err)
	require.Equal(t, "https://lib.kz/book.pdf", got)

	for _, bad := range []string{"", "lib.kz/book", "ftp://lib.kz/a", "https://"} {
		_, err := sanitizeURL(bad)
		require.True(t, errors.Is(err, ErrInvalidURL), "expected invalid url for %q", bad)
	}
}

func TestExtractPDFTextRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := extractPDFText([]byte("definitely not a pdf"))
	require.Error(t, err)
}
