package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestExtractResultLinks(t *testing.T) {
	t.Parallel()

	html := `
	<div class="results">
	  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Flib.kz%2Fbook.pdf&amp;rut=abc">Book</a>
	  <a class="result__url" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Flib.kz%2Fbook.pdf&amp;rut=abc">lib.kz</a>
	  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2F%D0%BA%D0%BD%D0%B8%D0%B3%D0%B0">Книга</a>
	  <a href="/html/?q=next">Next</a>
	</div>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	links := extractResultLinks(doc)
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d: %v", len(links), links)
	}
	if links[0] != "https://lib.kz/book.pdf" {
		t.Fatalf("unexpected first link: %s", links[0])
	}
	if links[1] != "https://example.org/книга" {
		t.Fatalf("unexpected second link: %s", links[1])
	}
}

func TestDuckDuckGoSearch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "Ресторанный бизнес 2010" {
			t.Errorf("unexpected query: %q", r.URL.Query().Get("q"))
		}
		if !strings.HasPrefix(r.Header.Get("Accept-Language"), "kk-KZ") {
			t.Errorf("missing language hint: %q", r.Header.Get("Accept-Language"))
		}
		_, _ = w.Write([]byte(`<a href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fedu.kz%2Fa.pdf">a</a>`))
	}))
	defer server.Close()

	engine := NewDuckDuckGo(server.Client(), Options{Endpoint: server.URL + "/html/"})
	links, err := engine.Search(context.Background(), "Ресторанный бизнес 2010")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(links) != 1 || links[0] != "https://edu.kz/a.pdf" {
		t.Fatalf("unexpected links: %v", links)
	}
}

func TestDuckDuckGoSearchNonOK(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	engine := NewDuckDuckGo(server.Client(), Options{Endpoint: server.URL})
	if _, err := engine.Search(context.Background(), "q"); err == nil {
		t.Fatalf("expected error on 403")
	}
}

func TestSearXNGSearch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("json format not requested: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"url":"https://a.kz/1"},{"url":""},{"url":"https://b.kz/2.pdf"}]}`))
	}))
	defer server.Close()

	engine := NewSearXNG(server.Client(), Options{Endpoint: server.URL + "/"})
	links, err := engine.Search(context.Background(), "учебное пособие")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(links) != 2 || links[1] != "https://b.kz/2.pdf" {
		t.Fatalf("unexpected links: %v", links)
	}
}

func TestSearXNGRequiresEndpoint(t *testing.T) {
	t.Parallel()

	engine := NewSearXNG(nil, Options{})
	if _, err := engine.Search(context.Background(), "q"); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}
