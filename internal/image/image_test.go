package image

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rladydgns3001-ui/autopost/internal/config"
)

func TestPromptFor(t *testing.T) {
	if got := PromptFor("워드프레스 블로그 시작하기"); !strings.HasPrefix(got, "modern blog writing") {
		t.Errorf("expected first matching hint to win, got %q", got)
	}
	if got := PromptFor("연말정산"); got != defaultPrompt {
		t.Errorf("expected default prompt, got %q", got)
	}
}

func TestGeneratedFind(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&req)
		w.Write([]byte(`{"data":[{"url":"https://img.example.com/a.png"}]}`))
	}))
	defer srv.Close()

	g := NewGenerated("dall-e-3", "1792x1024", "sk")
	g.BaseURL = srv.URL
	img, err := g.Find(context.Background(), "SEO 전략")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img == nil || img.URL != "https://img.example.com/a.png" || img.Alt != "SEO 전략" {
		t.Fatalf("unexpected image %+v", img)
	}
	if req["size"] != "1792x1024" || req["model"] != "dall-e-3" {
		t.Errorf("unexpected request %v", req)
	}
	if p, _ := req["prompt"].(string); !strings.HasSuffix(p, ", high quality, 16:9 aspect ratio, no text") || !strings.HasPrefix(p, "search engine optimization") {
		t.Errorf("unexpected prompt %q", p)
	}
}

func TestGeneratedEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	g := NewGenerated("dall-e-3", "1792x1024", "sk")
	g.BaseURL = srv.URL
	img, err := g.Find(context.Background(), "x")
	if err != nil || img != nil {
		t.Errorf("expected no image and no error, got %+v %v", img, err)
	}
}

func TestGeneratedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"content policy"}`))
	}))
	defer srv.Close()

	g := NewGenerated("dall-e-3", "1792x1024", "sk")
	g.BaseURL = srv.URL
	if _, err := g.Find(context.Background(), "x"); err == nil {
		t.Error("expected error for 400")
	}
}

func TestStockFind(t *testing.T) {
	var auth, query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		query = r.URL.Query().Get("query")
		w.Write([]byte(`{"results":[{"urls":{"regular":"https://images.unsplash.com/p"},"user":{"name":"Kim","links":{"html":"https://unsplash.com/@kim"}}}]}`))
	}))
	defer srv.Close()

	s := NewStock("access")
	s.BaseURL = srv.URL
	img, err := s.Find(context.Background(), "AI 글쓰기")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.URL != "https://images.unsplash.com/p" || img.Credit != "Kim" || img.CreditURL != "https://unsplash.com/@kim" {
		t.Errorf("unexpected image %+v", img)
	}
	if auth != "Client-ID access" {
		t.Errorf("unexpected auth %q", auth)
	}
	if !strings.HasPrefix(query, "artificial intelligence") {
		t.Errorf("unexpected query %q", query)
	}
}

func TestStockNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	s := NewStock("access")
	s.BaseURL = srv.URL
	if img, err := s.Find(context.Background(), "x"); err != nil || img != nil {
		t.Errorf("expected nothing, got %+v %v", img, err)
	}
}

func TestNewSource(t *testing.T) {
	cases := map[string]string{"generated": "generated", "stock": "stock", "none": "none", "": "none"}
	for in, want := range cases {
		src, err := NewSource(config.Image{Source: in}, "k")
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", in, err)
		}
		if src.Name() != want {
			t.Errorf("%q: expected %s, got %s", in, want, src.Name())
		}
	}
	if _, err := NewSource(config.Image{Source: "clipart"}, ""); err == nil {
		t.Error("expected error for unknown source")
	}

	img, err := None{}.Find(context.Background(), "x")
	if img != nil || err != nil {
		t.Error("expected none source to return nothing")
	}
}

func TestDownload(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(png)
	}))
	defer srv.Close()

	data, ct, err := Download(context.Background(), nil, srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != len(png) {
		t.Errorf("expected %d bytes, got %d", len(png), len(data))
	}
	if ct != "image/png" {
		t.Errorf("expected sniffed image/png, got %q", ct)
	}
	if Extension(ct) != ".png" || Extension("image/jpeg") != ".jpg" {
		t.Error("unexpected extension mapping")
	}
}
