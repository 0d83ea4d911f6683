package bhashini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dskvich/nyay-sahayak-bot/pkg/domain"
)

func TestNormalizeLanguages(t *testing.T) {
	tests := []struct {
		name string
		in   []domain.Language
		want string
	}{
		{
			name: "english missing",
			in:   []domain.Language{{Code: "hi", Name: "Hindi"}},
			want: "en,hi",
		},
		{
			name: "english moved first",
			in:   []domain.Language{{Code: "hi", Name: "Hindi"}, {Code: "en", Name: "English"}, {Code: "ta", Name: "Tamil"}},
			want: "en,hi,ta",
		},
		{
			name: "english matched by name",
			in:   []domain.Language{{Code: "bn", Name: "Bengali"}, {Code: "eng", Name: "english"}},
			want: "eng,bn",
		},
		{
			name: "empty codes dropped",
			in:   []domain.Language{{Code: "", Name: "Broken"}, {Code: "mr", Name: "Marathi"}},
			want: "en,mr",
		},
		{
			name: "empty list",
			want: "en",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var codes []string
			for _, l := range normalizeLanguages(test.in) {
				codes = append(codes, l.Code)
			}
			if got := strings.Join(codes, ","); got != test.want {
				t.Errorf("expected %s, got %s", test.want, got)
			}
		})
	}
}

func TestSupportedLanguages(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/bhashini/supported-languages" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"supported_languages":[{"code":"hi","name":"Hindi"},{"code":"en","name":"English"}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	for i := 0; i < 2; i++ {
		langs := c.SupportedLanguages(context.Background())
		if len(langs) != 2 || langs[0].Code != "en" {
			t.Fatalf("unexpected languages %+v", langs)
		}
	}
	if calls != 1 {
		t.Errorf("expected the list to be fetched once, got %d calls", calls)
	}
}

func TestSupportedLanguagesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"upstream down"}`)
	}))
	defer srv.Close()

	langs := NewClient(srv.URL).SupportedLanguages(context.Background())
	if len(langs) != 1 || langs[0] != domain.English {
		t.Errorf("expected English only, got %+v", langs)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		status int
		body   string
		want   string
	}{
		{name: "detected", text: "नमस्ते", status: http.StatusOK, body: `{"langCode":"hi"}`, want: "hi"},
		{name: "unknown", text: "???", status: http.StatusOK, body: `{"langCode":"unknown"}`, want: ""},
		{name: "error", text: "x", status: http.StatusBadGateway, body: `{"error":"bad"}`, want: ""},
		{name: "blank text", text: "  ", status: http.StatusOK, body: `{"langCode":"en"}`, want: ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req map[string]string
				_ = json.NewDecoder(r.Body).Decode(&req)
				if req["text"] != test.text {
					t.Errorf("unexpected text %q", req["text"])
				}
				w.WriteHeader(test.status)
				fmt.Fprint(w, test.body)
			}))
			defer srv.Close()

			if got := NewClient(srv.URL).DetectLanguage(context.Background(), test.text); got != test.want {
				t.Errorf("expected %q, got %q", test.want, got)
			}
		})
	}
}

func TestTextToSpeech(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["sourceLan"] != "hi" {
			t.Errorf("expected language hint, got %q", req["sourceLan"])
		}
		fmt.Fprint(w, `{"audio_content":"UklGRg=="}`)
	}))
	defer srv.Close()

	audio, err := NewClient(srv.URL).TextToSpeech(context.Background(), "नमस्ते", "hi")
	if err != nil {
		t.Fatalf("tts: %v", err)
	}
	if string(audio) != "RIFF" {
		t.Errorf("unexpected audio %q", audio)
	}
}

func TestTextToSpeechError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"voice not available"}`)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).TextToSpeech(context.Background(), "hi", "xx"); err == nil {
		t.Error("expected an error")
	}
}
