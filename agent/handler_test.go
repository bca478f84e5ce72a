package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Jhanira-Elizabeth/tursd-chat/config"
	"github.com/Jhanira-Elizabeth/tursd-chat/knowledge"
	"github.com/Jhanira-Elizabeth/tursd-chat/searcher"
)

func record(assistant string) string {
	return fmt.Sprintf(`{"messages": [{"role": "user", "content": "pregunta"}, {"role": "assistant", "content": %q}]}`, assistant)
}

func writeCorpus(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadTestStore(t *testing.T, lines ...string) *knowledge.Store {
	t.Helper()
	store, err := knowledge.LoadJSONL(writeCorpus(t, lines...))
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func deadSearcher(t *testing.T) *searcher.Searcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return searcher.New(config.Searcher{
		City:           "Santo Domingo de los Tsáchilas",
		TimeoutSeconds: 2,
		BookingBaseURL: srv.URL,
		GoogleBaseURL:  srv.URL,
	})
}

func TestChatAnswersFromKnowledgeBase(t *testing.T) {
	store := loadTestStore(t,
		record("**Congoma** es un punto turístico ubicado en la parroquia Santo Domingo. Es una comuna tsáchila tradicional. Las actividades disponibles incluyen: Danza ($3). "),
	)
	h := NewHandler(store, nil, deadSearcher(t), nil)

	resp := h.Chat(context.Background(), "Cuéntame sobre Congoma")
	if resp.Deferred {
		t.Fatal("known place deferred")
	}
	if resp.Source != SourceKnowledgeBase {
		t.Errorf("source = %q", resp.Source)
	}
	if !strings.Contains(resp.Response, "**Congoma**") {
		t.Errorf("response missing place: %q", resp.Response)
	}
	if !strings.Contains(resp.Response, "Danza") {
		t.Errorf("response missing actividad: %q", resp.Response)
	}
}

func TestChatLodgingUsesWebSearch(t *testing.T) {
	bookingPage := `<html><body><div data-testid="property-card">
<div data-testid="title">Hotel del Río</div>
<span data-testid="price-and-discounted-price">$52</span>
</div></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "searchresults") {
			w.Write([]byte(bookingPage))
			return
		}
		w.Write([]byte("<html><body></body></html>"))
	}))
	defer srv.Close()

	store := loadTestStore(t,
		record("**Congoma** es un punto turístico ubicado en la parroquia Santo Domingo. Comuna tsáchila."),
	)
	h := NewHandler(store, nil, searcher.New(config.Searcher{
		City:           "Santo Domingo de los Tsáchilas",
		TimeoutSeconds: 2,
		BookingBaseURL: srv.URL,
		GoogleBaseURL:  srv.URL,
	}), nil)

	resp := h.Chat(context.Background(), "¿dónde encuentro hoteles en la ciudad?")
	if !resp.Deferred {
		t.Fatal("lodging question not deferred")
	}
	if resp.Source != SourceWebSearch {
		t.Errorf("source = %q", resp.Source)
	}
	if !strings.Contains(resp.Response, "Hotel del Río") {
		t.Errorf("scraped hotel missing: %q", resp.Response)
	}
}

func TestChatLodgingFallsBackToCuratedHotels(t *testing.T) {
	store := loadTestStore(t,
		record("**Congoma** es un punto turístico ubicado en la parroquia Santo Domingo. Comuna tsáchila."),
	)
	h := NewHandler(store, nil, deadSearcher(t), nil)

	resp := h.Chat(context.Background(), "busco hospedaje para este fin de semana")
	if !resp.Deferred || resp.Source != SourceWebSearch {
		t.Fatalf("got Deferred=%v Source=%q", resp.Deferred, resp.Source)
	}
	if !strings.Contains(resp.Response, "Hotel Toachi") {
		t.Errorf("curated fallback missing: %q", resp.Response)
	}
}

func TestChatStreamClosesAfterEOF(t *testing.T) {
	store := loadTestStore(t,
		record("**Congoma** es un punto turístico ubicado en la parroquia Santo Domingo. Comuna tsáchila."),
	)
	h := NewHandler(store, nil, deadSearcher(t), nil)

	results := h.ChatStream(context.Background(), "Cuéntame sobre Congoma")

	var chat []string
	sawEOF := false
	for result := range results {
		if result.Err != nil {
			if result.Err == io.EOF {
				sawEOF = true
				continue
			}
			t.Fatalf("unexpected error: %v", result.Err)
		}
		if result.Msg.Type == "chat" {
			chat = append(chat, result.Msg.Data.(string))
		}
	}
	if !sawEOF {
		t.Error("stream did not finish with EOF")
	}
	if len(chat) != 1 || !strings.Contains(chat[0], "**Congoma**") {
		t.Errorf("chat messages = %v", chat)
	}
}

func TestReloadSwapsStore(t *testing.T) {
	first := loadTestStore(t,
		record("**Congoma** es un punto turístico ubicado en la parroquia Santo Domingo. Comuna tsáchila."),
	)
	secondCorpus := writeCorpus(t,
		record("**Congoma** es un punto turístico ubicado en la parroquia Santo Domingo. Comuna tsáchila."),
		record("**Parque del Lago** es un punto turístico ubicado en la parroquia Santo Domingo. Laguna artificial."),
	)

	loader := func(ctx context.Context) (*knowledge.Store, error) {
		return knowledge.LoadJSONL(secondCorpus)
	}

	h := NewHandler(first, nil, deadSearcher(t), loader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.RunReloadLoop(ctx)

	h.TriggerReload()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if places, _, _, _ := h.Store().Counts(); places == 2 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("store was not swapped after reload trigger")
}
