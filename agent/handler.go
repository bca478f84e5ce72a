package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tmc/langchaingo/chains"

	"github.com/Jhanira-Elizabeth/tursd-chat/knowledge"
	"github.com/Jhanira-Elizabeth/tursd-chat/searcher"
)

// reloadDelay coalesces bursts of change events into one rebuild.
const reloadDelay = 500 * time.Millisecond

// StoreLoader rebuilds the knowledge store from its backing source.
type StoreLoader func(ctx context.Context) (*knowledge.Store, error)

// Handler answers chat messages. The responder pointer is swapped atomically
// when the knowledge base reloads, so in-flight requests keep a consistent
// view while new requests see fresh data.
type Handler struct {
	responder atomic.Pointer[knowledge.Responder]

	chatChain *chains.LLMChain
	search    *searcher.Searcher
	loader    StoreLoader
	reloadC   chan struct{}
}

func NewHandler(store *knowledge.Store, chatChain *chains.LLMChain, search *searcher.Searcher, loader StoreLoader) *Handler {
	h := &Handler{
		chatChain: chatChain,
		search:    search,
		loader:    loader,
		reloadC:   make(chan struct{}, 1),
	}
	h.responder.Store(knowledge.NewResponder(store))
	return h
}

func (h *Handler) Responder() *knowledge.Responder {
	return h.responder.Load()
}

func (h *Handler) Store() *knowledge.Store {
	return h.Responder().Store()
}

// TriggerReload requests a knowledge base rebuild. Safe to call from any
// goroutine; redundant triggers collapse into one.
func (h *Handler) TriggerReload() {
	select {
	case h.reloadC <- struct{}{}:
	default:
	}
}

// RunReloadLoop rebuilds the store on demand until ctx is cancelled. A failed
// rebuild keeps the previous store in place.
func (h *Handler) RunReloadLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.reloadC:
		}

		// Let a burst of change events settle before rebuilding.
		select {
		case <-ctx.Done():
			return
		case <-time.After(reloadDelay):
		}

		store, err := h.loader(ctx)
		if err != nil {
			slog.Error("knowledge base reload failed, keeping previous store", "error", err)
			continue
		}

		h.responder.Store(knowledge.NewResponder(store))
		places, businesses, parishes, tags := store.Counts()
		slog.Info("knowledge base reloaded",
			"lugares", places, "locales", businesses, "parroquias", parishes, "etiquetas", tags)
	}
}

// Chat answers one message. Deferred questions go to a collaborator: lodging
// questions to the web searcher, everything else to the language model backed
// by web snippets. A collaborator failure falls back to the templated text so
// the user always gets an answer.
func (h *Handler) Chat(ctx context.Context, message string) *ChatResponse {
	reply := h.Responder().Respond(message)

	if !reply.Deferred {
		return &ChatResponse{
			Response: reply.Text,
			Intent:   string(reply.Intent),
			Source:   SourceKnowledgeBase,
		}
	}

	if reply.Lodging {
		listings := h.search.Hoteles(ctx)
		return &ChatResponse{
			Response: searcher.FormatListings(listings),
			Intent:   string(reply.Intent),
			Source:   SourceWebSearch,
			Deferred: true,
		}
	}

	answer, err := h.GenerateAnswer(ctx, message, nil)
	if err != nil {
		slog.Error("llm answer failed, using templated fallback", "error", err)
		return &ChatResponse{
			Response: reply.Text,
			Intent:   string(reply.Intent),
			Source:   SourceFallback,
			Deferred: true,
		}
	}

	return &ChatResponse{
		Response: answer,
		Intent:   string(reply.Intent),
		Source:   SourceLLM,
		Deferred: true,
	}
}

// ChatStream answers one message over a channel, streaming model output chunk
// by chunk. The channel is closed after a final io.EOF result.
func (h *Handler) ChatStream(ctx context.Context, message string) chan *ProcessingResult {
	resultChan := make(chan *ProcessingResult)

	go func() {
		defer close(resultChan)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		reply := h.Responder().Respond(message)

		if !reply.Deferred {
			resultChan <- &ProcessingResult{
				Msg: WebSocketsMessage{Type: "chat", Data: reply.Text},
			}
			resultChan <- &ProcessingResult{Err: io.EOF}
			return
		}

		if reply.Lodging {
			listings := h.search.Hoteles(ctx)
			resultChan <- &ProcessingResult{
				Msg: WebSocketsMessage{Type: "hoteles", Data: listings},
			}
			resultChan <- &ProcessingResult{
				Msg: WebSocketsMessage{Type: "chat", Data: searcher.FormatListings(listings)},
			}
			resultChan <- &ProcessingResult{Err: io.EOF}
			return
		}

		_, err := h.GenerateAnswer(ctx, message, func(chunk []byte) error {
			resultChan <- &ProcessingResult{
				Msg: WebSocketsMessage{Type: "chat", Data: string(chunk)},
			}
			return nil
		})
		if err != nil {
			slog.Error("llm answer failed, using templated fallback", "error", err)
			resultChan <- &ProcessingResult{
				Msg: WebSocketsMessage{Type: "chat", Data: reply.Text},
			}
		}

		resultChan <- &ProcessingResult{Err: io.EOF}
	}()

	return resultChan
}

// GenerateAnswer asks the model, feeding it web snippets as context when the
// search yields any. streamHandler may be nil for a buffered answer.
func (h *Handler) GenerateAnswer(
	ctx context.Context,
	userInput string,
	streamHandler func(chunk []byte) error,
) (string, error) {
	snippets, err := h.search.BuscarGeneral(ctx, userInput)
	if err != nil {
		slog.Warn("web search failed, answering without context", "error", err)
		snippets = ""
	}

	var prompt string
	if snippets != "" {
		prompt = fmt.Sprintf(SummarizeSearchPrompt, userInput, snippets)
	} else {
		prompt = userInput
	}

	opts := []chains.ChainCallOption{chains.WithTemperature(0)}
	if streamHandler != nil {
		opts = append(opts, chains.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			return streamHandler(chunk)
		}))
	}

	answer, err := chains.Run(ctx, h.chatChain, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return answer, nil
}
