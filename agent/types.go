package main

import "fmt"

// Reply sources reported to clients.
const (
	SourceKnowledgeBase = "base_conocimiento"
	SourceWebSearch     = "busqueda_web"
	SourceLLM           = "llm"
	SourceFallback      = "fallback"
)

type ChatRequest struct {
	Message string `json:"message"`
}

func (c *ChatRequest) Validate() error {
	if c.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}

type ChatResponse struct {
	Response string `json:"response"`
	Intent   string `json:"intent"`
	Source   string `json:"source"`
	Deferred bool   `json:"deferred"`
}

type WebSocketsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ProcessingResult struct {
	Err error
	Msg WebSocketsMessage
}
