package main

import (
	"context"
	"database/sql"
	"io"
	"log"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	_ "github.com/mattn/go-sqlite3"
	"github.com/nats-io/nats.go"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/memory/sqlite3"

	"github.com/Jhanira-Elizabeth/tursd-chat/config"
	"github.com/Jhanira-Elizabeth/tursd-chat/knowledge"
	"github.com/Jhanira-Elizabeth/tursd-chat/searcher"
)

type Agent struct {
	config   *config.Config
	handler  *Handler
	pg       *Pg
	upgrader websocket.Upgrader
}

func main() {
	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sqliteDb, err := sql.Open("sqlite3", "chat_history.db")
	if err != nil {
		log.Fatal(err)
	}

	chatHistory := sqlite3.NewSqliteChatMessageHistory(
		sqlite3.WithSession("tursd-agent"),
		sqlite3.WithDB(sqliteDb),
	)
	conversationBuffer := memory.NewConversationBuffer(memory.WithChatHistory(chatHistory))

	chatLLM, err := ollama.New(
		ollama.WithServerURL(cfg.Ollama.Address()),
		ollama.WithModel(cfg.Ollama.ChatModel),
		ollama.WithSystemPrompt(TourismSysPrompt),
	)
	if err != nil {
		log.Fatal(err)
	}
	llmChain := chains.NewConversation(chatLLM, conversationBuffer)

	loader := storeLoader(cfg)
	store, err := loader(ctx)
	if err != nil {
		log.Fatalf("failed to load knowledge base: %v", err)
	}

	handler := NewHandler(store, &llmChain, searcher.New(cfg.Searcher), loader)
	go handler.RunReloadLoop(ctx)

	var pg *Pg
	if cfg.Knowledge.Source == "postgres" {
		if pg, err = NewPg(cfg.Postgres.ConnStr()); err != nil {
			slog.Warn("stats database unavailable", "error", err)
			pg = nil
		}

		if err := subscribeReloads(cfg, handler); err != nil {
			slog.Warn("reload subscription unavailable, knowledge base is static", "error", err)
		}
	}

	agent := &Agent{
		handler:  handler,
		config:   cfg,
		pg:       pg,
		upgrader: websocket.Upgrader{},
	}

	if err := agent.Run(); err != nil {
		log.Fatalf("failed to run the agent: %v", err)
	}
}

// storeLoader builds the load strategy: the configured source first, the
// JSONL corpus as fallback when postgres is unreachable.
func storeLoader(cfg *config.Config) StoreLoader {
	return func(ctx context.Context) (*knowledge.Store, error) {
		if cfg.Knowledge.Source == "postgres" {
			store, err := knowledge.LoadPostgres(ctx, cfg.Postgres.ConnStr())
			if err == nil {
				return store, nil
			}
			slog.Error("postgres load failed, trying jsonl corpus", "error", err)
		}
		return knowledge.LoadJSONLFallback(cfg.Knowledge.JSONLPaths)
	}
}

func subscribeReloads(cfg *config.Config, handler *Handler) error {
	nc, err := nats.Connect(cfg.Nats.ConnStr())
	if err != nil {
		return err
	}

	js, err := nc.JetStream()
	if err != nil {
		return err
	}

	_, err = js.Subscribe(cfg.Nats.ReloadSubject, func(msg *nats.Msg) {
		handler.TriggerReload()
		msg.Ack()
	}, nats.Durable("tursd-agent"), nats.AckExplicit())
	return err
}

func (a *Agent) Run() error {
	r := gin.Default()

	r.POST("/chat", func(ctx *gin.Context) {
		var req ChatRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx.JSON(http.StatusOK, a.handler.Chat(ctx.Request.Context(), req.Message))
	})

	r.GET("/ws", func(ctx *gin.Context) {
		input, _ := ctx.GetQuery("input")
		if input == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "input query parameter is required"})
			return
		}

		c, err := a.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}
		defer c.Close()

		resultChan := a.handler.ChatStream(ctx.Request.Context(), input)
		for {
			select {
			case <-ctx.Request.Context().Done():
				return
			case result := <-resultChan:
				if result == nil {
					return
				}
				if result.Err != nil {
					if result.Err == io.EOF {
						return
					}
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": result.Err.Error()})
					return
				}

				if err := c.WriteJSON(result.Msg); err != nil {
					slog.Error("failed to write to ws connection", "error", err)
					return
				}
			}
		}
	})

	r.GET("/lugares", func(ctx *gin.Context) {
		store := a.handler.Store()

		type lugar struct {
			Nombre    string `json:"nombre"`
			Parroquia string `json:"parroquia"`
		}
		places := store.Places()
		out := make([]lugar, 0, len(places))
		for _, p := range places {
			out = append(out, lugar{Nombre: p.Nombre, Parroquia: p.Parroquia})
		}

		ctx.JSON(http.StatusOK, gin.H{"lugares": out})
	})

	r.GET("/health", func(ctx *gin.Context) {
		database := "disabled"
		if a.pg != nil {
			database = "ok"
			if err := a.pg.Ping(ctx.Request.Context()); err != nil {
				database = "unavailable"
			}
		}

		ctx.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"database": database,
		})
	})

	r.GET("/stats", func(ctx *gin.Context) {
		places, businesses, parishes, tags := a.handler.Store().Counts()
		stats := gin.H{
			"lugares":    places,
			"locales":    businesses,
			"parroquias": parishes,
			"etiquetas":  tags,
		}

		if a.pg != nil {
			if counts, err := a.pg.TableCounts(ctx.Request.Context()); err == nil {
				stats["tablas"] = counts
			} else {
				slog.Warn("failed to read live table counts", "error", err)
			}
		}

		ctx.JSON(http.StatusOK, stats)
	})

	return r.Run(a.config.Server.Address())
}
