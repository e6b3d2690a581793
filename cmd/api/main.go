package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"attention_guiding/pkg/api/analysis"
	"attention_guiding/pkg/core/agent"
	"attention_guiding/pkg/core/pipeline"
	"attention_guiding/pkg/core/prompt"
	"attention_guiding/pkg/core/store"
)

func main() {
	godotenv.Load()
	ctx := context.Background()

	// Prompt overrides are optional; the built-in templates always work.
	if err := prompt.LoadFromDirectory("resources/prompts"); err != nil {
		fmt.Printf("[PROMPT] no overrides loaded: %v\n", err)
	} else {
		fmt.Printf("[PROMPT] loaded %d prompt overrides\n", prompt.Get().Count())
	}

	var agentCfg agent.Config
	if configData, err := os.ReadFile("config/models.yaml"); err == nil {
		if err := yaml.Unmarshal(configData, &agentCfg); err != nil {
			fmt.Printf("[CONFIG] failed to parse config/models.yaml: %v\n", err)
		}
	} else {
		fmt.Println("[CONFIG] config/models.yaml not found, using defaults")
	}
	if agentCfg.ActiveProvider == "" {
		agentCfg.ActiveProvider = "openai"
	}
	agentMgr := agent.NewManager(agentCfg)

	// The insight store is optional: without DATABASE_URL the pipeline
	// runs with the no-op store and historical context stays empty.
	var insightStore store.InsightStore = store.NoopStore{}
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			fmt.Printf("[STORE] database unavailable, persistence disabled: %v\n", err)
		} else if err := store.EnsureSchema(ctx); err != nil {
			fmt.Printf("[STORE] schema setup failed, persistence disabled: %v\n", err)
		} else {
			insightStore = store.NewInsightRepo()
			defer store.Close()
			fmt.Println("[STORE] insight store connected")
		}
	} else {
		fmt.Println("[STORE] DATABASE_URL not set, persistence and historical context disabled")
	}

	cfg := pipeline.DefaultConfig()
	if agentCfg.Model != "" {
		cfg.Model = agentCfg.Model
	}
	if agentCfg.AnomalyTopN > 0 {
		cfg.AnomalyTopN = agentCfg.AnomalyTopN
	}
	if agentCfg.HistoryLimit > 0 {
		cfg.HistoryLimit = agentCfg.HistoryLimit
	}

	orch := pipeline.NewOrchestrator(agentMgr.GetProvider(), insightStore, cfg)
	handler := analysis.NewHandler(orch, insightStore)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Attention Guiding API is running"))
	})
	handler.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8001"
	}

	log.Printf("Starting API on http://localhost:%s (provider: %s)", port, agentMgr.GetActiveProvider())
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
