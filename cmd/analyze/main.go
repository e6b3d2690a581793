// Command analyze runs the analysis pipeline once over a local CSV file
// and prints the resulting JSON document.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"attention_guiding/pkg/core/agent"
	"attention_guiding/pkg/core/dataset"
	"attention_guiding/pkg/core/pipeline"
	"attention_guiding/pkg/core/store"
	"attention_guiding/pkg/models"
)

func main() {
	filePath := flag.String("file", "", "CSV file to analyze")
	contextText := flag.String("context", "", "additional free-text context for the analysis")
	question := flag.String("question", "", "follow-up question (requires -previous)")
	previousPath := flag.String("previous", "", "path to the previous analysis result JSON")
	save := flag.Bool("save", false, "persist resulting insights to the configured store")
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -file data.csv [-context text] [-question q -previous result.json] [-save]")
		os.Exit(2)
	}

	godotenv.Load()
	ctx := context.Background()

	f, err := os.Open(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", *filePath, err)
		os.Exit(1)
	}
	d, err := dataset.ParseCSV(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse %s: %v\n", *filePath, err)
		os.Exit(1)
	}

	var previous *models.AnalysisResult
	if *previousPath != "" {
		data, err := os.ReadFile(*previousPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read previous result: %v\n", err)
			os.Exit(1)
		}
		previous = &models.AnalysisResult{}
		if err := json.Unmarshal(data, previous); err != nil {
			fmt.Fprintf(os.Stderr, "failed to parse previous result: %v\n", err)
			os.Exit(1)
		}
	}

	var agentCfg agent.Config
	if configData, err := os.ReadFile("config/models.yaml"); err == nil {
		yaml.Unmarshal(configData, &agentCfg)
	}
	if agentCfg.ActiveProvider == "" {
		agentCfg.ActiveProvider = "openai"
	}
	agentMgr := agent.NewManager(agentCfg)

	var insightStore store.InsightStore = store.NoopStore{}
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err == nil {
			if err := store.EnsureSchema(ctx); err == nil {
				insightStore = store.NewInsightRepo()
				defer store.Close()
			}
		}
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
	result := orch.Analyze(ctx, pipeline.Request{
		Dataset:           d,
		Filename:          *filePath,
		AdditionalContext: *contextText,
		FollowUpQuestion:  *question,
		PreviousResult:    previous,
	})

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if *save && !result.IsError() {
		saved, failed := orch.PersistInsights(ctx, result, *filePath)
		fmt.Fprintf(os.Stderr, "persisted %d insights (%d failed)\n", saved, failed)
	}

	if result.IsError() {
		os.Exit(1)
	}
}
