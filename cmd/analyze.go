package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/go-xg-metrics/internal/model"
	"github.com/pable/go-xg-metrics/internal/storage"
)

const analyzeSystemPrompt = `You are an NHL analytics assistant. You are given the stored result of an
expected-goals (xG) calibration run and a question about it.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise. Explain where the model over- or under-predicts and by how much.

Glossary:
- xG: predicted scoring probability of a shot attempt; summed over shots it is expected goals.
- diff: actual goals minus xG total. Positive means the model under-predicts.
- pct_diff: diff as a percentage of actual goals; null when there were no goals.
- calibration bucket: shots grouped by predicted probability; calibration_error is
  actual rate minus predicted rate inside the bucket.
- feature_analysis: the same comparison split by strength state, empty net, rebound,
  distance band, angle band and shot type.
- Model versions: v1 uses distance, angle, empty net and manpower; v2 adds rebound and
  rush; v3 adds goal differential.
- odds_ratio: multiplicative change in scoring odds for the stated step of a feature.`

var (
	analyzeModel  string
	analyzeAPIKey string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <run-prefix> <question>",
	Short: "AI-powered grounded analysis of a stored run (requires ANTHROPIC_API_KEY)",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	apiKey, err := resolveAPIKey(analyzeAPIKey)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRunByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("find run: %w", err)
	}
	question := args[1]

	body, err := db.GetReportJSON(run.RunID)
	if err != nil {
		return fmt.Errorf("get report: %w", err)
	}
	sources, err := db.GetSeasonSources(run.RunID)
	if err != nil {
		return fmt.Errorf("get season sources: %w", err)
	}

	contextJSON, err := buildRunContext(run, sources, body)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), os.Stdout, apiKey, analyzeModel, contextJSON, question)
}

// buildRunContext serialises a stored run into compact JSON.
func buildRunContext(run *model.RunSummary, sources []storage.SeasonSource, document []byte) (string, error) {
	type seasonEntry struct {
		Season int `json:"season"`
		Events int `json:"events"`
	}
	seasons := make([]seasonEntry, 0, len(sources))
	for _, s := range sources {
		seasons = append(seasons, seasonEntry{Season: s.Season, Events: s.TotalEvents})
	}

	version := "all"
	if run.Version != 0 {
		version = fmt.Sprintf("v%d", run.Version)
	}
	doc := map[string]interface{}{
		"subject":       run.Kind,
		"run_id":        run.RunID,
		"created_at":    run.CreatedAt,
		"model_version": version,
		"total_shots":   run.Shots,
		"actual_goals":  run.Goals,
		"seasons":       seasons,
		"result":        json.RawMessage(document),
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// resolveAPIKey prefers the flag value, then $ANTHROPIC_API_KEY.
func resolveAPIKey(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		return k, nil
	}
	return "", fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
}

// callAnthropic streams an answer grounded on dataJSON to w.
func callAnthropic(ctx context.Context, w io.Writer, apiKey, modelID, dataJSON, question string) error {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	userMsg := fmt.Sprintf("RUN DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	log.WithFields(logrus.Fields{"model": modelID, "context_bytes": len(dataJSON)}).Debug("requesting analysis")
	fmt.Fprintln(w, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	written := 0
	for stream.Next() {
		evt := stream.Current()
		if evt.Type != "content_block_delta" {
			continue
		}
		delta := evt.AsContentBlockDelta()
		if delta.Delta.Type == "text_delta" {
			n, _ := fmt.Fprint(w, delta.Delta.AsTextDelta().Text)
			written += n
		}
	}
	fmt.Fprintln(w, "\n─────────────────────────────────────────────────────")
	log.WithField("bytes", written).Debug("analysis streamed")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("stream analysis: %w", err)
	}
	return nil
}
