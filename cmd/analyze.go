package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/docinsight-cli/internal/analyzer"
	"github.com/sells-group/docinsight-cli/internal/docsource"
	"github.com/sells-group/docinsight-cli/internal/model"
	"github.com/sells-group/docinsight-cli/internal/session"
	"github.com/sells-group/docinsight-cli/pkg/automation"
	"github.com/sells-group/docinsight-cli/pkg/openrouter"
)

// maxConcurrentDocuments bounds concurrent analyses in multi-file mode.
// Each analysis is independent; the analyzer is safe for concurrent use.
const maxConcurrentDocuments = 4

var (
	analyzeQuestion string
	analyzeEmail    string
	analyzePreview  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Analyze documents and extract structured insights",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyzeEmail != "" && len(args) > 1 {
			return eris.New("--email requires exactly one document")
		}

		a := newAnalyzer()
		ctx := cmd.Context()

		if len(args) == 1 {
			return analyzeOne(ctx, a, args[0])
		}
		return analyzeMany(ctx, a, args)
	},
}

// newAnalyzer wires an Analyzer from the loaded configuration.
func newAnalyzer() *analyzer.Analyzer {
	opts := []openrouter.Option{
		openrouter.WithTimeout(time.Duration(cfg.OpenRouter.TimeoutSecs) * time.Second),
	}
	if cfg.OpenRouter.BaseURL != "" {
		opts = append(opts, openrouter.WithBaseURL(cfg.OpenRouter.BaseURL))
	}
	client := openrouter.NewClient(cfg.OpenRouter.Key, opts...)
	return analyzer.New(client, cfg.OpenRouter.Model)
}

// analyzeOne runs the full workflow for a single document, driving the
// session stage machine through automation when a recipient was given.
func analyzeOne(ctx context.Context, a *analyzer.Analyzer, path string) error {
	sess := session.New()

	text, err := docsource.Extract(path)
	if err != nil {
		return err
	}
	if analyzePreview {
		fmt.Println("--- extracted text preview ---")
		fmt.Println(docsource.Preview(text))
		fmt.Println("--- end preview ---")
	}

	insight, err := a.Analyze(ctx, text, analyzeQuestion)
	if err != nil {
		return eris.Wrapf(err, "analyze %s", path)
	}
	if err := sess.MarkAnalyzed(text, analyzeQuestion, insight); err != nil {
		return err
	}

	if err := printJSON(insight); err != nil {
		return err
	}

	if analyzeEmail == "" {
		return nil
	}

	if err := sess.RequestEmail(analyzeEmail); err != nil {
		return err
	}
	auto := automation.NewClient(cfg.Automation.WebhookURL,
		automation.WithTimeout(time.Duration(cfg.Automation.TimeoutSecs)*time.Second))
	result, err := auto.Trigger(ctx, sess.AutomationPayload())
	if err != nil {
		return eris.Wrap(err, "trigger automation")
	}
	if err := sess.CompleteAutomation(result); err != nil {
		return err
	}

	fmt.Println("Final answer:", result.FinalAnswer)
	fmt.Println("Email body:", result.EmailBody)
	fmt.Println("Email status:", result.EmailStatus)
	return nil
}

// analyzeMany analyzes several documents concurrently and prints a single
// JSON object keyed by path. Individual failures don't abort the batch.
func analyzeMany(ctx context.Context, a *analyzer.Analyzer, paths []string) error {
	results := make(map[string]*model.StructuredInsight, len(paths))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDocuments)

	for _, path := range paths {
		g.Go(func() error {
			text, err := docsource.Extract(path)
			if err != nil {
				zap.L().Error("analyze: extract failed", zap.String("file", path), zap.Error(err))
				return nil
			}
			insight, err := a.Analyze(gCtx, text, analyzeQuestion)
			if err != nil {
				zap.L().Error("analyze: analysis failed", zap.String("file", path), zap.Error(err))
				return nil
			}
			mu.Lock()
			results[path] = insight
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(results) == 0 {
		return eris.New("all documents failed to analyze")
	}
	return printJSON(results)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode result")
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeQuestion, "question", "q", "", "analytical question about the document")
	analyzeCmd.Flags().StringVar(&analyzeEmail, "email", "", "recipient for the conditional alert email")
	analyzeCmd.Flags().BoolVar(&analyzePreview, "preview", false, "print a preview of the extracted text")
	_ = analyzeCmd.MarkFlagRequired("question")
	rootCmd.AddCommand(analyzeCmd)
}
