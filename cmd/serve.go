package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/docinsight-cli/internal/model"
	"github.com/sells-group/docinsight-cli/internal/session"
	"github.com/sells-group/docinsight-cli/pkg/automation"
)

var servePort int

// documentAnalyzer is the slice of the analyzer the server needs.
type documentAnalyzer interface {
	Analyze(ctx context.Context, documentText, question string) (*model.StructuredInsight, error)
}

// serveDeps carries the collaborators the HTTP handlers use.
type serveDeps struct {
	analyzer   documentAnalyzer
	automation automation.Client
	limiter    *rate.Limiter
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		deps := serveDeps{
			analyzer: newAnalyzer(),
			limiter:  rate.NewLimiter(rate.Limit(cfg.Server.AnalyzeRPS), cfg.Server.AnalyzeBurst),
		}
		if cfg.Automation.WebhookURL != "" {
			deps.automation = automation.NewClient(cfg.Automation.WebhookURL,
				automation.WithTimeout(time.Duration(cfg.Automation.TimeoutSecs)*time.Second))
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(deps),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(deps serveDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/analyze", deps.handleAnalyze)

	return r
}

type analyzeRequest struct {
	DocumentText   string `json:"document_text"`
	Question       string `json:"question"`
	RecipientEmail string `json:"recipient_email,omitempty"`
}

type analyzeResponse struct {
	SessionID  string                      `json:"session_id"`
	Stage      string                      `json:"stage"`
	Insight    *model.StructuredInsight    `json:"insight"`
	Automation *automation.TriggerResponse `json:"automation,omitempty"`
}

// handleAnalyze runs the workflow stage machine end to end for one request:
// analysis, then the automation webhook when a recipient is present.
func (d serveDeps) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if d.limiter != nil && !d.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.DocumentText == "" || req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document_text and question are required"})
		return
	}
	if req.RecipientEmail != "" && d.automation == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "automation webhook not configured"})
		return
	}

	sess := session.New()

	insight, err := d.analyzer.Analyze(r.Context(), req.DocumentText, req.Question)
	if err != nil {
		zap.L().Error("serve: analysis failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "analysis failed, please try again"})
		return
	}
	if err := sess.MarkAnalyzed(req.DocumentText, req.Question, insight); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session error"})
		return
	}

	resp := analyzeResponse{
		SessionID: sess.ID,
		Stage:     sess.Stage().String(),
		Insight:   insight,
	}

	if req.RecipientEmail != "" {
		if err := sess.RequestEmail(req.RecipientEmail); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session error"})
			return
		}
		result, err := d.automation.Trigger(r.Context(), sess.AutomationPayload())
		if err != nil {
			zap.L().Error("serve: automation failed",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Error(err),
			)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "automation webhook failed"})
			return
		}
		if err := sess.CompleteAutomation(result); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session error"})
			return
		}
		resp.Stage = sess.Stage().String()
		resp.Automation = result
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
