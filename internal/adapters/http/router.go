package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/bovicare/bovicare/internal/config"
	"github.com/bovicare/bovicare/internal/core/domain"
	"github.com/bovicare/bovicare/internal/core/ports"
	"github.com/bovicare/bovicare/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	cfg config.Config

	questions ports.QuestionService
	evaluator ports.AnswerEvaluator
	ingest    ports.DocumentIngestor
	docs      ports.DocumentReader

	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	questions ports.QuestionService,
	evaluator ports.AnswerEvaluator,
	ingest ports.DocumentIngestor,
	docs ports.DocumentReader,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:       cfg,
		questions: questions,
		evaluator: evaluator,
		ingest:    ingest,
		docs:      docs,
		metrics:   serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/ask", rt.ask)
	mux.HandleFunc("/v1/evaluations", rt.evaluate)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	if rt.cfg.APIMaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, 100*time.Millisecond)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question     string `json:"question"`
		TopK         int    `json:"top_k"`
		UseReranking *bool  `json:"use_reranking"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = rt.cfg.RAGTopK
	}
	useReranking := rt.cfg.RAGRerankEnabled
	if req.UseReranking != nil {
		useReranking = *req.UseReranking
	}

	start := time.Now()
	answer, err := rt.questions.Ask(r.Context(), req.Question, topK, useReranking)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAsk(serviceName, useReranking, len(answer.Sources), time.Since(start))
	}

	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) evaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query      string `json:"query"`
		Answer     string `json:"answer"`
		Category   string `json:"category"`
		ContextTag string `json:"context_tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.Answer) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query and answer are required"})
		return
	}

	start := time.Now()
	result, err := rt.evaluateRequest(r, req.Query, req.Answer, req.Category, req.ContextTag)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordEvaluation(serviceName, result.Category, result.OverallScore, result.Undefined, time.Since(start))
	}

	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) evaluateRequest(r *http.Request, query, answer, category, contextTag string) (*domain.EvaluationResult, error) {
	if category != "" {
		var tags []string
		if contextTag != "" {
			tags = []string{contextTag}
		}
		return rt.evaluator.EvaluateCategory(r.Context(), query, answer, category, tags)
	}
	return rt.evaluator.Evaluate(r.Context(), query, answer, contextTag)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
