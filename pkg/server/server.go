package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/gemini-content-studio/pkg/adapters"
	"github.com/shouni/gemini-content-studio/pkg/domain"
	"github.com/shouni/gemini-content-studio/pkg/generator"
	"github.com/shouni/gemini-content-studio/pkg/lifelog"
	"github.com/shouni/gemini-content-studio/pkg/studio"
)

const (
	// maxBodyBytes は参照画像の data URI を含むリクエストを許容する上限です。
	maxBodyBytes = 32 << 20
	ndjsonType   = "application/x-ndjson"
)

// Server はスタジオの HTTP API です。
type Server struct {
	studio *studio.Service
}

// New は Server を作成します。
func New(svc *studio.Service) (*Server, error) {
	if svc == nil {
		return nil, errors.New("studio service is required")
	}
	return &Server{studio: svc}, nil
}

// Routes は API のルーティングを組み立てたハンドラを返します。
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/templates/{domain}", s.handleTemplates)
	mux.HandleFunc("GET /api/history/{category}", s.handleHistory)
	mux.HandleFunc("POST /api/digest", s.handleDigest)
	mux.HandleFunc("POST /api/nanobanana", s.handleNanoBanana)
	mux.HandleFunc("POST /api/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /api/{domain}", s.handleRun)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSession)
	mux.HandleFunc("POST /api/sessions/{id}/patterns", s.handlePatterns)
	mux.HandleFunc("POST /api/sessions/{id}/adopt", s.handleAdopt)
	mux.HandleFunc("POST /api/sessions/{id}/retry", s.handleRetry)
	mux.HandleFunc("POST /api/sessions/{id}/compose", s.handleCompose)
	return logMiddleware(mux)
}

// --- Handlers ---

type runRequest struct {
	Mode           string            `json:"mode"`
	Brief          string            `json:"brief"`
	Count          int               `json:"count"`
	Patterns       int               `json:"patterns"`
	TemplateIDs    []string          `json:"templateIds"`
	Vibe           string            `json:"vibe"`
	NegativePrompt string            `json:"negativePrompt"`
	References     domain.References `json:"references"`
	Seed           *int64            `json:"seed"`
	Stream         bool              `json:"stream"`
	Credential     studio.Credential `json:"credential"`
}

type planResponse struct {
	Plan       domain.Plan `json:"plan"`
	PlanStatus string      `json:"planStatus"`
	Detail     string      `json:"detail,omitempty"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// generateResponse は SessionView に session フィールドを足したものです。
type generateResponse struct {
	Session string `json:"session"`
	studio.SessionView
}

// streamLine は NDJSON の1行です。最後の行は type=session で結果全体を持ちます。
type streamLine struct {
	*generator.Event
	Session *generateResponse `json:"session,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(r.PathValue("domain"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"domain": kind, "templates": s.studio.Catalog().Templates(kind)})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(r.PathValue("domain"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req runRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Brief) == "" {
		writeError(w, r, domain.NewInputError("brief is required"))
		return
	}

	rc := studio.RunConfig{
		Credential: req.Credential,
		Domain:     kind,
		Options: studio.RunOptions{
			Count:          req.Count,
			Patterns:       req.Patterns,
			TemplateIDs:    req.TemplateIDs,
			Vibe:           req.Vibe,
			NegativePrompt: req.NegativePrompt,
			References:     req.References,
			Seed:           req.Seed,
		},
	}

	switch req.Mode {
	case "plan":
		outcome, err := s.studio.Plan(r.Context(), rc, req.Brief)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, planResponse{
			Plan:       outcome.Value,
			PlanStatus: outcome.Status(),
			Detail:     outcome.Detail,
			Warnings:   outcome.Warnings,
		})
	case "", "generate":
		if req.Stream {
			s.streamGenerate(w, r, rc, req.Brief)
			return
		}
		session, err := s.studio.Generate(r.Context(), rc, req.Brief, nil)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newGenerateResponse(session.View()))
	default:
		writeError(w, r, domain.NewInputError("unknown mode %q (plan or generate)", req.Mode))
	}
}

func (s *Server) streamGenerate(w http.ResponseWriter, r *http.Request, rc studio.RunConfig, text string) {
	stream := newEventStream(w)
	session, err := s.studio.Generate(r.Context(), rc, text, stream.send)
	if err != nil {
		stream.fail(r, err)
		return
	}
	stream.finish(session.View())
}

type patternsRequest struct {
	Patterns int  `json:"patterns"`
	Stream   bool `json:"stream"`
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	session, err := s.studio.Session(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req patternsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n := min(max(req.Patterns, 1), studio.MaxPatterns)

	if req.Stream {
		stream := newEventStream(w)
		stream.finish(session.GeneratePatterns(r.Context(), n, stream.send))
		return
	}
	writeJSON(w, http.StatusOK, newGenerateResponse(session.GeneratePatterns(r.Context(), n, nil)))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.studio.Session(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGenerateResponse(session.View()))
}

type adoptRequest struct {
	PatternID string `json:"patternId"`
	ItemID    string `json:"itemId"`
}

func (s *Server) handleAdopt(w http.ResponseWriter, r *http.Request) {
	session, err := s.studio.Session(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req adoptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.PatternID == "" {
		writeError(w, r, domain.NewInputError("patternId is required"))
		return
	}

	var selection domain.SelectionMap
	if req.ItemID == "" {
		selection, err = session.AdoptPattern(req.PatternID)
	} else {
		selection, err = session.AdoptItem(req.ItemID, req.PatternID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selection": selection})
}

type retryRequest struct {
	PatternID string `json:"patternId"`
	ItemID    string `json:"itemId"`
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	session, err := s.studio.Session(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req retryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.PatternID == "" || req.ItemID == "" {
		writeError(w, r, domain.NewInputError("patternId and itemId are required"))
		return
	}

	result, err := session.RetryItem(r.Context(), req.PatternID, req.ItemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := session.View()
	writeJSON(w, http.StatusOK, map[string]any{"result": result, "selection": view.Selection})
}

type composeRequest struct {
	MinWidth int `json:"minWidth"`
}

type composeResponse struct {
	DataURI string `json:"dataUri"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	session, err := s.studio.Session(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req composeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	composite, err := session.Compose(r.Context(), req.MinWidth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, composeResponse{DataURI: composite.DataURI, Width: composite.Width, Height: composite.Height})
}

type digestRequest struct {
	Mode        string            `json:"mode"`
	Date        string            `json:"date"`
	SelectedIDs []string          `json:"selectedIds"`
	PreviewOnly bool              `json:"previewOnly"`
	Credential  studio.Credential `json:"credential"`
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	var req digestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.studio.Digest(r.Context(), studio.DigestRequest{
		Credential:  req.Credential,
		Mode:        lifelog.ParseMode(req.Mode),
		Date:        req.Date,
		SelectedIDs: req.SelectedIDs,
		PreviewOnly: req.PreviewOnly,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleNanoBanana(w http.ResponseWriter, r *http.Request) {
	var req adapters.NanoBananaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	raw, err := s.studio.NanoBanana(r.Context(), req)
	if err != nil {
		// 上流のステータスはそのまま返す
		var ue *domain.UpstreamError
		if errors.As(err, &ue) && ue.Kind == domain.UpstreamStatus && ue.StatusCode >= 400 {
			writeJSON(w, ue.StatusCode, errorBody{Error: "NanoBanana API error", Message: ue.Message})
			return
		}
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

type evaluateRequest struct {
	Image      string            `json:"image"`
	Credential studio.Credential `json:"credential"`
}

type evaluateResponse struct {
	Evaluation domain.Evaluation `json:"evaluation"`
	Status     string            `json:"status"`
	Detail     string            `json:"detail,omitempty"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Image == "" {
		writeError(w, r, domain.NewInputError("image is required"))
		return
	}
	outcome := s.studio.Evaluate(r.Context(), req.Credential, req.Image)
	writeJSON(w, http.StatusOK, evaluateResponse{Evaluation: outcome.Value, Status: outcome.Status(), Detail: outcome.Detail})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(r.PathValue("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": kind, "entries": s.studio.History(r.Context(), kind)})
}

// --- Helpers ---

func newGenerateResponse(view studio.SessionView) *generateResponse {
	return &generateResponse{Session: view.ID, SessionView: view}
}

// eventStream は描画イベントを NDJSON で逐次書き出します。
type eventStream struct {
	w       http.ResponseWriter
	enc     *json.Encoder
	flusher http.Flusher
}

func newEventStream(w http.ResponseWriter) *eventStream {
	w.Header().Set("Content-Type", ndjsonType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	return &eventStream{w: w, enc: json.NewEncoder(w), flusher: flusher}
}

func (s *eventStream) send(ev generator.Event) {
	s.write(streamLine{Event: &ev})
}

func (s *eventStream) finish(view studio.SessionView) {
	s.write(streamLine{Event: &generator.Event{Type: "session"}, Session: newGenerateResponse(view)})
}

// fail はヘッダー送信後のエラーを最後の行として書き出します。
func (s *eventStream) fail(r *http.Request, err error) {
	status, body := classify(err)
	slog.WarnContext(r.Context(), "ストリーミング中にエラーが発生しました", "status", status, "error", err)
	s.write(map[string]any{"type": "error", "error": body.Error, "message": body.Message})
}

func (s *eventStream) write(v any) {
	if err := s.enc.Encode(v); err != nil {
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewInputError("invalid JSON body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "リクエストの処理に失敗しました", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

// classify はエラーを HTTP ステータスと応答本文に変換します。
func classify(err error) (int, errorBody) {
	var ue *domain.UpstreamError
	switch {
	case domain.IsInputError(err), errors.Is(err, domain.ErrUnknownKind):
		return http.StatusBadRequest, errorBody{Error: "invalid_request", Message: err.Error()}
	case errors.Is(err, studio.ErrUnknownSession):
		return http.StatusNotFound, errorBody{Error: "session_not_found", Message: err.Error()}
	case isSelectionError(err):
		return http.StatusBadRequest, errorBody{Error: "invalid_selection", Message: err.Error()}
	case errors.As(err, &ue) && ue.Kind == domain.UpstreamTimeout:
		return http.StatusGatewayTimeout, errorBody{Error: "upstream_timeout", Message: ue.Message}
	case errors.As(err, &ue):
		return http.StatusBadGateway, errorBody{Error: "upstream_error", Message: ue.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal_error", Message: fmt.Sprintf("internal error: %v", err)}
	}
}
