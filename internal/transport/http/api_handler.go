package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"trivia-showdown/internal/app"
	"trivia-showdown/internal/domain"
)

const qrSize = 320

// APIHandler serves the REST surface of the match and solo services.
type APIHandler struct {
	matches   *app.MatchService
	solo      *app.SoloService
	publicURL string
	now       func() time.Time
}

func NewAPIHandler(matches *app.MatchService, solo *app.SoloService, publicURL string) *APIHandler {
	return &APIHandler{
		matches:   matches,
		solo:      solo,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		now:       time.Now,
	}
}

type createMatchRequest struct {
	Code        string                `json:"code"`
	HostPin     string                `json:"hostPin"`
	SetID       string                `json:"setId"`
	Count       int                   `json:"count"`
	TimePerQSec int                   `json:"timePerQSec"`
	Config      *domain.ScoringConfig `json:"config"`
	Questions   []domain.Question     `json:"questions"`
}

type createMatchResponse struct {
	MatchID string `json:"matchId"`
	Code    string `json:"code"`
	JoinURL string `json:"joinUrl"`
}

type joinRequest struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type answerRequest struct {
	PlayerID string `json:"playerId"`
	Idx      int    `json:"idx"`
	Ms       int    `json:"ms"`
}

func (h *APIHandler) createMatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createMatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var (
		id  string
		err error
	)
	if req.SetID != "" {
		id, err = h.matches.CreateMatchFromSet(r.Context(), app.CreateFromSetInput{
			Code:        req.Code,
			HostPin:     req.HostPin,
			SetID:       req.SetID,
			Count:       req.Count,
			TimePerQSec: req.TimePerQSec,
		})
	} else {
		cfg := h.matches.DefaultScoring()
		if req.Config != nil {
			cfg = *req.Config
		}
		id, err = h.matches.CreateMatch(r.Context(), app.CreateMatchInput{
			Code:      req.Code,
			HostPin:   req.HostPin,
			Config:    cfg,
			Questions: req.Questions,
		})
	}
	if err != nil {
		writeError(w, err)
		return
	}

	m, err := h.matches.GetMatch(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createMatchResponse{MatchID: id, Code: m.Code, JoinURL: h.joinURL(r, m.Code)})
}

func (h *APIHandler) findMatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	code := r.URL.Query().Get("code")
	if strings.TrimSpace(code) == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "missing code"})
		return
	}
	id, err := h.matches.FindMatchByCode(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"matchId": id})
}

func (h *APIHandler) getMatch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	m, err := h.matches.GetMatch(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.NewMatchView(m, r.URL.Query().Get("playerId"), h.now()))
}

func (h *APIHandler) joinMatch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req joinRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PlayerID == "" {
		req.PlayerID = "p_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	if err := h.matches.JoinMatch(r.Context(), ps.ByName("id"), req.PlayerID, req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"playerId": req.PlayerID})
}

func (h *APIHandler) submitAnswer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.matches.SubmitAnswer(r.Context(), ps.ByName("id"), req.PlayerID, req.Idx, req.Ms)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *APIHandler) hostAction(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	action := hostActionFor(h.matches, ps.ByName("action"))
	if action == nil {
		writeJSON(w, http.StatusNotFound, errorPayload{Message: "unknown host action"})
		return
	}
	if err := action(r.Context(), ps.ByName("id"), r.Header.Get("X-Host-Pin")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// qrCode renders the join link for a match as a PNG.
func (h *APIHandler) qrCode(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	m, err := h.matches.GetMatch(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	png, err := qrcode.Encode(h.joinURL(r, m.Code), qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (h *APIHandler) topSolo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	scores, err := h.solo.Top(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if scores == nil {
		scores = []domain.SoloScore{}
	}
	writeJSON(w, http.StatusOK, scores)
}

func (h *APIHandler) addSolo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var score domain.SoloScore
	if err := decodeBody(r, &score); err != nil {
		writeError(w, err)
		return
	}
	if err := h.solo.Submit(r.Context(), score); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *APIHandler) clearSolo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.solo.Clear(r.Context(), r.Header.Get("X-Owner-Passcode")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// joinURL prefers the configured public URL and falls back to the request
// host, respecting X-Forwarded-Proto.
func (h *APIHandler) joinURL(r *http.Request, code string) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return fmt.Sprintf("%s/?code=%s", base, url.QueryEscape(code))
}
