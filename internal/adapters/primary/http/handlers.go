package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/sydologie/diapoai/internal/adapters/secondary/export"
	"github.com/sydologie/diapoai/internal/adapters/secondary/monitoring"
	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
	"github.com/sydologie/diapoai/internal/domain/services"
)

// maxBodySize bounds request bodies; generated decks stay well below it
const maxBodySize = 10 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string    `json:"error"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// SlidesResponse represents the slides API response
type SlidesResponse struct {
	Title      string              `json:"title"`
	Theme      entities.ColorTheme `json:"theme"`
	Transition string              `json:"transition"`
	SlideCount int                 `json:"slide_count"`
	Slides     []SlideResponse     `json:"slides"`
}

// SlideResponse represents a single slide in the API response
type SlideResponse struct {
	Index  int                `json:"index"`
	ID     string             `json:"id"`
	Role   entities.SlideRole `json:"role"`
	Title  string             `json:"title"`
	HTML   string             `json:"html"`
	Blocks int                `json:"blocks"`
}

// DeckRequest replaces the generated slides. Omitted fields keep their
// current value; an empty outline removes the structuring.
type DeckRequest struct {
	HTML       string               `json:"html"`
	Outline    entities.Outline     `json:"outline,omitempty"`
	Theme      *entities.ColorTheme `json:"theme,omitempty"`
	Transition string               `json:"transition,omitempty"`
}

// TransitionRequest changes the slide transition
type TransitionRequest struct {
	Transition string `json:"transition"`
}

// StatusResponse reports the preview state
type StatusResponse struct {
	Preview    string `json:"preview"`
	Error      string `json:"error,omitempty"`
	Clients    int    `json:"clients"`
	Slides     int    `json:"slides"`
	EngineLive bool   `json:"engine_live"`

	Stats monitoring.Snapshot `json:"stats"`
}

// handleSlides lists the slides of the current deck
func (s *Server) handleSlides(w http.ResponseWriter, r *http.Request) {
	deck := s.currentDeck()
	if deck == nil {
		s.writeJSON(w, http.StatusOK, SlidesResponse{
			Theme:  entities.DefaultColorTheme(),
			Slides: []SlideResponse{},
		})
		return
	}
	s.writeJSON(w, http.StatusOK, slidesResponse(deck))
}

// handleDeck loads new generated slides. Both a JSON DeckRequest and a raw
// text/html body are accepted.
func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	ws := s.currentWorkspace()
	if ws == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no_workspace", "the server has no deck workspace")
		return
	}

	var req DeckRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/html" {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid_request", "could not read body")
			return
		}
		req.HTML = string(body)
	} else if !s.decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.HTML) == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "html is required")
		return
	}

	input := ws.Input()
	input.HTML = req.HTML
	if req.Outline != nil {
		input.Outline = req.Outline
	}
	if req.Theme != nil {
		input.Theme = *req.Theme
	}
	if req.Transition != "" {
		input.Transition = req.Transition
	}

	started := s.clock.Now()
	deck, err := ws.Load(r.Context(), input)
	s.respondWithDeck(w, started, deck, err)
}

// handleGetOutline returns the current outline
func (s *Server) handleGetOutline(w http.ResponseWriter, r *http.Request) {
	ws := s.currentWorkspace()
	if ws == nil {
		s.writeJSON(w, http.StatusOK, entities.Outline{})
		return
	}
	outline := ws.Input().Outline
	if outline == nil {
		outline = entities.Outline{}
	}
	s.writeJSON(w, http.StatusOK, outline)
}

// handlePutOutline restructures the deck with an edited outline
func (s *Server) handlePutOutline(w http.ResponseWriter, r *http.Request) {
	ws := s.currentWorkspace()
	if ws == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no_workspace", "the server has no deck workspace")
		return
	}
	var outline entities.Outline
	if !s.decodeJSON(w, r, &outline) {
		return
	}
	started := s.clock.Now()
	deck, err := ws.SetOutline(r.Context(), outline)
	s.respondWithDeck(w, started, deck, err)
}

// handleTheme replaces the palette. All four colors are required.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	ws := s.currentWorkspace()
	if ws == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no_workspace", "the server has no deck workspace")
		return
	}
	var theme entities.ColorTheme
	if !s.decodeJSON(w, r, &theme) {
		return
	}
	started := s.clock.Now()
	deck, err := ws.SetTheme(r.Context(), theme)
	s.respondWithDeck(w, started, deck, err)
}

// handleTransition changes the slide transition
func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	ws := s.currentWorkspace()
	if ws == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no_workspace", "the server has no deck workspace")
		return
	}
	var req TransitionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	started := s.clock.Now()
	deck, err := ws.SetTransition(r.Context(), req.Transition)
	s.respondWithDeck(w, started, deck, err)
}

// handleExportFormats lists the formats the export service can produce
func (s *Server) handleExportFormats(w http.ResponseWriter, r *http.Request) {
	exports := s.currentExports()
	formats := []export.ExportFormat{}
	if exports != nil {
		formats = exports.GetSupportedFormats()
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"formats": formats})
}

// handleExport renders the current deck and sends it as a download
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	exports := s.currentExports()
	if exports == nil {
		s.writeError(w, http.StatusServiceUnavailable, "export_unavailable", "export is not configured")
		return
	}

	format, err := export.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		s.handleExportError(w, err)
		return
	}

	deck := s.currentDeck()
	if deck.IsEmpty() {
		s.writeError(w, http.StatusConflict, "no_deck", "there are no slides to export")
		return
	}

	query := r.URL.Query()
	options := &export.ExportOptions{
		Format:  format,
		Title:   query.Get("title"),
		Quality: query.Get("quality"),
	}

	var buf bytes.Buffer
	started := s.clock.Now()
	result, err := exports.Stream(r.Context(), deck, options, &buf)
	s.stats.RecordExport(string(format), s.clock.Now().Sub(started), err != nil)
	if err != nil {
		s.handleExportError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("Export download interrupted: %v", err)
	}
}

// handleStatus reports the preview renderer state and connected pages
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	renderer := s.renderer
	s.mu.RUnlock()

	status := StatusResponse{
		Preview:    "none",
		Clients:    s.connMgr.Count(),
		EngineLive: s.engine.Ready(),
		Stats:      s.stats.Snapshot(),
	}
	if renderer != nil {
		status.Preview = renderer.State().String()
		if err := renderer.Err(); err != nil {
			status.Error = err.Error()
		}
	}
	if deck := s.currentDeck(); deck != nil {
		status.Slides = deck.SlideCount()
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) respondWithDeck(w http.ResponseWriter, started time.Time, deck *entities.SlideDocument, err error) {
	s.stats.RecordBuild(s.clock.Now().Sub(started), deck == nil)

	switch {
	case errors.Is(err, services.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	case errors.Is(err, services.ErrNoDeck):
		s.writeError(w, http.StatusConflict, "no_deck", "load slides before editing them")
		return
	case err != nil && deck == nil:
		s.handleError(w, err, http.StatusInternalServerError)
		return
	case err != nil:
		// the deck changed; only the live preview is behind
		s.logger.Warn("Preview not updated: %v", err)
	}

	s.notifyDeckUpdated(deck)
	s.writeJSON(w, http.StatusOK, slidesResponse(deck))
}

func (s *Server) notifyDeckUpdated(deck *entities.SlideDocument) {
	s.connMgr.Broadcast(ports.UpdateEvent{
		Type:      ports.EventTypeDeckUpdated,
		Timestamp: s.clock.Now(),
		Data: map[string]interface{}{
			"slides":     deck.SlideCount(),
			"transition": deck.Transition,
			"theme":      deck.Theme,
		},
	})
}

func (s *Server) handleExportError(w http.ResponseWriter, err error) {
	var exportErr *export.ExportError
	if !errors.As(err, &exportErr) {
		s.handleError(w, err, http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch exportErr.Type {
	case export.ErrorTypeValidation, export.ErrorTypeConfiguration:
		status = http.StatusBadRequest
	case export.ErrorTypeTimeout:
		status = http.StatusGatewayTimeout
	case export.ErrorTypeCancelled:
		status = http.StatusServiceUnavailable
	}

	code := strings.ToLower(exportErr.Code)
	if code == "" {
		code = string(exportErr.Type)
	}
	message := exportErr.Message
	if exportErr.Type == export.ErrorTypeValidation && exportErr.Details != "" {
		message += ": " + exportErr.Details
	}
	s.writeError(w, status, code, message)
}

// handleError logs err and answers with a generic message
func (s *Server) handleError(w http.ResponseWriter, err error, status int) {
	s.logger.Error("HTTP handler error: %v", err)
	s.writeError(w, status, "internal_error", http.StatusText(status))
}

// decodeJSON decodes the body into v, rejecting unknown fields
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", fmt.Sprintf("could not decode request: %v", err))
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		Time:    s.clock.Now(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) currentDeck() *entities.SlideDocument {
	ws := s.currentWorkspace()
	if ws == nil {
		return nil
	}
	return ws.Deck()
}

func slidesResponse(deck *entities.SlideDocument) SlidesResponse {
	resp := SlidesResponse{
		Title:      services.DefaultDeckTitle,
		Theme:      deck.Theme,
		Transition: deck.Transition,
		SlideCount: deck.SlideCount(),
		Slides:     make([]SlideResponse, 0, deck.SlideCount()),
	}
	if deck.SlideCount() > 0 {
		resp.Title = deck.Slides[0].DisplayTitle()
	}
	for _, slide := range deck.Slides {
		resp.Slides = append(resp.Slides, SlideResponse{
			Index:  slide.Index,
			ID:     slide.ID,
			Role:   slide.Role,
			Title:  slide.DisplayTitle(),
			HTML:   slide.HTML,
			Blocks: len(slide.Blocks),
		})
	}
	return resp
}
