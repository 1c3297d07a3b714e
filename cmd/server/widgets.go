package main

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/drblury/apienvelope/responder"
)

var errWidgetNotFound = errors.New("widget not found")

type widget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int    `json:"size"`
}

type widgetInput struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

func (in widgetInput) validate() []responder.FieldError {
	var errs []responder.FieldError
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, responder.FieldError{Field: "name", Message: "required"})
	}
	if in.Size <= 0 {
		errs = append(errs, responder.FieldError{Field: "size", Message: "must be positive"})
	}
	return errs
}

// widgetStore keeps widgets in memory for the lifetime of the process.
type widgetStore struct {
	mu      sync.RWMutex
	widgets map[string]widget
}

func newWidgetStore() *widgetStore {
	return &widgetStore{widgets: make(map[string]widget)}
}

func (s *widgetStore) get(id string) (widget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.widgets[id]
	if !ok {
		return widget{}, errWidgetNotFound
	}
	return w, nil
}

func (s *widgetStore) create(in widgetInput) widget {
	w := widget{ID: ulid.Make().String(), Name: strings.TrimSpace(in.Name), Size: in.Size}
	s.mu.Lock()
	s.widgets[w.ID] = w
	s.mu.Unlock()
	return w
}

type widgetHandler struct {
	*responder.Responder
	store *widgetStore
}

func (h *widgetHandler) mount(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/widgets/{id}", h.getWidget)
	mux.HandleFunc("POST /api/widgets", h.createWidget)
}

func (h *widgetHandler) getWidget(w http.ResponseWriter, r *http.Request) {
	found, err := h.store.get(r.PathValue("id"))
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.RespondWithJSON(w, r, http.StatusOK, found)
}

func (h *widgetHandler) createWidget(w http.ResponseWriter, r *http.Request) {
	var in widgetInput
	if !h.ReadRequestBody(w, r, &in) {
		return
	}
	if errs := in.validate(); len(errs) > 0 {
		h.HandleValidationErrors(w, r, errs)
		return
	}
	h.RespondWithJSON(w, r, http.StatusCreated, h.store.create(in))
}

func classifyWidgetError(err error) (int, bool) {
	if errors.Is(err, errWidgetNotFound) {
		return http.StatusNotFound, true
	}
	return 0, false
}
