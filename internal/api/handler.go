// Package api implements the HTTP handlers for the empleos service.
//
// All routes except /health expect an X-User-ID header forwarded by the
// gateway (the identity provider is an external collaborator).
//
// Routes:
//
//	GET    /jobs/search?query=…&<filters>   → fresh search (page 1)
//	POST   /jobs/more                       → fetch and append the next page
//	POST   /jobs/retry                      → retry after a failed fetch
//	GET    /notifications/preferences       → stored preferences (null = off)
//	PUT    /notifications/preferences       → save preferences + schedule recheck
//	DELETE /notifications/preferences       → clear preferences + cancel recheck
//	GET    /notifications                   → inbox, newest first
//	POST   /notifications/read              → mark one notification read
//	POST   /notifications/read-all          → mark all read
//	DELETE /notifications                   → clear inbox
//	GET    /resume                          → resilient résumé read
//	PUT    /resume                          → write-through résumé save
//	GET    /myjobs?list=saved|applied       → list saved/applied jobs
//	POST   /myjobs                          → add a job to a list
//	DELETE /myjobs?list=…&jobId=…           → remove a job from a list
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/DanielDev87/app-empleos/internal/model"
	"github.com/DanielDev87/app-empleos/internal/myjobs"
	"github.com/DanielDev87/app-empleos/internal/notify"
	"github.com/DanielDev87/app-empleos/internal/resume"
	"github.com/DanielDev87/app-empleos/internal/search"
)

// Handler holds shared dependencies.
type Handler struct {
	client   search.Searcher
	pageSize int
	notifs   *notify.Service
	inbox    *notify.Inbox
	reader   *resume.Reader
	docs     resume.RemoteStore
	myJobs   *myjobs.Service

	mu   sync.Mutex
	accs map[string]*search.Accumulator // one live fetch state per user
}

// NewHandler returns a configured Handler.
func NewHandler(client search.Searcher, pageSize int, notifs *notify.Service, inbox *notify.Inbox, reader *resume.Reader, docs resume.RemoteStore, myJobs *myjobs.Service) *Handler {
	return &Handler{
		client:   client,
		pageSize: pageSize,
		notifs:   notifs,
		inbox:    inbox,
		reader:   reader,
		docs:     docs,
		myJobs:   myJobs,
		accs:     make(map[string]*search.Accumulator),
	}
}

// RegisterRoutes mounts all service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/jobs/search", h.handleSearch)
	mux.HandleFunc("/jobs/more", h.handleLoadMore)
	mux.HandleFunc("/jobs/retry", h.handleRetry)
	mux.HandleFunc("/notifications/preferences", h.handlePreferences)
	mux.HandleFunc("/notifications", h.handleInbox)
	mux.HandleFunc("/notifications/read", h.handleMarkRead)
	mux.HandleFunc("/notifications/read-all", h.handleMarkAllRead)
	mux.HandleFunc("/resume", h.handleResume)
	mux.HandleFunc("/myjobs", h.handleMyJobs)
}

// accumulator returns the user's live fetch state, creating it on first use.
func (h *Handler) accumulator(userID string) *search.Accumulator {
	h.mu.Lock()
	defer h.mu.Unlock()
	acc, ok := h.accs[userID]
	if !ok {
		acc = search.NewAccumulator(h.client, h.pageSize)
		h.accs[userID] = acc
	}
	return acc
}

// searchState is the JSON shape of an accumulator snapshot.
type searchState struct {
	Jobs      []model.JobListing `json:"jobs"`
	TotalJobs int                `json:"totalJobs"`
	HasMore   bool               `json:"hasMore"`
	Error     string             `json:"error,omitempty"`
}

func snapshot(acc *search.Accumulator) searchState {
	return searchState{
		Jobs:      acc.Jobs(),
		TotalJobs: acc.TotalJobs(),
		HasMore:   acc.HasMore(),
		Error:     acc.ErrMessage(),
	}
}

// ─── Job search ──────────────────────────────────────────────────────────────

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params := r.URL.Query()
	query := params.Get("query")
	if strings.TrimSpace(query) == "" {
		jsonError(w, "query parameter is required", http.StatusBadRequest)
		return
	}

	// Every other parameter is passed through to the API verbatim
	// (employment_types, country, date_posted, …).
	filters := make(map[string]string)
	for k := range params {
		if k == "query" {
			continue
		}
		filters[k] = params.Get(k)
	}

	acc := h.accumulator(userID)
	if err := acc.Search(r.Context(), query, filters); err != nil {
		h.searchFailed(w, acc, err)
		return
	}
	jsonOK(w, snapshot(acc))
}

func (h *Handler) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	acc := h.accumulator(userID)
	if err := acc.LoadMore(r.Context()); err != nil {
		h.searchFailed(w, acc, err)
		return
	}
	jsonOK(w, snapshot(acc))
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	acc := h.accumulator(userID)
	if acc.Query() == "" {
		jsonError(w, "no search to retry", http.StatusBadRequest)
		return
	}
	if err := acc.Retry(r.Context()); err != nil {
		h.searchFailed(w, acc, err)
		return
	}
	jsonOK(w, snapshot(acc))
}

func (h *Handler) searchFailed(w http.ResponseWriter, acc *search.Accumulator, err error) {
	log.Printf("[api] search error: %v", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	json.NewEncoder(w).Encode(snapshot(acc))
}

// ─── Notification preferences ────────────────────────────────────────────────

func (h *Handler) handlePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		prefs, err := h.notifs.GetPreferences(r.Context(), userID)
		if err != nil {
			log.Printf("[api] get preferences error: %v", err)
			jsonError(w, "storage error", http.StatusInternalServerError)
			return
		}
		jsonOK(w, prefs)

	case http.MethodPut:
		var prefs model.NotificationPreferences
		if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if !h.notifs.SavePreferences(r.Context(), userID, &prefs) {
			jsonError(w, "could not save preferences", http.StatusInternalServerError)
			return
		}
		scheduled := h.notifs.ScheduleRecheck(userID, &prefs)
		jsonOK(w, map[string]bool{"saved": true, "scheduled": scheduled})

	case http.MethodDelete:
		if !h.notifs.SavePreferences(r.Context(), userID, nil) {
			jsonError(w, "could not clear preferences", http.StatusInternalServerError)
			return
		}
		jsonOK(w, map[string]bool{"saved": true})

	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ─── Notification inbox ──────────────────────────────────────────────────────

func (h *Handler) handleInbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		list, err := h.inbox.List(r.Context(), userID)
		if err != nil {
			log.Printf("[api] list notifications error: %v", err)
			jsonError(w, "storage error", http.StatusInternalServerError)
			return
		}
		unread, err := h.inbox.UnreadCount(r.Context(), userID)
		if err != nil {
			log.Printf("[api] unread count error: %v", err)
			jsonError(w, "storage error", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []model.Notification{}
		}
		jsonOK(w, map[string]any{"notifications": list, "unreadCount": unread})

	case http.MethodDelete:
		if err := h.inbox.Clear(r.Context(), userID); err != nil {
			log.Printf("[api] clear notifications error: %v", err)
			jsonError(w, "storage error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
		jsonError(w, "body must contain id", http.StatusBadRequest)
		return
	}
	if err := h.inbox.MarkAsRead(r.Context(), userID, body.ID); err != nil {
		log.Printf("[api] mark read error: %v", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.inbox.MarkAllAsRead(r.Context(), userID); err != nil {
		log.Printf("[api] mark all read error: %v", err)
		jsonError(w, "storage error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Résumé ──────────────────────────────────────────────────────────────────

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := h.reader.Read(r.Context(), userID)
		if errors.Is(err, resume.ErrNotFound) {
			jsonError(w, "resume not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("[api] resume read error: %v", err)
			jsonError(w, "storage error", http.StatusInternalServerError)
			return
		}
		jsonOK(w, rec)

	case http.MethodPut:
		var data json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		err := h.docs.Put(r.Context(), userID, data)
		if errors.Is(err, resume.ErrOffline) {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			log.Printf("[api] resume save error: %v", err)
			jsonError(w, "storage error", http.StatusInternalServerError)
			return
		}
		jsonOK(w, map[string]bool{"saved": true})

	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ─── Saved / applied jobs ────────────────────────────────────────────────────

func (h *Handler) handleMyJobs(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		list, err := myjobs.ParseList(r.URL.Query().Get("list"))
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jobs, err := h.myJobs.Jobs(r.Context(), userID, list)
		if err != nil {
			log.Printf("[api] list my jobs error: %v", err)
			jsonError(w, "storage error", http.StatusInternalServerError)
			return
		}
		if jobs == nil {
			jobs = []model.JobListing{}
		}
		jsonOK(w, jobs)

	case http.MethodPost:
		var body struct {
			List string           `json:"list"`
			Job  model.JobListing `json:"job"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Job.ID == "" {
			jsonError(w, "body must contain list and job", http.StatusBadRequest)
			return
		}
		list, err := myjobs.ParseList(body.List)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = h.myJobs.Add(r.Context(), userID, list, body.Job)
		if errors.Is(err, myjobs.ErrDuplicate) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		if err != nil {
			log.Printf("[api] add my job error: %v", err)
			jsonError(w, "storage error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)

	case http.MethodDelete:
		list, err := myjobs.ParseList(r.URL.Query().Get("list"))
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jobID := r.URL.Query().Get("jobId")
		if jobID == "" {
			jsonError(w, "jobId parameter is required", http.StatusBadRequest)
			return
		}
		if err := h.myJobs.Remove(r.Context(), userID, list, jobID); err != nil {
			log.Printf("[api] remove my job error: %v", err)
			jsonError(w, "storage error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		jsonError(w, "missing X-User-ID header", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
