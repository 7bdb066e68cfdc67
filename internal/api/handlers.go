package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/internal/auth"
	"github.com/inkwell-app/inkwell/internal/config"
	"github.com/inkwell-app/inkwell/internal/core"
	"github.com/inkwell-app/inkwell/internal/store"
)

type APIHandler struct {
	journalService *core.JournalService
	llm            core.ReplyStreamer
}

func NewAPIHandler(js *core.JournalService, llm core.ReplyStreamer) *APIHandler {
	return &APIHandler{journalService: js, llm: llm}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		externalUserID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := h.journalService.GetUserByExternalID(externalUserID)
		if err != nil {
			log.Printf("Error in JWTAuthMiddleware for user %s: %v", externalUserID, err)
			writeError(w, http.StatusInternalServerError, "Failed to process user identity")
			return
		}

		if user == nil {
			writeError(w, http.StatusUnauthorized, "User not found")
			return
		}

		ctx := context.WithValue(r.Context(), "userID", user.ID)
		ctx = context.WithValue(ctx, "externalUserID", user.ExternalUserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type SignupRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	}
	if req.UserID == "" {
		req.UserID = uuid.NewString()
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for user %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user, err := h.journalService.CreateUser(req.UserID, hashedPassword)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.UserID == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "User ID and password are required")
		return
	}

	user, err := h.journalService.GetUserByExternalID(req.UserID)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.UserID, err)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.GenerateJWT(req.UserID)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

type IngestEntryRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

type IngestEntryResponse struct {
	*core.IngestResult
	Reply string `json:"reply,omitempty"`
}

func (h *APIHandler) IngestEntryHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var req IngestEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.journalService.Ingest(userID, req.Text, req.Mode)
	if err != nil {
		if errors.Is(err, core.ErrEmptyText) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error ingesting entry for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to save entry")
		return
	}

	resp := IngestEntryResponse{IngestResult: result}
	if h.llm != nil && h.llm.Available() && result.Persona != nil {
		system, user := core.BuildPrompts(result.Persona.Traits, result.Mode, result.Entry, result.Related)
		reply, err := h.llm.Complete(r.Context(), system, user)
		if err != nil {
			// Degrade to no reply; the saved entry is the authoritative outcome.
			log.Printf("Reply generation failed for entry %d: %v", result.Entry.ID, err)
		} else {
			resp.Reply = reply
		}
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// StreamEntryHandler runs ingestion, then streams the reply as named events:
// exactly one meta, zero or more delta events, and one terminal end or error.
// Ingestion side effects are final once meta is written; a failure after that
// point closes the stream without rolling anything back.
func (h *APIHandler) StreamEntryHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var req IngestEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.journalService.Ingest(userID, req.Text, req.Mode)
	if err != nil {
		if errors.Is(err, core.ErrEmptyText) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error ingesting entry for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to save entry")
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sse.writeJSONEvent("meta", result)

	if h.llm == nil || !h.llm.Available() || result.Persona == nil {
		for _, delta := range core.FallbackDeltas {
			sse.writeEvent("delta", delta)
		}
		sse.writeJSONEvent("end", map[string]bool{"ok": true})
		return
	}

	// Bound the stream so a stalled upstream cannot hold the connection
	// open forever. Client disconnects cancel through r.Context().
	timeout := time.Duration(config.AppConfig.StreamTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	system, user := core.BuildPrompts(result.Persona.Traits, result.Mode, result.Entry, result.Related)
	chunks, errs := h.llm.CompleteStream(ctx, system, user)

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				select {
				case streamErr, errOk := <-errs:
					if errOk && streamErr != nil {
						log.Printf("Reply stream failed for entry %d: %v", result.Entry.ID, streamErr)
						sse.writeJSONEvent("error", map[string]string{"message": "reply stream failed"})
						return
					}
				default:
				}
				if ctx.Err() != nil {
					// The producer shut down because the context ended, not
					// because the reply finished; this is not a clean end.
					h.closeInterruptedStream(ctx, r, sse, result.Entry.ID)
					return
				}
				sse.writeJSONEvent("end", map[string]bool{"ok": true})
				return
			}
			if chunk == "" {
				continue
			}
			sse.writeEvent("delta", chunk)
		case <-ctx.Done():
			h.closeInterruptedStream(ctx, r, sse, result.Entry.ID)
			return
		}
	}
}

// closeInterruptedStream ends a reply stream whose context died before the
// upstream finished. The upstream request is abandoned via ctx either way,
// but the two causes differ on the wire: a disconnected client gets nothing
// further, while a still-connected client whose stream hit the timeout bound
// still gets its one terminal event.
func (h *APIHandler) closeInterruptedStream(ctx context.Context, r *http.Request, sse *sseWriter, entryID int64) {
	if r.Context().Err() == nil {
		log.Printf("Reply stream for entry %d timed out: %v", entryID, ctx.Err())
		sse.writeJSONEvent("error", map[string]string{"message": "reply stream timed out"})
		return
	}
	log.Printf("Reply stream for entry %d cancelled by client: %v", entryID, r.Context().Err())
}

func (h *APIHandler) ListEntriesHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	limit := core.CandidatePoolSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	entries, err := h.journalService.ListEntries(userID, limit)
	if err != nil {
		log.Printf("Error listing entries for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list entries")
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	json.NewEncoder(w).Encode(entries)
}

func (h *APIHandler) GetEntryHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}

	entry, err := h.journalService.GetEntry(entryID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Entry not found")
			return
		}
		log.Printf("Error getting entry %d for user %d: %v", entryID, userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to get entry")
		return
	}
	json.NewEncoder(w).Encode(entry)
}

func (h *APIHandler) GetPersonaHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	persona, err := h.journalService.GetPersona(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Persona not found")
			return
		}
		log.Printf("Error getting persona for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to get persona")
		return
	}
	json.NewEncoder(w).Encode(persona)
}
