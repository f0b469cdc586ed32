package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"msgrag/internal/llm"
	"msgrag/internal/store"
)

// Answerer is the server-facing subset of the retrieval pipeline.
type Answerer interface {
	Answer(ctx context.Context, question string) (llm.Stream, store.RankedResult, error)
}

// Server exposes the query pipeline over a streaming HTTP endpoint speaking
// the OpenAI chat-completions wire format.
type Server struct {
	pipeline Answerer
}

func New(pipeline Answerer) *Server {
	return &Server{pipeline: pipeline}
}

// Handler returns the HTTP routes with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", s.handleChat)
	mux.HandleFunc("/healthz", handleHealth)
	return withCORS(mux)
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting server on port %d...", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type chatRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// The question is the last user message.
	question := ""
	for _, m := range req.Messages {
		if m.Role == "user" {
			question = m.Content
		}
	}
	if question == "" {
		writeJSONError(w, http.StatusBadRequest, "no user message found")
		return
	}

	reqID := uuid.NewString()
	log.Printf("[%s] question received (%d chars)", reqID, len(question))

	stream, result, err := s.pipeline.Answer(r.Context(), question)
	if err != nil {
		log.Printf("[%s] answer failed: %v", reqID, err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Keep reverse proxies from buffering the event stream.
	w.Header().Set("X-Accel-Buffering", "no")
	fl, _ := w.(http.Flusher)

	deltas := 0
	for {
		if r.Context().Err() != nil {
			// Client is gone: stop pulling, nothing left to write.
			log.Printf("[%s] client disconnected after %d deltas", reqID, deltas)
			return
		}
		delta, done, err := stream.Recv()
		if err != nil {
			log.Printf("[%s] stream error after %d deltas: %v", reqID, deltas, err)
			writeEvent(w, fl, errorEvent{Error: err.Error()})
			break
		}
		if done {
			break
		}
		writeEvent(w, fl, deltaEvent(delta))
		deltas++
	}

	// The stream must always terminate cleanly.
	fmt.Fprint(w, "data: [DONE]\n\n")
	if fl != nil {
		fl.Flush()
	}
	log.Printf("[%s] answered with %d deltas from %d excerpts", reqID, deltas, result.Len())
}

type errorEvent struct {
	Error string `json:"error"`
}

// deltaEvent frames one delta the way the OpenAI streaming API does, so
// existing chat clients can consume the endpoint unchanged.
func deltaEvent(content string) interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{"delta": map[string]string{"content": content}},
		},
	}
}

func writeEvent(w http.ResponseWriter, fl http.Flusher, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	if fl != nil {
		fl.Flush()
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
