package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// ensureOllamaModel verifies Ollama is reachable and pulls the embedding
// model if it is not installed yet. Embeddings are computed lazily on ingest
// and query, so a missing model would otherwise fail deep inside chromem.
func ensureOllamaModel(baseURL, model string) error {
	type ollamaPullRequest struct {
		Name   string `json:"name"`
		Stream bool   `json:"stream"`
	}

	resp, err := http.Get(baseURL + "/api/tags")
	if err != nil || resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama is not running or not reachable at %s", baseURL)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if bytes.Contains(body, []byte(model)) {
		return nil
	}

	log.Printf("Model %s not found, pulling...", model)
	b, _ := json.Marshal(ollamaPullRequest{Name: model, Stream: false})
	pullResp, err := http.Post(baseURL+"/api/pull", "application/json", bytes.NewBuffer(b))
	if err != nil {
		return fmt.Errorf("failed to pull model %s: %w", model, err)
	}
	defer pullResp.Body.Close()
	if pullResp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to pull model %s: status %d", model, pullResp.StatusCode)
	}
	log.Printf("Model %s pulled", model)

	return nil
}
