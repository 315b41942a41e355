package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPRetriever_Retrieve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/retrieve" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body["query"] != "Comment gérer le stress?" {
			t.Errorf("unexpected query: %v", body["query"])
		}
		if body["top_k"] != float64(5) {
			t.Errorf("unexpected top_k: %v", body["top_k"])
		}
		w.Write([]byte(`{"chunks":[
			{"text":"Respirer lentement.","source":"guide.pdf","chunk_id":"c1"},
			{"text":"Sans source.","source":null,"chunk_id":"c2"}
		]}`))
	}))
	defer server.Close()

	r := NewHTTPRetriever(server.URL+"/", nil)
	chunks, err := r.Retrieve(context.Background(), "Comment gérer le stress?", 5)

	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "Respirer lentement." || chunks[0].SourceName() != "guide.pdf" {
		t.Errorf("unexpected first chunk: %+v", chunks[0])
	}
	if chunks[1].HasSource() {
		t.Error("null source should decode as absent")
	}
}

func TestHTTPRetriever_EmptyChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chunks":[]}`))
	}))
	defer server.Close()

	chunks, err := NewHTTPRetriever(server.URL, nil).Retrieve(context.Background(), "q", 5)

	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if chunks == nil || len(chunks) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", chunks)
	}
}

func TestHTTPRetriever_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewHTTPRetriever(server.URL, nil).Retrieve(context.Background(), "q", 5)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusInternalServerError {
		t.Errorf("unexpected code: %d", se.Code)
	}
}

func TestHTTPRetriever_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := NewHTTPRetriever(server.URL, nil).Retrieve(context.Background(), "q", 5)

	if err == nil {
		t.Error("should error on malformed body")
	}
}

func TestHTTPRetriever_MalformedChunkList(t *testing.T) {
	for name, body := range map[string]string{
		"missing chunks": `{}`,
		"null chunks":    `{"chunks":null}`,
		"service error":  `{"error":"Indexer not initialized"}`,
		"null element":   `{"chunks":[{"text":"a","source":"x"},null]}`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			chunks, err := NewHTTPRetriever(server.URL, nil).Retrieve(context.Background(), "q", 5)

			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
			if chunks != nil {
				t.Errorf("expected no chunks, got %#v", chunks)
			}
		})
	}
}

func TestHTTPRetriever_RespectsDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPRetriever(server.URL, nil).Retrieve(ctx, "q", 5)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestHTTPRetriever_DefaultURL(t *testing.T) {
	r := NewHTTPRetriever("", nil)
	if r.serviceURL != DefaultServiceURL {
		t.Errorf("should default to %s", DefaultServiceURL)
	}
}

func TestHTTPRetriever_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "retrieval",
			"indexed": true,
		})
	}))
	defer server.Close()

	health, err := NewHTTPRetriever(server.URL, nil).Health(context.Background())

	if err != nil {
		t.Fatalf("health failed: %v", err)
	}
	if health.Status != "healthy" || !health.Indexed {
		t.Errorf("unexpected health: %+v", health)
	}
}

func TestHTTPRetriever_UnhealthyService(t *testing.T) {
	_, err := NewHTTPRetriever("http://localhost:99999", nil).Health(context.Background())
	if err == nil {
		t.Error("should be unhealthy")
	}
}

func TestHTTPRetriever_Reindex(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/reindex" && r.Method == http.MethodPost {
			called = true
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	if err := NewHTTPRetriever(server.URL, nil).Reindex(context.Background()); err != nil {
		t.Fatalf("reindex failed: %v", err)
	}
	if !called {
		t.Error("reindex endpoint not called")
	}
}
