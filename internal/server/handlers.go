package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Aman-CERP/shardex/internal/catalog"
	"github.com/Aman-CERP/shardex/internal/errors"
	"github.com/Aman-CERP/shardex/pkg/version"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"

	maxDocumentBytes = 10 << 20
)

// handleSummary handles GET /{index}/_summary?include_sizes=.
func (s *Server) handleSummary(w http.ResponseWriter, req *http.Request) {
	name := req.PathValue("index")

	includeSizes, err := boolParam(req, "include_sizes")
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp, err := s.cfg.Catalog.Summary(req.Context(), name, catalog.QueryOptions{IncludeSizes: includeSizes})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleFlush handles {method} /{index}/_flush. A missing index is a bare 404.
func (s *Server) handleFlush(w http.ResponseWriter, req *http.Request) {
	name := req.PathValue("index")

	err := s.cfg.Catalog.Flush(req.Context(), name)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.IsNotFound(err):
		s.logger.Error("Could not find index", slog.String("index", name))
		w.WriteHeader(http.StatusNotFound)
	default:
		s.writeError(w, err)
	}
}

// handleCreateIndex handles PUT /{index}.
func (s *Server) handleCreateIndex(w http.ResponseWriter, req *http.Request) {
	name := req.PathValue("index")

	if _, err := s.cfg.Catalog.CreateIndex(req.Context(), name); err != nil {
		s.writeError(w, err)
		return
	}

	sh, ok, err := s.cfg.Catalog.GetShard(req.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		// deleted concurrently
		s.writeError(w, errors.IndexNotFound(name))
		return
	}
	s.writeJSON(w, http.StatusCreated, catalog.ShardInfo{Index: name, Identity: sh.Identity()})
}

// handleDeleteIndex handles DELETE /{index}.
func (s *Server) handleDeleteIndex(w http.ResponseWriter, req *http.Request) {
	if err := s.cfg.Catalog.DeleteIndex(req.Context(), req.PathValue("index")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// documentResult reports the outcome of a document write.
type documentResult struct {
	Index     string `json:"index"`
	ID        string `json:"id"`
	Committed bool   `json:"committed"`
}

// handleIndexDocument handles PUT|POST /{index}/_doc/{id}?commit=.
func (s *Server) handleIndexDocument(w http.ResponseWriter, req *http.Request) {
	name, id := req.PathValue("index"), req.PathValue("id")

	commit, err := boolParam(req, "commit")
	if err != nil {
		s.writeError(w, err)
		return
	}

	doc, err := decodeDocument(http.MaxBytesReader(w, req.Body, maxDocumentBytes))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.cfg.Catalog.AddDocument(req.Context(), name, id, doc, commit); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, documentResult{Index: name, ID: id, Committed: commit})
}

// handleDeleteDocument handles DELETE /{index}/_doc/{id}?commit=.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, req *http.Request) {
	name, id := req.PathValue("index"), req.PathValue("id")

	commit, err := boolParam(req, "commit")
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.cfg.Catalog.DeleteDocument(req.Context(), name, id, commit); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, documentResult{Index: name, ID: id, Committed: commit})
}

// handleList handles GET /_list.
func (s *Server) handleList(w http.ResponseWriter, req *http.Request) {
	names, err := s.cfg.Catalog.Names(req.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

// handleShards handles GET /_shards. Clients asking for application/msgpack get
// the gossip encoding; everyone else gets JSON.
func (s *Server) handleShards(w http.ResponseWriter, req *http.Request) {
	infos, err := s.cfg.Catalog.Shards(req.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	if !strings.Contains(req.Header.Get("Accept"), contentTypeMsgpack) {
		s.writeJSON(w, http.StatusOK, infos)
		return
	}

	data, err := msgpack.Marshal(infos)
	if err != nil {
		s.writeError(w, errors.InternalError("failed to encode shards", err))
		return
	}
	w.Header().Set("Content-Type", contentTypeMsgpack)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleVersion handles GET /_version.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, version.GetInfo())
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status string `json:"status"`
	Node   string `json:"node,omitempty"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Node: s.cfg.NodeID})
}

// boolParam parses an optional boolean query parameter; absent means false.
func boolParam(req *http.Request, key string) (bool, error) {
	raw := req.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.ValidationError(fmt.Sprintf("query parameter %s must be a boolean, got %q", key, raw), err)
	}
	return v, nil
}

// decodeDocument reads a single JSON object from r.
func decodeDocument(r io.Reader) (map[string]any, error) {
	var doc map[string]any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("document must be a JSON object: %v", err), err)
	}
	if doc == nil {
		return nil, errors.ValidationError("document must be a JSON object", nil)
	}
	return doc, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.writeError(w, errors.InternalError("failed to encode response", err))
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError maps err to its HTTP status and a {"message","code"} body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.Any("error", errors.FormatForLog(err)))
	}

	body, encErr := errors.FormatJSON(err)
	if encErr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
