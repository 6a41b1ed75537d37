package api

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/ppb-analytics/ppbtree/internal/report"
)

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": s.store.List()})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.store.Get(chi.URLParam(r, "docID"))
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.store.Delete(docID); err != nil {
		if os.IsNotExist(err) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": docID})
}

func (s *Server) handleDocumentTree(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	tree, err := s.store.Tree(docID)
	if err != nil {
		if os.IsNotExist(err) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to load tree: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"document_id": docID, "tree": tree})
}

func (s *Server) handleDocumentEntities(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	ents, err := s.store.Entities(docID)
	if err != nil {
		if os.IsNotExist(err) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to load entities: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"document_id": docID, "entities": ents})
}

// handleDocumentReport renders the document summary. Markdown by
// default; ?format=html converts it.
func (s *Server) handleDocumentReport(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	doc, ok := s.store.Get(docID)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	ents, err := s.store.Entities(docID)
	if err != nil && !os.IsNotExist(err) {
		jsonError(w, "failed to load entities: "+err.Error(), http.StatusInternalServerError)
		return
	}

	md := report.BuildMarkdown(doc, ents)
	if r.URL.Query().Get("format") == "html" {
		html, err := report.RenderHTML(md)
		if err != nil {
			jsonError(w, "failed to render report: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(html)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(md))
}
