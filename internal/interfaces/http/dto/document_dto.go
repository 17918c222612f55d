package dto

import (
	"time"

	"github.com/rxforms/backend/internal/domain/document"
)

// DocumentResponse is one entry of the merged document set
type DocumentResponse struct {
	Name       string         `json:"name"`
	Source     string         `json:"source"`
	CatalogID  string         `json:"catalog_id,omitempty"`
	Title      string         `json:"title"`
	Objects    int            `json:"objects"`
	TotalPages int            `json:"total_pages,omitempty"`
	UpdatedAt  *time.Time     `json:"updated_at,omitempty"`
	Data       document.Model `json:"data"`
}

// DocumentSummary is the list form of a document, without its model
type DocumentSummary struct {
	Name      string     `json:"name"`
	Source    string     `json:"source"`
	CatalogID string     `json:"catalog_id,omitempty"`
	Title     string     `json:"title"`
	Objects   int        `json:"objects"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// CatalogEntryResponse describes one bundled document
type CatalogEntryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	File        string `json:"file"`
	Title       string `json:"title"`
	Objects     int    `json:"objects"`
}

// DocumentListQuery holds the list filter
type DocumentListQuery struct {
	Query string `form:"q" binding:"omitempty,max=200"`
}

// ImportQuery holds the suggested name for an imported document
type ImportQuery struct {
	Name string `form:"name" binding:"omitempty,max=400"`
}

// RenameRequest is the body of a rename
type RenameRequest struct {
	Name string `json:"name" binding:"required,max=400"`
}

// NameResponse reports the name a document was stored under
type NameResponse struct {
	Name string `json:"name"`
}

// NewDocumentResponse converts a merged entry to its API form
func NewDocumentResponse(info document.Info) DocumentResponse {
	s := NewDocumentSummary(info)
	return DocumentResponse{
		Name:       s.Name,
		Source:     s.Source,
		CatalogID:  s.CatalogID,
		Title:      s.Title,
		Objects:    s.Objects,
		TotalPages: info.Data.TotalPages,
		UpdatedAt:  s.UpdatedAt,
		Data:       info.Data,
	}
}

// NewDocumentSummary converts a merged entry to its list form
func NewDocumentSummary(info document.Info) DocumentSummary {
	s := DocumentSummary{
		Name:      info.Name,
		Source:    string(info.Source),
		CatalogID: info.CatalogID,
		Title:     info.Data.Title,
		Objects:   len(info.Data.Objects),
	}
	if ts := info.Data.UpdatedAt; ts != nil {
		t := ts.Time
		s.UpdatedAt = &t
	}
	return s
}

// NewDocumentSummaries converts the merged set, keeping its order
func NewDocumentSummaries(infos []document.Info) []DocumentSummary {
	out := make([]DocumentSummary, 0, len(infos))
	for _, info := range infos {
		out = append(out, NewDocumentSummary(info))
	}
	return out
}

// NewCatalogEntryResponse converts catalog metadata to its API form
func NewCatalogEntryResponse(id, name, description, file string, model document.Model) CatalogEntryResponse {
	return CatalogEntryResponse{
		ID:          id,
		Name:        name,
		Description: description,
		File:        file,
		Title:       model.Title,
		Objects:     len(model.Objects),
	}
}
