package handler

import (
	"context"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rxforms/backend/internal/domain/document"
	"github.com/rxforms/backend/internal/interfaces/http/dto"
	"github.com/rxforms/backend/internal/interfaces/http/middleware"
)

// DocumentService is the document surface the handler needs.
// application/document.Service implements it.
type DocumentService interface {
	Filter(ctx context.Context, query string) ([]document.Info, error)
	Get(ctx context.Context, name string) (document.Info, error)
	Export(ctx context.Context, name string) ([]byte, error)
	Import(ctx context.Context, raw []byte, suggestedBaseName string) (string, error)
	Duplicate(ctx context.Context, name string) (string, error)
	Save(ctx context.Context, name string, model document.Model) error
	Rename(ctx context.Context, from, to string) error
	Delete(ctx context.Context, name string) error
}

// DocumentHandler handles the document endpoints
type DocumentHandler struct {
	BaseHandler
	documents DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documents DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// List godoc
//
//	@ID				listDocuments
//	@Summary		List documents
//	@Description	Bundled documents in catalog order, then local documents most recently changed first
//	@Tags			documents
//	@Produce		json
//	@Param			q	query		string	false	"Case-insensitive name or title filter"
//	@Success		200	{object}	APIResponse[[]dto.DocumentSummary]
//	@Router			/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	var query dto.DocumentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	infos, err := h.documents.Filter(c.Request.Context(), query.Query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewDocumentSummaries(infos))
}

// Get godoc
//
//	@ID				getDocument
//	@Summary		Get a document
//	@Tags			documents
//	@Produce		json
//	@Param			name	path		string	true	"Document name"
//	@Success		200		{object}	APIResponse[dto.DocumentResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Router			/documents/{name} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	info, err := h.documents.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewDocumentResponse(info))
}

// Export godoc
//
//	@ID				exportDocument
//	@Summary		Download a document in interchange format
//	@Tags			documents
//	@Produce		json
//	@Param			name	path	string	true	"Document name"
//	@Success		200		{file}	binary	"Document JSON"
//	@Failure		404		{object}	ErrorResponse
//	@Router			/documents/{name}/export [get]
func (h *DocumentHandler) Export(c *gin.Context) {
	name := c.Param("name")
	data, err := h.documents.Export(c.Request.Context(), name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment(name+".json"))
	c.Data(http.StatusOK, "application/json", data)
}

// Import godoc
//
//	@ID				importDocument
//	@Summary		Import a document
//	@Description	Stores the raw interchange JSON under a fresh name derived from its title, or from the name parameter when the title is blank
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			name	query		string	false	"Base name used when the document has no title"
//	@Success		201		{object}	APIResponse[dto.NameResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/documents/import [post]
func (h *DocumentHandler) Import(c *gin.Context) {
	var query dto.ImportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Request body could not be read")
		return
	}

	name, err := h.documents.Import(c.Request.Context(), raw, query.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NameResponse{Name: name})
}

// Duplicate godoc
//
//	@ID				duplicateDocument
//	@Summary		Duplicate a document
//	@Tags			documents
//	@Produce		json
//	@Param			name	path		string	true	"Document name"
//	@Success		201		{object}	APIResponse[dto.NameResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Router			/documents/{name}/duplicate [post]
func (h *DocumentHandler) Duplicate(c *gin.Context) {
	name, err := h.documents.Duplicate(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NameResponse{Name: name})
}

// Save godoc
//
//	@ID				saveDocument
//	@Summary		Save a local document
//	@Description	Overwrites or creates the local document. Bundled documents cannot be saved.
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string	true	"Document name"
//	@Success		200		{object}	APIResponse[dto.NameResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Router			/documents/{name} [put]
func (h *DocumentHandler) Save(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Request body could not be read")
		return
	}
	name := c.Param("name")
	model, err := document.Decode(raw)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.documents.Save(c.Request.Context(), name, model); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NameResponse{Name: name})
}

// Rename godoc
//
//	@ID				renameDocument
//	@Summary		Rename a local document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string				true	"Document name"
//	@Param			request	body		dto.RenameRequest	true	"New name"
//	@Success		200		{object}	APIResponse[dto.NameResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/documents/{name}/rename [post]
func (h *DocumentHandler) Rename(c *gin.Context) {
	var req dto.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.documents.Rename(c.Request.Context(), c.Param("name"), req.Name); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NameResponse{Name: req.Name})
}

// Delete godoc
//
//	@ID				deleteDocument
//	@Summary		Delete a local document
//	@Description	Deleting an absent document succeeds. Bundled documents cannot be deleted.
//	@Tags			documents
//	@Param			name	path	string	true	"Document name"
//	@Success		204
//	@Failure		403		{object}	ErrorResponse
//	@Router			/documents/{name} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("name")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// attachment builds a Content-Disposition value; non-ASCII file names are
// encoded per RFC 2231.
func attachment(filename string) string {
	return disposition("attachment", filename)
}

func disposition(kind, filename string) string {
	if v := mime.FormatMediaType(kind, map[string]string{"filename": filename}); v != "" {
		return v
	}
	return kind
}
