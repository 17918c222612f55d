package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/rxforms/backend/internal/domain/document"
	"github.com/rxforms/backend/internal/infrastructure/catalog"
	"github.com/rxforms/backend/internal/interfaces/http/dto"
)

// BundledCatalog is the catalog surface the handler needs.
// catalog.Catalog implements it.
type BundledCatalog interface {
	Entries() []catalog.Entry
	GetByID(id string) (catalog.Entry, bool)
	Reload() error
}

// CatalogHandler handles the bundled catalog endpoints
type CatalogHandler struct {
	BaseHandler
	catalog BundledCatalog
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(c BundledCatalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// List godoc
//
//	@ID				listCatalogEntries
//	@Summary		List the bundled documents
//	@Description	Catalog entries in catalog order, with their stable IDs
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]dto.CatalogEntryResponse]
//	@Router			/catalog [get]
func (h *CatalogHandler) List(c *gin.Context) {
	h.Success(c, catalogEntries(h.catalog.Entries()))
}

// Get godoc
//
//	@ID				getCatalogEntry
//	@Summary		Get a bundled document by catalog ID
//	@Tags			catalog
//	@Produce		json
//	@Param			id	path		string	true	"Catalog entry ID"
//	@Success		200	{object}	APIResponse[dto.CatalogEntryResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Router			/catalog/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	id := c.Param("id")
	e, ok := h.catalog.GetByID(id)
	if !ok {
		h.HandleError(c, document.NewNotFoundError(id))
		return
	}
	h.Success(c, dto.NewCatalogEntryResponse(e.ID, e.Name, e.Description, e.File, e.Model))
}

// Reload godoc
//
//	@ID				reloadCatalog
//	@Summary		Re-read the bundled documents
//	@Description	Picks up changed files in the catalog directory. On failure the previous entries stay in use.
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]dto.CatalogEntryResponse]
//	@Failure		500	{object}	ErrorResponse
//	@Router			/catalog/reload [post]
func (h *CatalogHandler) Reload(c *gin.Context) {
	if err := h.catalog.Reload(); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogEntries(h.catalog.Entries()))
}

func catalogEntries(entries []catalog.Entry) []dto.CatalogEntryResponse {
	out := make([]dto.CatalogEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.NewCatalogEntryResponse(e.ID, e.Name, e.Description, e.File, e.Model))
	}
	return out
}
