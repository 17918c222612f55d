package handler

import (
	"github.com/rxforms/backend/internal/interfaces/http/router"
)

// DocumentRoutes creates the route group for the document endpoints
func DocumentRoutes(h *DocumentHandler) *router.DomainGroup {
	group := router.NewDomainGroup("documents", "/documents")

	group.GET("", h.List).Describe("List the merged document set")
	group.POST("/import", h.Import).Describe("Import an interchange payload as a local document")
	group.GET("/:name", h.Get).Describe("Get a document")
	group.PUT("/:name", h.Save).Describe("Save a local document")
	group.DELETE("/:name", h.Delete).Describe("Delete a local document")
	group.GET("/:name/export", h.Export).Describe("Download a document")
	group.POST("/:name/duplicate", h.Duplicate).Describe("Copy a document under a free name")
	group.POST("/:name/rename", h.Rename).Describe("Rename a local document")

	return group
}

// CatalogRoutes creates the route group for the bundled catalog
func CatalogRoutes(h *CatalogHandler) *router.DomainGroup {
	group := router.NewDomainGroup("catalog", "/catalog")

	group.GET("", h.List).Describe("List the bundled documents")
	group.POST("/reload", h.Reload).Describe("Re-read the bundled documents")
	group.GET("/:id", h.Get).Describe("Get a bundled document by catalog ID")

	return group
}

// PrintRoutes creates the route group for the print endpoints
func PrintRoutes(h *PrintHandler) *router.DomainGroup {
	group := router.NewDomainGroup("print", "/print")

	group.POST("", h.Print).Describe("Render a document to an output format")
	group.POST("/preview", h.Preview).Describe("Render an HTML preview")

	return group
}

// SystemRoutes creates the route group for system information
func SystemRoutes(h *SystemHandler) *router.DomainGroup {
	group := router.NewDomainGroup("system", "/system")

	group.GET("/info", h.GetSystemInfo).Describe("Service name, version and uptime")

	return group
}
