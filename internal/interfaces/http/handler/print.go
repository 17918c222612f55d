package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	printingapp "github.com/rxforms/backend/internal/application/printing"
	infra "github.com/rxforms/backend/internal/infrastructure/printing"
	"github.com/rxforms/backend/internal/interfaces/http/dto"
	"github.com/rxforms/backend/internal/interfaces/http/middleware"
)

// PrintPagesHeader reports how many pages a print produced
const PrintPagesHeader = "X-Print-Pages"

// PrintService is the print surface the handler needs.
// application/printing.Service implements it.
type PrintService interface {
	Print(ctx context.Context, req printingapp.PrintRequest) (*printingapp.PrintResult, error)
	Preview(ctx context.Context, req printingapp.PrintRequest) (*infra.Result, error)
}

// PrintHandler handles the print endpoints
type PrintHandler struct {
	BaseHandler
	prints PrintService
}

// NewPrintHandler creates a new PrintHandler
func NewPrintHandler(prints PrintService) *PrintHandler {
	return &PrintHandler{prints: prints}
}

// Print godoc
//
//	@ID				printDocument
//	@Summary		Print a document
//	@Description	Fills the placeholders of a named or inline document and returns the rendered bytes
//	@Tags			print
//	@Accept			json
//	@Produce		application/pdf,text/html,image/png
//	@Param			request	body		dto.PrintRequest	true	"Print request"
//	@Success		200		{file}		binary				"Rendered document"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/print [post]
func (h *PrintHandler) Print(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	out, err := h.prints.Print(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header(middleware.PrintJobIDHeader, out.JobID.String())
	c.Header(PrintPagesHeader, strconv.Itoa(out.Result.Pages))
	c.Header("Content-Disposition", disposition("inline", fileName(req, out.Result.Extension)))
	c.Data(http.StatusOK, out.Result.ContentType, out.Result.Data)
}

// Preview godoc
//
//	@ID				previewDocument
//	@Summary		Preview a document as HTML
//	@Description	Same input as print. The format is ignored and nothing is archived.
//	@Tags			print
//	@Accept			json
//	@Produce		text/html
//	@Param			request	body		dto.PrintRequest	true	"Print request"
//	@Success		200		{string}	string				"HTML page"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/print/preview [post]
func (h *PrintHandler) Preview(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	result, err := h.prints.Preview(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

func (h *PrintHandler) bind(c *gin.Context) (printingapp.PrintRequest, bool) {
	var body dto.PrintRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		middleware.HandleValidationError(c, err)
		return printingapp.PrintRequest{}, false
	}

	req := printingapp.PrintRequest{
		Name:         body.Name,
		Model:        body.Model,
		Variables:    body.Variables,
		Prescription: body.Prescription,
		Format:       body.Format,
	}
	if p := body.Patient; p != nil {
		req.Patient = &printingapp.PatientRecord{
			Name:      p.Name,
			BirthDate: p.BirthDate,
			Age:       p.Age,
			Address:   p.Address,
		}
	}
	return req, true
}

// fileName names the rendered file after the document
func fileName(req printingapp.PrintRequest, ext string) string {
	base := strings.TrimSpace(req.Name)
	if req.Model != nil {
		base = strings.TrimSpace(req.Model.Title)
	}
	if base == "" {
		base = "documento"
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}
