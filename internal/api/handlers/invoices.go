package handlers

import (
	"bytes"
	"manifest-service/internal/adapters/render"
	"manifest-service/internal/api/dto"
	"manifest-service/internal/domain"
	"manifest-service/internal/services"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type InvoiceHandler struct {
	Invoices *services.InvoiceService
}

// Generate creates the trip's invoice (201). If one already exists it is
// returned unchanged with 409.
func (h *InvoiceHandler) Generate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	inv, created, err := h.Invoices.Generate(r.Context(), ps.ByName("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !created {
		writeJSON(w, r, http.StatusConflict, dto.Envelope{
			Data:   dto.NewInvoiceResponse(inv),
			Errors: []domain.FieldError{{Message: domain.ErrInvoiceExists.Error()}},
		})
		return
	}
	writeData(w, r, http.StatusCreated, dto.NewInvoiceResponse(inv))
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	inv, err := h.Invoices.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, dto.NewInvoiceResponse(inv))
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req dto.InvoiceUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	inv, err := h.Invoices.Update(r.Context(), ps.ByName("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, dto.NewInvoiceResponse(inv))
}

func (h *InvoiceHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req dto.StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	inv, err := h.Invoices.AdvanceStatus(r.Context(), ps.ByName("id"), req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, dto.NewInvoiceResponse(inv))
}

func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	doc, err := h.Invoices.Document(r.Context(), ps.ByName("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := render.InvoicePDF(&buf, doc); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+doc.Invoice.InvoiceNumber+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
