package handlers

import (
	"io"
	"manifest-service/internal/api/dto"
	"manifest-service/internal/domain"
	"manifest-service/internal/ports"
	"manifest-service/internal/services"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

const maxPODBytes = 10 << 20

type TripHandler struct {
	Trips *services.TripService
}

func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req dto.TripRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.Trips.CreateTrip(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, dto.NewTripResponse(view.Trip, view.Stops))
}

func (h *TripHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req dto.TripRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.Trips.UpdateTrip(r.Context(), ps.ByName("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, dto.NewTripResponse(view.Trip, view.Stops))
}

func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	view, err := h.Trips.GetTrip(r.Context(), ps.ByName("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, dto.NewTripResponse(view.Trip, view.Stops))
}

// List supports ?status=, ?date=YYYY-MM-DD, ?vehicleId= and ?driverId= filters.
func (h *TripHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	var filter ports.TripFilter

	if s := q.Get("status"); s != "" {
		status, err := domain.ParseTripStatus(s)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		filter.Status = status
	}
	if d := q.Get("date"); d != "" {
		date, err := dto.ParseDate("date", d)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		filter.TripDate = &date
	}
	filter.VehicleID = strings.TrimSpace(q.Get("vehicleId"))
	filter.DriverID = strings.TrimSpace(q.Get("driverId"))

	trips, err := h.Trips.ListTrips(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]dto.TripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, dto.NewTripResponse(t, nil))
	}
	writeData(w, r, http.StatusOK, out)
}

func (h *TripHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req dto.StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.Trips.AdvanceStatus(r.Context(), ps.ByName("id"), req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, dto.NewTripResponse(view.Trip, view.Stops))
}

func (h *TripHandler) PlanFromRequest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req dto.ExternalTripRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ext, err := req.ToRequest()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.Trips.PlanFromRequest(r.Context(), ext)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, dto.NewTripResponse(view.Trip, view.Stops))
}

// UploadPOD takes the proof-of-delivery file as the raw request body.
func (h *TripHandler) UploadPOD(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	defer r.Body.Close()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPODBytes))
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, "pod file too large")
		return
	}

	trip, err := h.Trips.UploadPOD(r.Context(), ps.ByName("id"), data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, dto.NewTripResponse(trip, nil))
}

func (h *TripHandler) SetPODURL(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req dto.PODURLRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	trip, err := h.Trips.SetPODURL(r.Context(), ps.ByName("id"), req.URL)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, dto.NewTripResponse(trip, nil))
}

func (h *TripHandler) UpdateStopStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req dto.StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.Trips.UpdateStopStatus(r.Context(), ps.ByName("id"), req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, dto.StopSyncResponse{
		Stop: dto.NewStopResponse(*res.Stop),
		Job:  dto.JobResponse{ID: res.Job.ID, Status: string(res.Job.Status)},
	})
}
