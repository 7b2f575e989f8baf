package dto

import (
	"fmt"
	"manifest-service/internal/domain"
	"manifest-service/internal/services"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type Package struct {
	PackageType string   `json:"packageType"`
	Quantity    int      `json:"quantity"`
	Volume      *float64 `json:"volume,omitempty"`
	PalletCount *int     `json:"palletCount,omitempty"`
}

type TripRequest struct {
	TripDate       string     `json:"tripDate"`
	VehicleID      string     `json:"vehicleId"`
	DriverID       string     `json:"driverId"`
	StartTime      *time.Time `json:"startTime"`
	EndTime        *time.Time `json:"endTime"`
	TimeWindowFrom *time.Time `json:"timeWindowFrom"`
	TimeWindowTo   *time.Time `json:"timeWindowTo"`
	TruckType      string     `json:"truckType"`
	NumberOfTrips  *int       `json:"numberOfTrips"`
	Packages       []Package  `json:"packages"`
	JobIDs         []string   `json:"jobIds"`
	CustomerID     string     `json:"customerId"`
	PickupAddress  string     `json:"pickupAddress"`
	DropAddress    string     `json:"dropAddress"`
	HelperName     string     `json:"helperName"`
	RequiresPOD    bool       `json:"requiresPod"`
	Remarks        string     `json:"remarks"`
}

// ParseDate reads an optional YYYY-MM-DD date.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in YYYY-MM-DD form", field)
	}
	return t, nil
}

func toPackages(in []Package) []domain.Package {
	out := make([]domain.Package, len(in))
	for i, p := range in {
		out[i] = domain.Package(p)
	}
	return out
}

func (r TripRequest) ToInput() (services.TripInput, error) {
	date, err := ParseDate("tripDate", r.TripDate)
	if err != nil {
		return services.TripInput{}, err
	}
	n := 1
	if r.NumberOfTrips != nil {
		n = *r.NumberOfTrips
	}
	return services.TripInput{
		TripDate:       date,
		VehicleID:      strings.TrimSpace(r.VehicleID),
		DriverID:       strings.TrimSpace(r.DriverID),
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		TimeWindowFrom: r.TimeWindowFrom,
		TimeWindowTo:   r.TimeWindowTo,
		TruckType:      r.TruckType,
		NumberOfTrips:  n,
		Packages:       toPackages(r.Packages),
		JobIDs:         r.JobIDs,
		CustomerID:     r.CustomerID,
		PickupAddress:  r.PickupAddress,
		DropAddress:    r.DropAddress,
		HelperName:     r.HelperName,
		RequiresPOD:    r.RequiresPOD,
		Remarks:        r.Remarks,
	}, nil
}

// ExternalTripRequest is the converted form of an upstream job request.
type ExternalTripRequest struct {
	CustomerID    string    `json:"customerId"`
	PickupAddress string    `json:"pickupAddress"`
	DropAddress   string    `json:"dropAddress"`
	TripDate      string    `json:"tripDate"`
	TruckType     string    `json:"truckType"`
	Weight        float64   `json:"weight"`
	Volume        float64   `json:"volume"`
	Packages      []Package `json:"packages"`
	Remarks       string    `json:"remarks"`
}

func (r ExternalTripRequest) ToRequest() (services.ExternalRequest, error) {
	date, err := ParseDate("tripDate", r.TripDate)
	if err != nil {
		return services.ExternalRequest{}, err
	}
	return services.ExternalRequest{
		CustomerID:    r.CustomerID,
		PickupAddress: r.PickupAddress,
		DropAddress:   r.DropAddress,
		TripDate:      date,
		TruckType:     r.TruckType,
		Weight:        r.Weight,
		Volume:        r.Volume,
		Packages:      toPackages(r.Packages),
		Remarks:       r.Remarks,
	}, nil
}

type StatusRequest struct {
	Status string `json:"status"`
}

type PODURLRequest struct {
	URL string `json:"url"`
}

type StopResponse struct {
	ID            string `json:"id"`
	JobID         string `json:"jobId"`
	SequenceOrder int    `json:"sequenceOrder"`
	Status        string `json:"status"`
}

type TripResponse struct {
	ID             string         `json:"id"`
	TripNumber     string         `json:"tripNumber"`
	TripDate       string         `json:"tripDate"`
	Status         string         `json:"status"`
	VehicleID      string         `json:"vehicleId,omitempty"`
	DriverID       string         `json:"driverId,omitempty"`
	StartTime      *time.Time     `json:"startTime,omitempty"`
	EndTime        *time.Time     `json:"endTime,omitempty"`
	TimeWindowFrom *time.Time     `json:"timeWindowFrom,omitempty"`
	TimeWindowTo   *time.Time     `json:"timeWindowTo,omitempty"`
	TruckType      string         `json:"truckType"`
	NumberOfTrips  int            `json:"numberOfTrips"`
	Packages       []Package      `json:"packages"`
	CustomerID     string         `json:"customerId,omitempty"`
	PickupAddress  string         `json:"pickupAddress,omitempty"`
	DropAddress    string         `json:"dropAddress,omitempty"`
	HelperName     string         `json:"helperName,omitempty"`
	RequiresPOD    bool           `json:"requiresPod"`
	PODURL         string         `json:"podUrl,omitempty"`
	Remarks        string         `json:"remarks,omitempty"`
	Stops          []StopResponse `json:"stops,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func NewTripResponse(t *domain.Trip, stops []domain.TripStop) TripResponse {
	pkgs := make([]Package, len(t.Packages))
	for i, p := range t.Packages {
		pkgs[i] = Package(p)
	}
	res := TripResponse{
		ID:             t.ID,
		TripNumber:     t.TripNumber,
		TripDate:       t.TripDate.Format(DateLayout),
		Status:         string(t.Status),
		VehicleID:      t.VehicleID,
		DriverID:       t.DriverID,
		StartTime:      t.StartTime,
		EndTime:        t.EndTime,
		TimeWindowFrom: t.TimeWindowFrom,
		TimeWindowTo:   t.TimeWindowTo,
		TruckType:      t.TruckType,
		NumberOfTrips:  t.NumberOfTrips,
		Packages:       pkgs,
		CustomerID:     t.CustomerID,
		PickupAddress:  t.PickupAddress,
		DropAddress:    t.DropAddress,
		HelperName:     t.HelperName,
		RequiresPOD:    t.RequiresPOD,
		PODURL:         t.PODURL,
		Remarks:        t.Remarks,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	for _, st := range stops {
		res.Stops = append(res.Stops, NewStopResponse(st))
	}
	return res
}

func NewStopResponse(st domain.TripStop) StopResponse {
	return StopResponse{
		ID:            st.ID,
		JobID:         st.JobID,
		SequenceOrder: st.SequenceOrder,
		Status:        string(st.Status),
	}
}

type JobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type StopSyncResponse struct {
	Stop StopResponse `json:"stop"`
	Job  JobResponse  `json:"job"`
}
