package http

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// geoInput accepts a location either as coordinates or as a map link.
// Exactly one form must be present; a malformed map link is a validation
// error, never silently defaulted.
type geoInput struct {
	Lat     *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lng     *float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
	MapLink string   `json:"mapLink" validate:"omitempty"`
}

func (g geoInput) toGeoPoint() (kernel.GeoPoint, error) {
	switch {
	case g.MapLink != "":
		if g.Lat != nil || g.Lng != nil {
			return kernel.GeoPoint{}, errs.NewValueIsInvalidError("location: coordinates and mapLink are exclusive")
		}
		return kernel.ParseMapLink(g.MapLink)
	case g.Lat != nil && g.Lng != nil:
		return kernel.NewGeoPoint(*g.Lat, *g.Lng)
	default:
		return kernel.GeoPoint{}, errs.NewValueIsRequiredError("location")
	}
}

type createTaskRequest struct {
	Pickup   geoInput `json:"pickup" validate:"required"`
	Dropoff  geoInput `json:"dropoff" validate:"required"`
	FeeCents int64    `json:"feeCents" validate:"required,gt=0"`
	Priority int      `json:"priority" validate:"min=0"`
}

type createTaskResponse struct {
	TaskID string `json:"taskId"`
}

type openBroadcastRequest struct {
	RadiusKm      float64 `json:"radiusKm" validate:"omitempty,gt=0"`
	WindowSeconds int     `json:"windowSeconds" validate:"omitempty,gt=0"`
}

type acceptTaskRequest struct {
	CourierID string `json:"courierId" validate:"required,uuid"`
}

type acceptTaskResponse struct {
	TaskID    string `json:"taskId"`
	CourierID string `json:"courierId"`
	Status    string `json:"status"`
}

type broadcastView struct {
	TaskID   string    `json:"taskId"`
	Pickup   latLng    `json:"pickup"`
	Dropoff  latLng    `json:"dropoff"`
	FeeCents int64     `json:"feeCents"`
	Priority int       `json:"priority"`
	EndsAt   time.Time `json:"endsAt"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type sweepResponse struct {
	Scanned  int `json:"scanned"`
	Expired  int `json:"expired"`
	Requeued int `json:"requeued"`
	Skipped  int `json:"skipped"`
}

type statsResponse struct {
	Broadcasting int `json:"broadcasting"`
	Assigned     int `json:"assigned"`
	Expired      int `json:"expired"`
	Idle         int `json:"idle"`
	Completed    int `json:"completed"`
}

type createCourierRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type createCourierResponse struct {
	CourierID string `json:"courierId"`
}

type reportLocationRequest struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

type reportProgressRequest struct {
	CourierID string `json:"courierId" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,oneof=picked_up in_progress delivered"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
