package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/FACorreiaa/go-directory-search/internal/types"
)

// ErrorResponse writes a standard JSON error response including request ID.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	reqID := middleware.GetReqID(r.Context())
	resp := map[string]interface{}{
		"success":    false,
		"error":      message,
		"request_id": reqID,
	}
	WriteJSONResponse(w, r, status, resp)
}

// WriteJSONResponse encodes the data to JSON and writes the response header and body.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	js, err := json.Marshal(data)
	if err != nil {
		reqID := middleware.GetReqID(r.Context())
		slog.ErrorContext(r.Context(), "Failed to marshal JSON response",
			slog.Any("error", err),
			slog.String("request_id", reqID),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(js); err != nil {
		reqID := middleware.GetReqID(r.Context())
		slog.ErrorContext(r.Context(), "Failed to write response body",
			slog.Any("error", err),
			slog.String("request_id", reqID),
		)
	}
}

// ParamError reports a query parameter that could not be parsed.
type ParamError struct {
	Name  string
	Value string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %q", e.Value, e.Name)
}

// FloatParam parses an optional finite float query parameter.
func FloatParam(values url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &ParamError{Name: name, Value: raw}
	}
	return &v, nil
}

// IntParam parses an optional int query parameter, returning def when absent.
func IntParam(values url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, &ParamError{Name: name, Value: raw}
	}
	return v, nil
}

// BoolParam parses an optional bool query parameter; absent means false.
func BoolParam(values url.Values, name string) (bool, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ParamError{Name: name, Value: raw}
	}
	return v, nil
}

// GeoPointParams reads "<prefix>city", "<prefix>lat" and "<prefix>lon".
// It returns nil when none of them is present. Latitude and longitude must
// come together.
func GeoPointParams(values url.Values, prefix string) (*types.GeoPoint, error) {
	cityName := strings.TrimSpace(values.Get(prefix + "city"))
	lat, err := FloatParam(values, prefix+"lat")
	if err != nil {
		return nil, err
	}
	lon, err := FloatParam(values, prefix+"lon")
	if err != nil {
		return nil, err
	}
	if (lat == nil) != (lon == nil) {
		return nil, fmt.Errorf("parameters %q and %q must be given together", prefix+"lat", prefix+"lon")
	}
	if lat != nil && (*lat < -90 || *lat > 90 || *lon < -180 || *lon > 180) {
		return nil, fmt.Errorf("coordinates %f,%f are out of range", *lat, *lon)
	}

	point := types.GeoPoint{City: cityName}
	if lat != nil {
		point.Coordinates = &types.Coordinates{Latitude: *lat, Longitude: *lon}
	}
	if point.IsZero() {
		return nil, nil
	}
	return &point, nil
}
