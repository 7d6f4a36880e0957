package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"

	"openlrencoder/pkg/encerr"
	"openlrencoder/pkg/locationbuilder"
	"openlrencoder/pkg/lrp"
	"openlrencoder/pkg/network"
	"openlrencoder/pkg/routing"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router  routing.Router
	builder *locationbuilder.Builder
	stats   StatsResponse
}

// NewHandlers creates handlers with the given router and encoder builder.
// builder may be nil if /api/v1/encode/* should be unavailable (e.g. a
// deployment that only serves plain routing).
func NewHandlers(router routing.Router, builder *locationbuilder.Builder, stats StatsResponse) *Handlers {
	return &Handlers{
		router:  router,
		builder: builder,
		stats:   stats,
	}
}


// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	// Parse request.
	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	// Validate coordinates.
	if err := validateCoord(req.Start); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "start")
		return
	}
	if err := validateCoord(req.End); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "end")
		return
	}

	// Route.
	result, err := h.router.Route(r.Context(), routing.LatLng{Lat: req.Start.Lat, Lng: req.Start.Lng}, routing.LatLng{Lat: req.End.Lat, Lng: req.End.Lng})
	if err != nil {
		if errors.Is(err, routing.ErrPointTooFar) {
			writeError(w, http.StatusUnprocessableEntity, "point_too_far_from_road", "")
			return
		}
		if errors.Is(err, routing.ErrNoRoute) {
			writeError(w, http.StatusNotFound, "no_route_found", "")
			return
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	// Build response.
	resp := RouteResponse{
		TotalDistanceMeters: result.TotalDistanceMeters,
		LocationReference:   h.encodeRoutedPair(req.Start, req.End),
	}
	for _, seg := range result.Segments {
		geom := make([]LatLngJSON, len(seg.Geometry))
		for i, ll := range seg.Geometry {
			geom[i] = LatLngJSON{Lat: ll.Lat, Lng: ll.Lng}
		}
		resp.Segments = append(resp.Segments, SegmentJSON{
			DistanceMeters: seg.DistanceMeters,
			Geometry:       geom,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// routeEncodeToleranceM bounds how far a routed endpoint may sit from the
// edge the encoder snaps it to. It is tighter than the routing engine's
// own snapper, which accepts points up to 500 m from a road
// (maxSnapDistMeters), so a routed pair with an endpoint farther than
// this from its edge gets no location reference.
const routeEncodeToleranceM = 150

// encodeRoutedPair encodes the same start/end pair a route query just
// resolved into an OpenLR location reference. Returns nil when no encoder
// is wired or the pair cannot be encoded; a route response is still
// useful without it, so encode failures are not surfaced to the caller.
func (h *Handlers) encodeRoutedPair(start, end LatLngJSON) *EncodeLineResponse {
	if h.builder == nil {
		return nil
	}
	ref, err := h.builder.BuildFromCoordinates(
		network.Coordinate{Lat: start.Lat, Lon: start.Lng},
		network.Coordinate{Lat: end.Lat, Lon: end.Lng},
		routeEncodeToleranceM,
	)
	if err != nil {
		return nil
	}
	path, err := lrp.EncodeLine(ref, h.builder.Adapter, h.builder.Profile)
	if err != nil {
		return nil
	}
	return &EncodeLineResponse{
		Points:            toLRPJSONs(path.Points),
		PositiveOffsetPct: path.PositiveOffsetPct,
		NegativeOffsetPct: path.NegativeOffsetPct,
	}
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.stats)
}

func validateCoord(ll LatLngJSON) error {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if ll.Lat < -90 || ll.Lat > 90 || ll.Lng < -180 || ll.Lng > 180 {
		return errors.New("coordinates out of range")
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}

// HandleEncodeLine handles POST /api/v1/encode/line.
func (h *Handlers) HandleEncodeLine(w http.ResponseWriter, r *http.Request) {
	if h.builder == nil {
		writeError(w, http.StatusNotImplemented, "encoding_unavailable", "")
		return
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	var req EncodeLineRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}
	if err := validateCoord(req.Start); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "start")
		return
	}
	if err := validateCoord(req.End); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "end")
		return
	}
	if req.ToleranceM < 0 || math.IsNaN(req.ToleranceM) || math.IsInf(req.ToleranceM, 0) {
		writeError(w, http.StatusBadRequest, "invalid_tolerance", "tolerance_m")
		return
	}

	start := network.Coordinate{Lat: req.Start.Lat, Lon: req.Start.Lng}
	end := network.Coordinate{Lat: req.End.Lat, Lon: req.End.Lng}

	ref, err := h.builder.BuildFromCoordinates(start, end, req.ToleranceM)
	if err != nil {
		writeEncodeError(w, err)
		return
	}
	path, err := lrp.EncodeLine(ref, h.builder.Adapter, h.builder.Profile)
	if err != nil {
		writeEncodeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EncodeLineResponse{
		Points:            toLRPJSONs(path.Points),
		PositiveOffsetPct: path.PositiveOffsetPct,
		NegativeOffsetPct: path.NegativeOffsetPct,
	})
}

// HandleEncodePoint handles POST /api/v1/encode/point.
func (h *Handlers) HandleEncodePoint(w http.ResponseWriter, r *http.Request) {
	if h.builder == nil {
		writeError(w, http.StatusNotImplemented, "encoding_unavailable", "")
		return
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	var req EncodePointRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}
	if err := validateCoord(LatLngJSON{Lat: req.Lat, Lng: req.Lon}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "")
		return
	}

	ref, err := h.builder.BuildPointAlongLine(network.Coordinate{Lat: req.Lat, Lon: req.Lon})
	if err != nil {
		writeEncodeError(w, err)
		return
	}
	loc, err := lrp.EncodePointAlongLine(ref, h.builder.Adapter, h.builder.Profile)
	if err != nil {
		writeEncodeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EncodePointResponse{
		First:             toLRPJSON(loc.First),
		Last:              toLRPJSON(loc.Last),
		PositiveOffsetPct: loc.PositiveOffsetPct,
		Orientation:       int(loc.Orientation),
		SideOfRoad:        int(loc.SideOfRoad),
	})
}

func toLRPJSON(p lrp.LocationReferencePoint) LRPJSON {
	return LRPJSON{
		Lat:                  p.Lat,
		Lon:                  p.Lon,
		Bearing:              p.Bearing,
		FRC:                  int(p.FRC),
		FOW:                  int(p.FOW),
		LowestFRCToNext:      int(p.LowestFRCToNext),
		DistanceToNextMeters: p.DistanceToNextMeters,
	}
}

func toLRPJSONs(points []lrp.LocationReferencePoint) []LRPJSON {
	out := make([]LRPJSON, len(points))
	for i, p := range points {
		out[i] = toLRPJSON(p)
	}
	return out
}

// writeEncodeError maps the encoding core's flat error taxonomy
// (pkg/encerr) onto HTTP status codes.
func writeEncodeError(w http.ResponseWriter, err error) {
	var ee *encerr.Error
	if !errors.As(err, &ee) {
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	switch ee.Kind {
	case encerr.NoNetworkNearby, encerr.TooFarFromNetwork:
		writeError(w, http.StatusUnprocessableEntity, "point_too_far_from_road", "")
	case encerr.RouteNotFound, encerr.DisconnectedRoute:
		writeError(w, http.StatusNotFound, "no_route_found", "")
	case encerr.InvalidOffsets, encerr.DistanceTooLarge, encerr.ClassificationFailed, encerr.RoutingMismatch, encerr.ProjectionFailed:
		writeError(w, http.StatusUnprocessableEntity, "cannot_encode_location", "")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
