// Command visualize serves a small map UI for inspecting OpenLR location
// references produced by the encoder service. Click two points to see the
// routed geometry with its Location Reference Points (coordinate, bearing,
// FRC/FOW, distance-to-next, offsets); switch to point mode and click once
// to see a point-along-line reference with its side-of-road classification.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

type latlng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type lineRequest struct {
	Start latlng `json:"start"`
	End   latlng `json:"end"`
}

type pointRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// lineResult is what the UI renders for a line reference: the routed
// geometry plus the encoder's LRP list, passed through verbatim.
type lineResult struct {
	DistanceMeters float64         `json:"distance_meters"`
	LatencyMs      int64           `json:"latency_ms"`
	Geometry       [][]float64     `json:"geometry"` // [[lat, lng], ...]
	Reference      json.RawMessage `json:"reference,omitempty"`
	Error          string          `json:"error,omitempty"`
}

type pointResult struct {
	LatencyMs int64           `json:"latency_ms"`
	Reference json.RawMessage `json:"reference,omitempty"`
	Error     string          `json:"error,omitempty"`
}

var (
	encoderURL string
	httpClient = &http.Client{Timeout: 15 * time.Second}
)

func main() {
	port := flag.Int("port", 3000, "HTTP port to serve on")
	flag.StringVar(&encoderURL, "encoder-url", "http://localhost:8080", "encoder service base URL")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/", handleIndex)
	mux.HandleFunc("/visualize/line", handleLine)
	mux.HandleFunc("/visualize/point", handlePoint)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Visualizer listening on http://localhost%s (encoder: %s)", addr, encoderURL)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, indexHTML)
}

// handleLine proxies a two-point query to the encoder service's route
// endpoint, which carries the location reference alongside the geometry,
// and flattens both into the shape the page renders.
func handleLine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req lineRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1024)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result := queryLine(req)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func handlePoint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req pointRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1024)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result := queryPoint(req)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func queryLine(req lineRequest) lineResult {
	body, _ := json.Marshal(map[string]latlng{
		"start": req.Start,
		"end":   req.End,
	})

	start := time.Now()
	resp, err := httpClient.Post(encoderURL+"/api/v1/route", "application/json", bytes.NewReader(body))
	if err != nil {
		return lineResult{Error: err.Error()}
	}
	defer resp.Body.Close()
	latency := time.Since(start).Milliseconds()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return lineResult{LatencyMs: latency, Error: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return lineResult{LatencyMs: latency, Error: fmt.Sprintf("encoder returned %d: %s", resp.StatusCode, truncate(string(raw), 200))}
	}

	var routeResp struct {
		TotalDistanceMeters float64 `json:"total_distance_meters"`
		Segments            []struct {
			Geometry []latlng `json:"geometry"`
		} `json:"segments"`
		LocationReference json.RawMessage `json:"location_reference"`
	}
	if err := json.Unmarshal(raw, &routeResp); err != nil {
		return lineResult{LatencyMs: latency, Error: err.Error()}
	}

	var geometry [][]float64
	for _, seg := range routeResp.Segments {
		for _, ll := range seg.Geometry {
			geometry = append(geometry, []float64{ll.Lat, ll.Lng})
		}
	}

	result := lineResult{
		DistanceMeters: routeResp.TotalDistanceMeters,
		LatencyMs:      latency,
		Geometry:       geometry,
		Reference:      routeResp.LocationReference,
	}
	if len(routeResp.LocationReference) == 0 {
		result.Error = "route found but the pair could not be encoded"
	}
	return result
}

func queryPoint(req pointRequest) pointResult {
	body, _ := json.Marshal(req)

	start := time.Now()
	resp, err := httpClient.Post(encoderURL+"/api/v1/encode/point", "application/json", bytes.NewReader(body))
	if err != nil {
		return pointResult{Error: err.Error()}
	}
	defer resp.Body.Close()
	latency := time.Since(start).Milliseconds()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pointResult{LatencyMs: latency, Error: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return pointResult{LatencyMs: latency, Error: fmt.Sprintf("encoder returned %d: %s", resp.StatusCode, truncate(string(raw), 200))}
	}
	return pointResult{LatencyMs: latency, Reference: raw}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>OpenLR reference inspector</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  html, body, #map { height: 100%; margin: 0; }
  #panel {
    position: absolute; top: 10px; right: 10px; z-index: 1000;
    background: #fff; padding: 10px 14px; border-radius: 6px;
    box-shadow: 0 1px 5px rgba(0,0,0,.4);
    font: 13px/1.5 system-ui, sans-serif; max-width: 340px;
  }
  #panel table { border-collapse: collapse; width: 100%; }
  #panel td, #panel th { padding: 1px 6px 1px 0; text-align: left; }
  button { margin-right: 6px; }
  .err { color: #b00; }
</style>
</head>
<body>
<div id="map"></div>
<div id="panel">
  <div>
    <button id="modeLine">Line</button>
    <button id="modePoint">Point</button>
    <button id="clear">Clear</button>
  </div>
  <div id="hint">Line mode: click start, then end.</div>
  <div id="out"></div>
</div>
<script>
const FOW = ['Undefined','Motorway','MultipleCarriageway','SingleCarriageway',
             'Roundabout','TrafficSquare','SlipRoad','Other'];
const SIDE = ['OnOrAbove','Left','Right'];
const ORIENT = ['None','FirstToSecond','SecondToFirst','Both'];

const map = L.map('map').setView([49.606, 6.128], 15);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png',
            {attribution: '&copy; OpenStreetMap contributors'}).addTo(map);

let mode = 'line';
let clicks = [];
let layers = L.layerGroup().addTo(map);
const out = document.getElementById('out');
const hint = document.getElementById('hint');

document.getElementById('modeLine').onclick = () => { mode = 'line'; reset(); };
document.getElementById('modePoint').onclick = () => { mode = 'point'; reset(); };
document.getElementById('clear').onclick = reset;

function reset() {
  clicks = [];
  layers.clearLayers();
  out.innerHTML = '';
  hint.textContent = mode === 'line'
    ? 'Line mode: click start, then end.'
    : 'Point mode: click near a road.';
}

map.on('click', e => {
  if (mode === 'point') { queryPoint(e.latlng); return; }
  clicks.push(e.latlng);
  L.circleMarker(e.latlng, {radius: 5}).addTo(layers);
  if (clicks.length === 2) {
    queryLine(clicks[0], clicks[1]);
    clicks = [];
  }
});

async function queryLine(a, b) {
  out.innerHTML = 'encoding&hellip;';
  const resp = await fetch('/visualize/line', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({start: {lat: a.lat, lng: a.lng}, end: {lat: b.lat, lng: b.lng}})
  });
  const r = await resp.json();
  if (r.geometry && r.geometry.length) {
    L.polyline(r.geometry, {weight: 4}).addTo(layers);
  }
  if (r.error) { out.innerHTML = '<div class="err">' + r.error + '</div>'; return; }
  renderLine(r);
}

function renderLine(r) {
  const ref = r.reference;
  let html = '<div>' + r.distance_meters.toFixed(0) + ' m, ' + r.latency_ms + ' ms</div>';
  html += '<table><tr><th>#</th><th>coord</th><th>brg</th><th>FRC</th><th>FOW</th><th>DNP</th></tr>';
  ref.points.forEach((p, i) => {
    L.marker([p.lat, p.lon]).addTo(layers)
      .bindPopup('LRP ' + (i+1) + '<br>bearing ' + p.bearing + '&deg;<br>FRC' + p.frc +
                 ' / ' + FOW[p.fow] + '<br>lowest FRC to next: ' + p.lowest_frc_to_next);
    html += '<tr><td>' + (i+1) + '</td><td>' + p.lat.toFixed(5) + ', ' + p.lon.toFixed(5) +
            '</td><td>' + p.bearing + '&deg;</td><td>' + p.frc + '</td><td>' + FOW[p.fow] +
            '</td><td>' + (p.distance_to_next_meters ?? '&mdash;') + '</td></tr>';
  });
  html += '</table>';
  html += '<div>offsets: +' + ref.positive_offset_pct.toFixed(1) + '% / -' +
          ref.negative_offset_pct.toFixed(1) + '%</div>';
  out.innerHTML = html;
}

async function queryPoint(ll) {
  layers.clearLayers();
  out.innerHTML = 'encoding&hellip;';
  L.circleMarker(ll, {radius: 5}).addTo(layers);
  const resp = await fetch('/visualize/point', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({lat: ll.lat, lon: ll.lng})
  });
  const r = await resp.json();
  if (r.error) { out.innerHTML = '<div class="err">' + r.error + '</div>'; return; }
  const ref = r.reference;
  [ref.first, ref.last].forEach((p, i) => {
    L.marker([p.lat, p.lon]).addTo(layers)
      .bindPopup((i ? 'Last' : 'First') + ' LRP<br>bearing ' + p.bearing + '&deg;<br>FRC' +
                 p.frc + ' / ' + FOW[p.fow]);
  });
  out.innerHTML = '<div>' + r.latency_ms + ' ms</div>' +
    '<div>offset: +' + ref.positive_offset_pct.toFixed(1) + '%</div>' +
    '<div>side of road: ' + SIDE[ref.side_of_road] + '</div>' +
    '<div>orientation: ' + ORIENT[ref.orientation] + '</div>';
}

reset();
</script>
</body>
</html>
`
