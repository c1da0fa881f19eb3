package http

import (
	"html/template"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wydy/robot36/station"
	"github.com/wydy/robot36/store"
)

type httpHandler struct {
	st        *station.Station
	imageDir  string
	recent    int
	indexTmpl *template.Template
	upgrader  websocket.Upgrader
	logger    *log.Logger
}

const indexTmplStr = `<!DOCTYPE html>
<html>
<head>
<title>robot36</title>
<meta http-equiv="refresh" content="5">
<style>
table, th, td {
  border: 1px solid black;
  text-align: right;
}
img.scope { image-rendering: pixelated; }
</style>
</head>
<body>
<h1>robot36</h1>
<hr/>

<h2>Decoder status &#x1F4FB;</h2>
<ul>
<li>Mode: {{if .Status.Mode}}{{.Status.Mode}}{{else}}waiting{{end}}{{if .Status.Locked}} (locked){{end}}</li>
{{if .Status.Active}}<li>Receiving: line {{.Status.Line}} of {{.Status.Height}}</li>{{end}}
</ul>
<img class="scope" src="/scope.png" />
<img src="/image.png" />

{{$length := len .Recent}} {{if gt $length 0}}
<h2>Received pictures &#x1F5BC;&#xFE0F;</h2>
<table>
<tr><th>Date</th><th>Mode</th><th>Size</th><th>Picture</th></tr>
{{range $_, $r := .Recent}}
<tr>
<td>{{$r.Date.Format "2006-01-02 15:04:05"}}</td>
<td>{{$r.Mode}}</td>
<td>{{$r.Width}}x{{$r.Height}}</td>
<td><a href="/images/{{$r.Name}}"><img src="/images/{{$r.Name}}" height="64" /></a></td>
</tr>
{{end}}
</table>
{{end}}

<h2>Controls</h2>
<ul>
<li><a href="/?mode=">Automatic mode</a></li>
</ul>
</body>
</html>
`

type indexInfo struct {
	Status station.Status
	Recent []store.ImageRecord
}

// Handler serves the status page, PNG snapshots, saved pictures, the
// live event websocket at /lines and metrics from gatherer.
func Handler(st *station.Station, imageDir string, recent int, gatherer prometheus.Gatherer, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	h := &httpHandler{
		st:        st,
		imageDir:  imageDir,
		recent:    recent,
		indexTmpl: template.Must(template.New("index").Parse(indexTmplStr)),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/scope.png", h.handleScope)
	mux.HandleFunc("/image.png", h.handleImage)
	mux.HandleFunc("/lines", h.handleLines)
	mux.HandleFunc("/modes", h.handleMode)
	if imageDir != "" {
		mux.Handle("/images/", http.StripPrefix("/images/", http.FileServer(http.Dir(imageDir))))
	}
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/", h.handleIndex)
	return mux
}

func ServeHttp(st *station.Station, serv, imageDir string, recent int, logger *log.Logger) error {
	return http.ListenAndServe(serv, Handler(st, imageDir, recent, prometheus.DefaultGatherer, logger))
}

func (h *httpHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	if q.Has("mode") {
		if !h.st.SetMode(q.Get("mode")) {
			http.Error(w, "unknown mode", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	info := &indexInfo{Status: h.st.Status(), Recent: h.st.Recent(h.recent)}
	if err := h.indexTmpl.Execute(w, info); err != nil {
		io.WriteString(w, err.Error())
	}
}

// handleMode locks the decoder with POST /modes?name=...; an empty name
// resumes detection.
func (h *httpHandler) handleMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if !h.st.SetMode(name) {
		http.Error(w, "unknown mode", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writePNG(w http.ResponseWriter, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	png.Encode(w, img)
}

func (h *httpHandler) handleScope(w http.ResponseWriter, r *http.Request) {
	writePNG(w, h.st.ScopeImage())
}

func (h *httpHandler) handleImage(w http.ResponseWriter, r *http.Request) {
	img := h.st.ImageSnapshot()
	if img == nil {
		http.NotFound(w, r)
		return
	}
	writePNG(w, img)
}
