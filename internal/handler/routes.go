package handler

import "net/http"

// NewRouter registers the API, the event stream and the static web root.
// events may be nil.
func NewRouter(graphs *GraphHandler, events http.Handler, webRoot string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/graph", graphs.GetGraph)
	mux.HandleFunc("GET /api/export/json", graphs.ExportJSON)
	mux.HandleFunc("GET /api/export/yaml", graphs.ExportYAML)
	mux.HandleFunc("GET /api/status", graphs.GetStatus)
	mux.HandleFunc("GET /api/polls", graphs.ListPolls)
	mux.HandleFunc("GET /api/adapters", graphs.ListAdapters)
	mux.HandleFunc("POST /api/poll", graphs.TriggerPoll)

	if events != nil {
		mux.Handle("GET /events", events)
	}

	// index.html, the visualization scripts and data/nodes.json
	mux.Handle("/", http.FileServer(http.Dir(webRoot)))

	return mux
}
