// Package handler implements the HTTP surface of tincgraph.
//
// The web root is served as static files; the front-end fetches
// data/nodes.json from it directly. Alongside it, a small JSON API exposes
// the same graph, YAML and JSON downloads, the last poll status, the poll
// journal and a manual poll trigger. NewRouter wires the routes; Chain,
// Recover, CORS and Logger are the middleware applied around it.
package handler
