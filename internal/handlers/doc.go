/*
Package handlers implements the HTTP API over the thumbnail grid.

Routes are registered on a gorilla/mux router by RegisterRoutes:

	GET  /healthz                 service health and cache occupancy
	GET  /livez                   liveness probe
	GET  /version                 build information
	GET  /api/sources             page of indexed source images
	GET  /api/grid                grid window and per-cell request state
	POST /api/grid/scroll         move the grid window
	GET  /api/grid/cells/{index}  JPEG of what a cell currently shows
	POST /api/reindex             start a source index scan
	GET  /metrics                 Prometheus metrics

A cell shows a placeholder while its thumbnail loads, so polling
/api/grid/cells/{index} shows the placeholder being replaced once the
background load is applied.
*/
package handlers
