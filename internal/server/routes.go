package server

import (
	"net/http"
)

func SetupRoutes(runHandler *RunService) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/runs/latest", runHandler.GetLatestRun)
	mux.HandleFunc("/complaints/count", runHandler.GetComplaintCount)

	return mux
}
