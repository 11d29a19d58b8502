package gateway

import (
	"net/http"
)

// HTTPHandler is implemented by anything that mounts routes on the
// dashboard server's mux. prefix always ends with "/".
type HTTPHandler interface {
	RegisterHTTPHandlers(prefix string, mux *http.ServeMux)
}
