package rest

import "net/http"

// StreamEvents upgrades to a websocket carrying the session's store events.
func (api *API) StreamEvents(w http.ResponseWriter, r *http.Request) {
	api.Deps.WebSocket.HandleConnections(w, r, sessionFrom(r).ID)
}
