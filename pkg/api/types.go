package api

// StatusSuccess is the status value of every successful data response.
const StatusSuccess = "success"

// DataResponse is the body of GET /api/data.
type DataResponse struct {
	Status   string `json:"status"`
	Data     string `json:"data"`
	ClientID string `json:"client_id"`
}

// UserResponse is the body of GET /api/data/get_user. Clients use it to
// confirm that their key is accepted and to learn the identifier it maps to.
type UserResponse struct {
	Status      string `json:"status"`
	RetrievedID string `json:"retrieved_id"`
}

// UpstreamStatusResponse is returned when the search backend answered with
// a body that could not be parsed as JSON. Only the status code is relayed.
type UpstreamStatusResponse struct {
	StatusCode int `json:"status_code"`
}
