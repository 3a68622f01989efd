package models

// Stop is the static stop record from the stop endpoint.
type Stop struct {
	ID           string   `json:"id"`
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Direction    string   `json:"direction"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	LocationType int      `json:"locationType"`
	RouteIDs     []string `json:"routeIds"`
}

// StopData is the data envelope of a stop response.
type StopData struct {
	Entry Stop `json:"entry"`
}

// StopResponse is the full stop endpoint response.
type StopResponse struct {
	Code        int         `json:"code"`
	CurrentTime EpochMillis `json:"currentTime"`
	Text        string      `json:"text"`
	Data        StopData    `json:"data"`
}
