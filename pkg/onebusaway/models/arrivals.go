package models

// ArrivalAndDeparture is one upcoming vehicle event at a stop as reported
// by the arrivals-and-departures-for-stop endpoint. Timestamps are zero
// when the API has no value for them; predictions in particular are absent
// whenever the vehicle is not being tracked.
type ArrivalAndDeparture struct {
	RouteID                string      `json:"routeId"`
	RouteShortName         string      `json:"routeShortName"`
	RouteLongName          string      `json:"routeLongName"`
	TripID                 string      `json:"tripId"`
	TripHeadsign           string      `json:"tripHeadsign"`
	StopID                 string      `json:"stopId"`
	VehicleID              string      `json:"vehicleId"`
	Predicted              bool        `json:"predicted"`
	PredictedArrivalTime   EpochMillis `json:"predictedArrivalTime"`
	PredictedDepartureTime EpochMillis `json:"predictedDepartureTime"`
	ScheduledArrivalTime   EpochMillis `json:"scheduledArrivalTime"`
	ScheduledDepartureTime EpochMillis `json:"scheduledDepartureTime"`
	NumberOfStopsAway      int         `json:"numberOfStopsAway"`
	SituationIDs           []string    `json:"situationIds"`
}

// ArrivalsEntry is the payload entry for one stop.
type ArrivalsEntry struct {
	StopID                string                `json:"stopId"`
	ArrivalsAndDepartures []ArrivalAndDeparture `json:"arrivalsAndDepartures"`
	SituationIDs          []string              `json:"situationIds"`
}

// References carries the objects the entry refers to by ID. Only the
// slices the tracker consumes are decoded.
type References struct {
	Situations []Situation `json:"situations"`
}

// ArrivalsData is the data envelope of an arrivals response.
type ArrivalsData struct {
	Entry      ArrivalsEntry `json:"entry"`
	References References    `json:"references"`
}

// ArrivalsResponse is the full arrivals-and-departures-for-stop response.
type ArrivalsResponse struct {
	Code        int          `json:"code"`
	CurrentTime EpochMillis  `json:"currentTime"`
	Text        string       `json:"text"`
	Version     int          `json:"version"`
	Data        ArrivalsData `json:"data"`
}

// StopSnapshot is one poll's worth of data for a stop: the raw upcoming
// arrivals and departures plus the situations referenced by the payload.
type StopSnapshot struct {
	StopID      string
	CurrentTime EpochMillis
	Arrivals    []ArrivalAndDeparture
	Situations  []Situation
}
