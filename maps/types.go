package maps

import "encoding/json"

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location latLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type placesResponse struct {
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Results      []json.RawMessage `json:"results"`
}

type placeResult struct {
	Name       string `json:"name"`
	PlaceID    string `json:"place_id"`
	Vicinity   string `json:"vicinity"`
	PriceLevel *int   `json:"price_level,omitempty"`
}
