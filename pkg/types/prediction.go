package types

import "time"

// Prediction is one inference result pushed by the vision service.
type Prediction struct {
	SetNum        int    `json:"set_num"`        // Target count
	NumObj        int    `json:"num_obj"`        // Detected count
	NumDifference int    `json:"num_difference"` // Gap, sign is producer-defined
	Colour        string `json:"colour"`         // Display colour for the gap
	Img           string `json:"img"`            // Base64 JPEG, no data: prefix
}

// HistoryRecord is a Prediction as stored in the history log.
type HistoryRecord struct {
	Prediction
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"received_at"`
}
