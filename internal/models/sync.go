package models

// SyncStats counts records upserted by an import.
type SyncStats struct {
	Students int `json:"students"`
	Courses  int `json:"courses"`
	Items    int `json:"items"`
}
