package models

type Capital struct {
	ID      int    `json:"id"`
	Capital string `json:"capital"`
	State   string `json:"state"`
}
