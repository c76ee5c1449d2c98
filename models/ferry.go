package models

import (
	"time"
)

type Ferry struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Lat               float64     `json:"lat"`
	Lng               float64     `json:"lng"`
	Heading           float64     `json:"heading"`
	SpeedKnots        float64     `json:"speed_knots"`
	Capacity          int         `json:"capacity"`
	CurrentPassengers int         `json:"current_passengers"`
	Route             string      `json:"route"`
	Status            FerryStatus `json:"status"` // active, docked, maintenance
	NextStop          string      `json:"next_stop"`
	ETA               string      `json:"eta"`
}

type FerryStatus string

const (
	FerryActive      FerryStatus = "active"
	FerryDocked      FerryStatus = "docked"
	FerryMaintenance FerryStatus = "maintenance"
)

type Port struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type FerryRoute struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Coordinates [][2]float64 `json:"coordinates"`
	Stops       []Port       `json:"stops"`
	Duration    string       `json:"duration"`
	Color       string       `json:"color"`
}

// FerryPosition is one telemetry sample, either simulated or received from the
// external feed.
type FerryPosition struct {
	FerryID    string    `json:"ferry_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Heading    float64   `json:"heading"`
	SpeedKnots float64   `json:"speed_knots"`
	At         time.Time `json:"at"`
}
