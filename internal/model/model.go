// Package model defines shared data structures.
package model

import "time"

// Category is one value of the closed activity taxonomy. Anything the
// classifier cannot place lands in CategoryOther, never an error.
type Category string

// The activity taxonomy.
const (
	CategoryPublicSkate    Category = "Public Skate"
	CategoryStickAndPuck   Category = "Stick & Puck"
	CategoryHockeyLeague   Category = "Hockey League"
	CategoryLearnToSkate   Category = "Learn to Skate"
	CategoryFigureSkating  Category = "Figure Skating"
	CategoryHockeyPractice Category = "Hockey Practice"
	CategoryDropInHockey   Category = "Drop-In Hockey"
	CategorySpecialEvent   Category = "Special Event"
	CategoryOther          Category = "Other"
)

// AllCategories lists every taxonomy value, in display order.
var AllCategories = []Category{
	CategoryPublicSkate,
	CategoryStickAndPuck,
	CategoryHockeyLeague,
	CategoryLearnToSkate,
	CategoryFigureSkating,
	CategoryHockeyPractice,
	CategoryDropInHockey,
	CategorySpecialEvent,
	CategoryOther,
}

// ValidCategory reports whether s is a taxonomy value.
func ValidCategory(s string) bool {
	for _, c := range AllCategories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// CanonicalEvent is one scheduled session in absolute (UTC) time.
// EndTime > StartTime is enforced at parse time, so a stored event
// never violates it.
type CanonicalEvent struct {
	ID          string    `json:"id"`
	RinkID      string    `json:"rinkId"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Category    Category  `json:"category"`
	Description string    `json:"description,omitempty"`
	IsFeatured  bool      `json:"isFeatured,omitempty"`
	EventURL    string    `json:"eventUrl,omitempty"`
}

// Rink is one physical sheet of ice. A rink belongs to exactly one facility.
type Rink struct {
	ID          string
	FacilityID  string
	DisplayName string
	SourceURL   string
}

// Facility is a venue owning one or more rinks.
type Facility struct {
	ID          string
	DisplayName string
}

// Source fetch statuses recorded in metadata.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SourceMetadata records the outcome of the most recent fetch cycle for
// one source.
type SourceMetadata struct {
	SourceID         string     `json:"sourceId"`
	LastAttempt      time.Time  `json:"lastAttempt"`
	Status           string     `json:"status"`
	EventCount       int        `json:"eventCount"`
	ErrorMessage     string     `json:"errorMessage,omitempty"`
	LastSuccessfulAt *time.Time `json:"lastSuccessfulAt,omitempty"`
}
