package store

import (
	"encoding/json"
	"strings"
	"time"
)

// RegistryRecord is one trademark registry entry persisted from a bulk feed.
type RegistryRecord struct {
	ID             uint   `gorm:"primaryKey"`
	Registration   string `gorm:"size:64;index"`
	Text           string `gorm:"size:256;index"`
	TextNormalized string `gorm:"size:256;index"`
	TextNoSpaces   string `gorm:"size:256;index"`
	ClassesJSON    string `gorm:"type:text"`
	Status         string `gorm:"size:32"`
	Holder         string `gorm:"size:256"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SetClasses persists the Nice class list as JSON.
func (r *RegistryRecord) SetClasses(classes []int) {
	if classes == nil {
		r.ClassesJSON = "[]"
		return
	}
	payload, _ := json.Marshal(classes)
	r.ClassesJSON = string(payload)
}

// Classes returns the unmarshalled Nice class numbers.
func (r *RegistryRecord) Classes() []int {
	if strings.TrimSpace(r.ClassesJSON) == "" {
		return nil
	}
	var out []int
	if err := json.Unmarshal([]byte(r.ClassesJSON), &out); err != nil {
		return nil
	}
	return out
}

// CheckSession groups a submitted product list and tracks evaluation
// progress and traffic-light totals.
type CheckSession struct {
	ID           string `gorm:"primaryKey;size:64"`
	Name         string `gorm:"size:128;index"`
	Status       string `gorm:"size:32;index"`
	TotalItems   int
	CheckedItems int
	RedCount     int
	YellowCount  int
	GreenCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session lifecycle states.
const (
	SessionStatusNew       = "new"
	SessionStatusRunning   = "running"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
	SessionStatusFailed    = "failed"
)

// SessionProduct is one product submitted within a session, stored as the
// original JSON payload so re-evaluation sees exactly what was submitted.
type SessionProduct struct {
	ID          uint   `gorm:"primaryKey"`
	SessionID   string `gorm:"size:64;index"`
	Article     string `gorm:"size:128;index"`
	Name        string `gorm:"size:256"`
	RowIndex    int
	PayloadJSON string `gorm:"type:text"`
	CreatedAt   time.Time
}

// Assessment is the persisted per-product verdict within a session.
type Assessment struct {
	ID                  uint   `gorm:"primaryKey"`
	SessionID           string `gorm:"size:64;index"`
	Article             string `gorm:"size:128;index"`
	Name                string `gorm:"size:256"`
	OverallStatus       string `gorm:"size:16;index"`
	OverallScore        float64
	FactorsJSON         string `gorm:"type:text"`
	Summary             string `gorm:"type:text"`
	RecommendationsJSON string `gorm:"type:text"`
	ManualItemsJSON     string `gorm:"type:text"`
	RequiresManualCheck bool
	TrademarkJSON       string `gorm:"type:text"`
	ProcessingTimeMs    int64
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time
}

// SetFactors stores the factor list as JSON.
func (a *Assessment) SetFactors(v any) {
	payload, _ := json.Marshal(v)
	a.FactorsJSON = string(payload)
}

// SetRecommendations stores the recommendation list as JSON.
func (a *Assessment) SetRecommendations(recs []string) {
	payload, _ := json.Marshal(recs)
	a.RecommendationsJSON = string(payload)
}

// Recommendations returns the decoded recommendation list.
func (a *Assessment) Recommendations() []string {
	if strings.TrimSpace(a.RecommendationsJSON) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(a.RecommendationsJSON), &out); err != nil {
		return nil
	}
	return out
}

// SetManualItems stores the manual follow-up list as JSON.
func (a *Assessment) SetManualItems(items []string) {
	payload, _ := json.Marshal(items)
	a.ManualItemsJSON = string(payload)
}

// ManualItems returns the decoded manual follow-up list.
func (a *Assessment) ManualItems() []string {
	if strings.TrimSpace(a.ManualItemsJSON) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(a.ManualItemsJSON), &out); err != nil {
		return nil
	}
	return out
}

// JobState persists evaluation job metadata across restarts.
type JobState struct {
	JobID         string `gorm:"primaryKey;size:64"`
	SessionID     string `gorm:"size:64;index"`
	Status        string `gorm:"size:32;index"`
	Message       string `gorm:"size:255"`
	Processed     int
	Total         int64
	LastEventJSON string `gorm:"type:text"`
	UpdatedAt     time.Time
	CreatedAt     time.Time
}
