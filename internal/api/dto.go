package api

import (
	"encoding/json"
	"strings"
	"time"

	"mark-risk-eval/internal/registry"
	"mark-risk-eval/internal/scoring"
	"mark-risk-eval/internal/store"
)

// CheckRequest is a synchronous single-designation check. Provenance is
// optional; when omitted the verdict treats the image source as unknown.
type CheckRequest struct {
	Designation string              `json:"designation"`
	Classes     []int               `json:"classes"`
	Source      *scoring.Provenance `json:"source,omitempty"`
}

// CheckResponse carries the verdict for an ad-hoc designation check together
// with the ranked registry detail behind it.
type CheckResponse struct {
	Assessment scoring.RiskAssessment `json:"assessment"`
	Trademark  registry.CheckResult   `json:"trademark"`
}

// ImageSearchRequest asks for a reverse lookup of one image URL.
type ImageSearchRequest struct {
	ImageURL string `json:"image_url"`
}

// CreateSessionRequest opens a check session, optionally pre-loaded with
// products.
type CreateSessionRequest struct {
	Name     string            `json:"name"`
	Products []scoring.Product `json:"products"`
}

// AddProductsRequest appends products to an existing session.
type AddProductsRequest struct {
	Products []scoring.Product `json:"products"`
}

// SessionDTO is the API representation of a check session.
type SessionDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	TotalItems   int       `json:"total_items"`
	CheckedItems int       `json:"checked_items"`
	RedCount     int       `json:"red_count"`
	YellowCount  int       `json:"yellow_count"`
	GreenCount   int       `json:"green_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionsResponse is the paginated session listing.
type SessionsResponse struct {
	Items []SessionDTO `json:"items"`
	Total int64        `json:"total"`
}

// ProductDTO is the API representation of a submitted product.
type ProductDTO struct {
	ID       uint   `json:"id"`
	Article  string `json:"article"`
	Name     string `json:"name"`
	RowIndex int    `json:"row_index"`
}

// ProductsResponse is the paginated product listing for a session.
type ProductsResponse struct {
	Items []ProductDTO `json:"items"`
	Total int64        `json:"total"`
}

// EvaluateRequest starts an asynchronous evaluation of a session.
type EvaluateRequest struct {
	SessionID string `json:"session_id"`
	Limit     int    `json:"limit"`
	Resume    bool   `json:"resume"`
	Force     bool   `json:"force"`
}

// StartEvaluationResponse describes the asynchronous evaluation kickoff
// payload.
type StartEvaluationResponse struct {
	JobID     string    `json:"job_id"`
	SessionID string    `json:"session_id"`
	Total     int64     `json:"total"`
	StartedAt time.Time `json:"started_at"`
}

// AssessmentDTO is the API representation of a persisted verdict.
type AssessmentDTO struct {
	ID                  uint            `json:"id"`
	SessionID           string          `json:"session_id"`
	Article             string          `json:"article"`
	Name                string          `json:"name"`
	OverallStatus       string          `json:"overall_status"`
	OverallScore        float64         `json:"overall_score"`
	Factors             json.RawMessage `json:"factors,omitempty"`
	Summary             string          `json:"summary"`
	Recommendations     []string        `json:"recommendations"`
	RequiresManualCheck bool            `json:"requires_manual_check"`
	ManualCheckItems    []string        `json:"manual_check_items"`
	TrademarkDetail     json.RawMessage `json:"trademark_detail,omitempty"`
	ProcessingTimeMs    int64           `json:"processing_time_ms"`
	CreatedAt           time.Time       `json:"created_at"`
}

// AssessmentsResponse holds verdict items and totals.
type AssessmentsResponse struct {
	Items []AssessmentDTO `json:"items"`
	Total int64           `json:"total"`
}

// FromModel converts a store.Assessment into the DTO representation.
func FromModel(a store.Assessment) AssessmentDTO {
	dto := AssessmentDTO{
		ID:                  a.ID,
		SessionID:           a.SessionID,
		Article:             a.Article,
		Name:                a.Name,
		OverallStatus:       a.OverallStatus,
		OverallScore:        round2(a.OverallScore),
		Summary:             strings.TrimSpace(a.Summary),
		Recommendations:     a.Recommendations(),
		RequiresManualCheck: a.RequiresManualCheck,
		ManualCheckItems:    a.ManualItems(),
		ProcessingTimeMs:    a.ProcessingTimeMs,
		CreatedAt:           a.CreatedAt,
	}
	if raw := strings.TrimSpace(a.FactorsJSON); raw != "" {
		dto.Factors = json.RawMessage(raw)
	}
	if raw := strings.TrimSpace(a.TrademarkJSON); raw != "" {
		dto.TrademarkDetail = json.RawMessage(raw)
	}
	return dto
}

// SessionFromModel converts a store.CheckSession into a DTO.
func SessionFromModel(s store.CheckSession) SessionDTO {
	return SessionDTO{
		ID:           s.ID,
		Name:         s.Name,
		Status:       s.Status,
		TotalItems:   s.TotalItems,
		CheckedItems: s.CheckedItems,
		RedCount:     s.RedCount,
		YellowCount:  s.YellowCount,
		GreenCount:   s.GreenCount,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// ProductFromModel converts a store.SessionProduct into a DTO.
func ProductFromModel(p store.SessionProduct) ProductDTO {
	return ProductDTO{
		ID:       p.ID,
		Article:  p.Article,
		Name:     p.Name,
		RowIndex: p.RowIndex,
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// EvaluateStatusResponse describes the state of the active evaluation job.
type EvaluateStatusResponse struct {
	Running        bool           `json:"running"`
	JobID          string         `json:"job_id"`
	SessionID      string         `json:"session_id"`
	State          string         `json:"state"`
	Message        string         `json:"message"`
	Processed      int            `json:"processed"`
	Total          int64          `json:"total"`
	LastAssessment *AssessmentDTO `json:"last_assessment,omitempty"`
}
