package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// CompareBody represents the request for comparing two embeddings
type CompareBody struct {
	A []float64 `json:"a" example:"[0.12,-0.03,0.44]"`
	B []float64 `json:"b" example:"[0.10,-0.01,0.47]"`
}

// CompareResponse represents the response for a raw comparison
type CompareResponse struct {
	Similarity float64 `json:"similarity" example:"0.97"`
	Distance   float64 `json:"distance" example:"0.24"`
}

// VerifyBody represents the request for 1:1 verification of two embeddings
type VerifyBody struct {
	Probe     []float64 `json:"probe" example:"[0.12,-0.03,0.44]"`
	Reference []float64 `json:"reference" example:"[0.10,-0.01,0.47]"`
	Threshold *float64  `json:"threshold,omitempty" example:"0.7"`
}

// VerifyIdentityBody represents the request for 1:1 verification against an identity
type VerifyIdentityBody struct {
	Probe     []float64 `json:"probe" example:"[0.12,-0.03,0.44]"`
	Threshold *float64  `json:"threshold,omitempty" example:"0.7"`
}

// VerifyResponse represents the response for verification
type VerifyResponse struct {
	EventID    string  `json:"event_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Label      string  `json:"label,omitempty" example:"Sarah Williams"`
	Verified   bool    `json:"verified" example:"true"`
	Similarity float64 `json:"similarity" example:"0.92"`
	Threshold  float64 `json:"threshold" example:"0.7"`
	LatencyMs  int64   `json:"latency_ms" example:"1"`
}

// IdentifyBody represents the request for 1:N identification
type IdentifyBody struct {
	Probe     []float64 `json:"probe" example:"[0.12,-0.03,0.44]"`
	Threshold *float64  `json:"threshold,omitempty" example:"0.7"`
	Location  string    `json:"location,omitempty" example:"Main Entrance"`
	Top       int       `json:"top,omitempty" example:"3"`
}

// CandidateData represents one ranked identity
type CandidateData struct {
	Label string  `json:"label" example:"John Doe"`
	Score float64 `json:"score" example:"0.94"`
}

// IdentifyResponse represents the response for identification
type IdentifyResponse struct {
	EventID    string          `json:"event_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status     string          `json:"status" example:"recognized"`
	Label      string          `json:"label,omitempty" example:"John Doe"`
	Similarity *float64        `json:"similarity" example:"0.94"`
	Threshold  float64         `json:"threshold" example:"0.7"`
	Candidates []CandidateData `json:"candidates,omitempty"`
	LatencyMs  int64           `json:"latency_ms" example:"3"`
}

// SearchBody represents the request for a ranked search
type SearchBody struct {
	Probe      []float64 `json:"probe" example:"[0.12,-0.03,0.44]"`
	Threshold  *float64  `json:"threshold,omitempty" example:"0.8"`
	MaxResults int       `json:"max_results,omitempty" example:"10"`
}

// SearchMatchData represents one search match
type SearchMatchData struct {
	EnrollmentID string  `json:"enrollment_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Label        string  `json:"label" example:"Emily Davis"`
	Similarity   float64 `json:"similarity" example:"0.88"`
}

// SearchResponse represents the response for a ranked search
type SearchResponse struct {
	Matches         []SearchMatchData `json:"matches"`
	TotalIdentities int               `json:"total_identities" example:"1250"`
	LatencyMs       int64             `json:"latency_ms" example:"12"`
	SearchID        string            `json:"search_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// EnrollBody represents the request for enrolling embeddings
type EnrollBody struct {
	Label        string                 `json:"label" example:"Sarah Williams"`
	Embeddings   [][]float64            `json:"embeddings"`
	QualityScore float64                `json:"quality_score,omitempty" example:"0.95"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EnrollmentData represents one enrolled embedding
type EnrollmentData struct {
	ID           string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Label        string  `json:"label" example:"Sarah Williams"`
	QualityScore float64 `json:"quality_score" example:"0.95"`
	CreatedAt    string  `json:"created_at" example:"2024-01-01T00:00:00Z"`
}

// IdentityResponse represents an identity with its enrollments
type IdentityResponse struct {
	Label       string           `json:"label" example:"Sarah Williams"`
	Enrollments []EnrollmentData `json:"enrollments"`
}

// IdentitySummary represents one row of the identity list
type IdentitySummary struct {
	Label       string `json:"label" example:"Sarah Williams"`
	Enrollments int    `json:"enrollments" example:"3"`
	CreatedAt   string `json:"created_at" example:"2024-01-01T00:00:00Z"`
	UpdatedAt   string `json:"updated_at" example:"2024-01-02T00:00:00Z"`
}

// ListIdentitiesResponse represents the identity list
type ListIdentitiesResponse struct {
	Identities []IdentitySummary `json:"identities"`
	Total      int               `json:"total" example:"1250"`
}

// DeleteIdentityResponse represents the response for deleting an identity
type DeleteIdentityResponse struct {
	Label   string `json:"label" example:"Sarah Williams"`
	Deleted int    `json:"deleted" example:"3"`
}

// RecognitionEventData represents one recognition log entry
type RecognitionEventData struct {
	ID         string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Kind       string  `json:"kind" example:"identify"`
	Status     string  `json:"status" example:"low_confidence"`
	Label      string  `json:"label,omitempty" example:"Michael Chen"`
	Confidence float64 `json:"confidence" example:"0.65"`
	Threshold  float64 `json:"threshold" example:"0.7"`
	Location   string  `json:"location,omitempty" example:"Side Gate"`
	LatencyMs  int64   `json:"latency_ms" example:"2"`
	CreatedAt  string  `json:"created_at" example:"2024-01-01T00:00:00Z"`
}

// EventsResponse represents the recent events list
type EventsResponse struct {
	Events []RecognitionEventData `json:"events"`
	Count  int                    `json:"count" example:"50"`
}

// HistoryResponse represents one identity's recognition history
type HistoryResponse struct {
	Label  string                 `json:"label" example:"Sarah Williams"`
	Events []RecognitionEventData `json:"events"`
	Count  int                    `json:"count" example:"12"`
}

// StatsResponse represents aggregated recognition statistics
type StatsResponse struct {
	Since             string  `json:"since" example:"2024-01-01T00:00:00Z"`
	Total             int64   `json:"total" example:"3456"`
	Recognized        int64   `json:"recognized" example:"3270"`
	LowConfidence     int64   `json:"low_confidence" example:"100"`
	Unknown           int64   `json:"unknown" example:"86"`
	Matches           int64   `json:"matches" example:"0"`
	NoMatches         int64   `json:"no_matches" example:"0"`
	AverageConfidence float64 `json:"average_confidence" example:"0.89"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

var (
	errValidation = response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity")
	errDimension  = response.New(ErrorResponse{Code: "DIMENSION_MISMATCH", Message: "Embedding dimensions do not match"}, "422", "Unprocessable Entity")
	errDegenerate = response.New(ErrorResponse{Code: "DEGENERATE_VECTOR", Message: "Embedding has zero magnitude"}, "422", "Unprocessable Entity")
	errThreshold  = response.New(ErrorResponse{Code: "INVALID_THRESHOLD", Message: "Threshold must be between 0 and 1"}, "422", "Unprocessable Entity")
	errNotFound   = response.New(ErrorResponse{Code: "IDENTITY_NOT_FOUND", Message: "Identity not found"}, "404", "Not Found")
	errRateLimit  = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded"}, "429", "Too Many Requests")
	errInternal   = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
)

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Facesim Face Embedding API",
		Version:     "v1.0.0",
		Description: "Compares, verifies and identifies faces from precomputed embeddings using cosine similarity",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	jsonMIME := []mime.MIME{mime.JSON}

	endpoints := []*endpoint.EndPoint{
		// Recognition endpoints

		// POST /v1/compare - Raw similarity
		endpoint.New(
			endpoint.POST,
			"/compare",
			endpoint.WithTags("Recognition"),
			endpoint.WithSummary("Compare two embeddings"),
			endpoint.WithDescription("Returns the cosine similarity and euclidean distance between two embeddings of the same dimension"),
			endpoint.WithConsume(jsonMIME),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithBody(CompareBody{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CompareResponse{}, "200", "Comparison completed"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errDimension, errDegenerate, errRateLimit}),
		),

		// POST /v1/verify - 1:1 verification
		endpoint.New(
			endpoint.POST,
			"/verify",
			endpoint.WithTags("Recognition"),
			endpoint.WithSummary("Verify a probe against a reference embedding"),
			endpoint.WithDescription("Performs 1:1 verification. The pair matches when the similarity is at least the threshold (default 0.70)."),
			endpoint.WithConsume(jsonMIME),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithBody(VerifyBody{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerifyResponse{}, "200", "Verification completed"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errDimension, errDegenerate, errThreshold, errRateLimit, errInternal}),
		),

		// POST /v1/identify - 1:N identification
		endpoint.New(
			endpoint.POST,
			"/identify",
			endpoint.WithTags("Recognition"),
			endpoint.WithSummary("Identify a probe against the gallery"),
			endpoint.WithDescription("Scores the probe against every enrolled identity using the best of its embeddings. Returns the best identity when it reaches the threshold, otherwise unknown with the best score seen (null on an empty gallery)."),
			endpoint.WithConsume(jsonMIME),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithBody(IdentifyBody{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(IdentifyResponse{}, "200", "Identification completed"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errDimension, errDegenerate, errThreshold, errRateLimit, errInternal}),
		),

		// POST /v1/search - Ranked search
		endpoint.New(
			endpoint.POST,
			"/search",
			endpoint.WithTags("Recognition"),
			endpoint.WithSummary("Search for similar enrollments"),
			endpoint.WithDescription("Returns enrollments whose similarity reaches the threshold, best first"),
			endpoint.WithConsume(jsonMIME),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithBody(SearchBody{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SearchResponse{}, "200", "Search completed"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				errDimension,
				errThreshold,
				response.New(ErrorResponse{Code: "INVALID_MAX_RESULTS", Message: "max_results must be between 1 and 50"}, "422", "Unprocessable Entity"),
				errRateLimit,
				errInternal,
			}),
		),

		// Identity endpoints

		// POST /v1/identities - Enroll
		endpoint.New(
			endpoint.POST,
			"/identities",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Enroll embeddings for an identity"),
			endpoint.WithDescription("Adds one or more embeddings to the identity with the given label, creating it when absent"),
			endpoint.WithConsume(jsonMIME),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithBody(EnrollBody{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(IdentityResponse{}, "201", "Identity enrolled"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errDimension, errDegenerate, errRateLimit, errInternal}),
		),

		// GET /v1/identities - List
		endpoint.New(
			endpoint.GET,
			"/identities",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("List enrolled identities"),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ListIdentitiesResponse{}, "200", "Identities retrieved"),
			}),
			endpoint.WithErrors([]response.Response{errRateLimit, errInternal}),
		),

		// GET /v1/identities/{label}
		endpoint.New(
			endpoint.GET,
			"/identities/{label}",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Get an identity"),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithParams(
				parameter.StrParam("label", parameter.Path, parameter.WithDescription("Identity label, percent-encoded")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(IdentityResponse{}, "200", "Identity retrieved"),
			}),
			endpoint.WithErrors([]response.Response{errNotFound, errRateLimit, errInternal}),
		),

		// DELETE /v1/identities/{label}
		endpoint.New(
			endpoint.DELETE,
			"/identities/{label}",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Delete an identity"),
			endpoint.WithDescription("Removes every enrolled embedding of the identity"),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithParams(
				parameter.StrParam("label", parameter.Path, parameter.WithDescription("Identity label, percent-encoded")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DeleteIdentityResponse{}, "200", "Identity deleted"),
			}),
			endpoint.WithErrors([]response.Response{errNotFound, errRateLimit, errInternal}),
		),

		// POST /v1/identities/{label}/verify
		endpoint.New(
			endpoint.POST,
			"/identities/{label}/verify",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Verify a probe against an enrolled identity"),
			endpoint.WithDescription("Performs 1:1 verification using the best of the identity's enrolled embeddings"),
			endpoint.WithConsume(jsonMIME),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithParams(
				parameter.StrParam("label", parameter.Path, parameter.WithDescription("Identity label, percent-encoded")),
			),
			endpoint.WithBody(VerifyIdentityBody{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerifyResponse{}, "200", "Verification completed"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errNotFound, errDimension, errDegenerate, errThreshold, errRateLimit, errInternal}),
		),

		// GET /v1/identities/{label}/events
		endpoint.New(
			endpoint.GET,
			"/identities/{label}/events",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Recognition history of one identity"),
			endpoint.WithDescription("Lists the events attributed to the label, newest first. History is kept after the identity is deleted"),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithParams(
				parameter.StrParam("label", parameter.Path, parameter.WithDescription("Identity label, percent-encoded")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of events (default 50, max 500)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HistoryResponse{}, "200", "History retrieved"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
				errValidation,
				errRateLimit,
				errInternal,
			}),
		),

		// DELETE /v1/enrollments/{id}
		endpoint.New(
			endpoint.DELETE,
			"/enrollments/{id}",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Delete one enrolled embedding"),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Enrollment ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Enrollment deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				errValidation,
				response.New(ErrorResponse{Code: "ENROLLMENT_NOT_FOUND", Message: "Enrollment not found"}, "404", "Not Found"),
				errRateLimit,
				errInternal,
			}),
		),

		// Analytics endpoints

		// GET /v1/analytics/events
		endpoint.New(
			endpoint.GET,
			"/analytics/events",
			endpoint.WithTags("Analytics"),
			endpoint.WithSummary("List recent recognition events"),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of events (default 50, max 500)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EventsResponse{}, "200", "Events retrieved"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
				errRateLimit,
				errInternal,
			}),
		),

		// GET /v1/analytics/stats
		endpoint.New(
			endpoint.GET,
			"/analytics/stats",
			endpoint.WithTags("Analytics"),
			endpoint.WithSummary("Aggregate recognition statistics"),
			endpoint.WithProduce(jsonMIME),
			endpoint.WithParams(
				parameter.StrParam("window", parameter.Query, parameter.WithDescription("Lookback window such as 24h (default 24h)")),
				parameter.StrParam("since", parameter.Query, parameter.WithDescription("RFC3339 start time, overrides window")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatsResponse{}, "200", "Statistics retrieved"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errRateLimit, errInternal}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
