// Package result defines the stable verify_result shape every checker
// family reports, and the error taxonomy that feeds it.
package result

// Status is the outcome of validating one document.
type Status string

const (
	StatusPassed    Status = "passed"
	StatusFailedXSD Status = "failed_xsd"
	StatusFailedSch Status = "failed_sch"
	StatusFailedXQR Status = "failed_xqr"
	StatusFailedSum Status = "failed_sum"
	StatusFailedVer Status = "failed_ver"
	StatusFailed    Status = "failed"
)

// Assert is one reported assertion failure.
type Assert struct {
	ErrorCode        string   `json:"error_code"`
	Description      string   `json:"description"`
	InspectionItems  []string `json:"inspection_items"`
}

// VerifyResult is the aggregated outcome a checker façade produces for
// a single document.
type VerifyResult struct {
	Status      Status   `json:"result"`
	Description string   `json:"description,omitempty"`
	Asserts     []Assert `json:"asserts"`
}

// New returns a VerifyResult that starts out passed; callers downgrade
// Status as failures accumulate.
func New() VerifyResult {
	return VerifyResult{Status: StatusPassed, Asserts: []Assert{}}
}

// AddAssert appends a failing assertion. It leaves Status unchanged;
// callers set the status that matches the failure.
func (r *VerifyResult) AddAssert(code, description string) {
	r.Asserts = append(r.Asserts, Assert{ErrorCode: code, Description: description, InspectionItems: []string{}})
}
