package models

const SubmitResultSuccess = "success"

// SubmitResponse is the body the archive answers a draft POST with.
type SubmitResponse struct {
	Result   *string `json:"result"`
	Redirect string  `json:"redirect,omitempty"`
	Error    string  `json:"error,omitempty"`
}
