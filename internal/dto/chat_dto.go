package dto

type AskRequest struct {
	Query     string `json:"query" validate:"required"`
	SessionID string `json:"session_id,omitempty"`
}

// ClaimFiledMessage is the payload published on the claim-filed topic.
type ClaimFiledMessage struct {
	SessionID    string `json:"session_id"`
	PolicyNumber string `json:"policy_number"`
	ClaimNumber  string `json:"claim_number"`
}

type AskResponse struct {
	Answer                string   `json:"answer"`
	QueryType             string   `json:"query_type"`
	FormatUsed            string   `json:"format_used"`
	References            []string `json:"references,omitempty"`
	SessionID             string   `json:"session_id"`
	NeedsClarification    bool     `json:"needs_clarification"`
	NeedsPolicyholderInfo bool     `json:"needs_policyholder_info"`
	IsPersonalClaim       bool     `json:"is_personal_claim"`
	ClaimNumber           string   `json:"claim_number,omitempty"`
}
