package constant

// Query types recorded on each turn. The FNOL stage machine and the
// context-restoration logic key off these values.
const (
	QueryTypeText                  = "text"
	QueryTypeGreeting              = "greeting"
	QueryTypeOpenEnded             = "open_ended"
	QueryTypePolicyRequired        = "policy_required"
	QueryTypeNeedsMoreContext      = "needs_more_context"
	QueryTypeLossValidated         = "loss_validated"
	QueryTypeDetailsCollected      = "details_collected"
	QueryTypeClaimFiled            = "claim_filed"
	QueryTypePolicyNotFound        = "policy_not_found_in_content"
	QueryTypeClarificationRequired = "clarification_required"
)

// Fixed responses. These never go through the generator so their wording
// stays stable across model versions.
const (
	GreetingAnswer = "Hello! I can help you with questions about your insurance policies, compare coverage across policies, or file a claim. How can I help you today?"

	PolicyRequiredAnswer = "I'd be happy to help with that. Could you share your policy number so I can look up the right documents? You can find it on your declarations page or billing statement."

	PolicyRequiredForClaimAnswer = "I'm sorry to hear that. I can help you file a claim. First, could you share your policy number so I can pull up your coverage? You can find it on your declarations page or insurance card."

	OpenEndedClarificationAnswer = "I can help with that. To point you at the right information, could you tell me a bit more, for example which policy this is about, or whether you're asking about coverage, claims, or billing?"

	PolicyNotFoundAnswer = "I couldn't find that policy number in the documents I have access to. Please double-check the number, it usually mixes letters and digits like ABC-1234567. If it looks right, the policy documents may not be uploaded yet."

	GenerationFailedAnswer = "I'm having trouble generating an answer right now. Please try again in a moment."
)

// NATS topic for claim-filed events.
const ClaimFiledTopic = "CLAIM_FILED"
