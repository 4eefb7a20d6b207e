package intent

import "regexp"

// Intent labels.
const (
	IntentPersonalClaim     = "personal_claim"
	IntentOpenEnded         = "open_ended"
	IntentFNOL              = "fnol"
	IntentPolicyInfo        = "policy_info"
	IntentPolicySummary     = "policy_summary"
	IntentSimilarSearch     = "similar_search"
	IntentSpecificPerson    = "specific_person"
	IntentComparison        = "comparison"
	IntentCoverageCheck     = "coverage_check"
	IntentLimitsDeductibles = "limits_deductibles"
	IntentLimitConflict     = "limit_conflict"
	IntentGreeting          = "greeting"
	IntentGeneral           = "general"
)

// Format preferences.
const (
	FormatText               = "text"
	FormatClarification      = "clarification"
	FormatNeedsClarification = "needs_clarification"
	FormatStructured         = "structured"
	FormatTable              = "table"
)

// Pattern binds a set of expressions to an intent label with an explicit
// resolution priority (lower wins). The table is ordered so resolution order
// is data, not incidental code order.
type Pattern struct {
	Intent   string
	Priority int
	Exprs    []*regexp.Regexp
}

func exprs(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

// Table is the full domain pattern battery, matched against the lowercased
// query. Claim/loss-report language outranks information requests, which
// outrank comparisons.
var Table = []Pattern{
	{
		Intent:   IntentPersonalClaim,
		Priority: 1,
		Exprs: exprs(
			`my\s+(floor|roof|car|house|apartment|business|property)`,
			`i\s+have\s+(water\s+damage|fire|theft|accident)`,
			`there\s+is\s+(damage|leak|fire|break)`,
			`something\s+happened\s+to\s+my`,
			`(water|fire|storm|wind)\s+damage\s+(to\s+)?my`,
			`my\s+.+\s+is\s+(leaking|damaged|broken|flooded)`,
			`i\s+need\s+to\s+(file|submit)\s+a\s+claim`,
			`(car|vehicle)\s+(broke\s+down|breakdown)`,
			`i\s+was\s+in\s+(a\s+)?(car\s+)?(accident|crash|collision)`,
			`(crashed|accident\s+happened|collision\s+occurred)`,
			`due\s+to\s+(a\s+)?(crash|accident|collision)`,
		),
	},
	{
		Intent:   IntentFNOL,
		Priority: 1,
		Exprs: exprs(
			`file.*claim`, `report.*loss`, `start.*claim`, `submit.*claim`,
			`claim.*number`, `register.*loss`, `incident.*report`,
		),
	},
	{
		Intent:   IntentPolicyInfo,
		Priority: 2,
		Exprs: exprs(
			`my.*policy`, `policy.*information`, `policy.*details`,
			`coverage.*summary`, `what.*covered.*my`, `policy.*number`,
		),
	},
	{
		Intent:   IntentPolicySummary,
		Priority: 2,
		Exprs: exprs(
			`what is.*covered`, `policy summary`, `coverage summary`,
			`what does.*policy cover`, `tell me about.*policy`,
			`pull up.*policy`, `.*is covered under`, `show me.*policy`,
		),
	},
	{
		Intent:   IntentSpecificPerson,
		Priority: 2,
		Exprs: exprs(
			`what is.*covered under`, `.*policy holder`, `.*insured person`,
			`coverage for.*`, `policy for.*`,
		),
	},
	{
		Intent:   IntentComparison,
		Priority: 3,
		Exprs: exprs(
			`compare`, `versus`, `\bvs\b`, `difference between`, `which is better`,
			`similar policies`, `alternatives`, `most similar`, `similar.*in.*terms`,
			`renewal.*similar`, `sell.*renewal`,
		),
	},
	{
		Intent:   IntentSimilarSearch,
		Priority: 3,
		Exprs: exprs(
			`pull up.*similar`, `find.*similar`, `show.*similar`, `other.*like`,
			`comparable.*policy`, `similar.*coverage`, `similar.*policy`, `similar.*to`,
		),
	},
	{
		Intent:   IntentCoverageCheck,
		Priority: 4,
		Exprs: exprs(
			`is.*covered`, `does.*cover`, `coverage for`, `covered under`,
			`includes.*`, `excludes.*`,
		),
	},
	{
		Intent:   IntentLimitsDeductibles,
		Priority: 4,
		Exprs: exprs(
			`what are.*limits`, `deductible`, `maximum coverage`, `threshold`,
			`how much.*covered`, `will it cover.*\d+`, `claim exceeds.*coverage`,
		),
	},
	{
		Intent:   IntentOpenEnded,
		Priority: 5,
		Exprs: exprs(
			`show me all`, `list all`, `give me all`, `what do you have`,
			`show all documents`, `all policies`, `everything about`,
		),
	},
}

// GreetingExprs match short social pleasantries that short-circuit the
// pipeline entirely.
var GreetingExprs = exprs(
	`\b(hi|hello|hey|good morning|good afternoon|good evening)\b`,
	`\b(how are you|what can you do|help me|assist me)\b`,
	`\b(thanks|thank you|bye|goodbye)\b`,
)
