package types

// PricingSource identifies which engine produced a calendar
type PricingSource string

const (
	PricingSourceDeterministic PricingSource = "deterministic"
	PricingSourceAI            PricingSource = "ai"
)

// CalendarDays is the length of the rolling price calendar
const CalendarDays = 180

// Property log actions written by the pricing orchestrator and the
// mutation paths
const (
	LogActionDeterministicPricing = "update:deterministic-pricing"
	LogActionAIPricing            = "update:ia-pricing"
	LogActionCreate               = "create"
	LogActionUpdate               = "update"
	LogActionStatusChange         = "update:status"
	LogActionStrategyChange       = "update:strategy"
	LogActionRulesChange          = "update:rules"
	LogActionManualOverride       = "update:manual-price"
	LogActionGroupMembership      = "update:group-membership"
	LogActionPMSImport            = "import:pms"
)
