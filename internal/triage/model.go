package triage

import "time"

// Tier is an obstetric risk tier, ordered by descending severity.
type Tier string

const (
	// TierRed means emergency, immediate hospital referral.
	TierRed Tier = "RED"

	// TierYellow means high-risk, must see a health provider within 24 hours.
	TierYellow Tier = "YELLOW"

	// TierGreen means low-risk, routine ANC follow-up.
	TierGreen Tier = "GREEN"
)

// Recognised symptom keys. A SymptomRecord may carry other keys; the engine
// ignores them.
const (
	SymptomBleeding       = "bleeding"        // "none" | "light" | "heavy"
	SymptomConvulsions    = "convulsions"     // bool
	SymptomSevereHeadache = "severe_headache" // bool
	SymptomFetalMovement  = "fetal_movement"  // "normal" | "decreased" | "absent"
	SymptomFever          = "fever"           // bool
	SymptomSwellingFeet   = "swelling_feet"   // bool
	SymptomAbdominalPain  = "abdominal_pain"  // "none" | "mild" | "severe"
)

// SymptomRecord maps symptom keys to reported values. Absent keys mean
// "not present". Values are expected to be bool or string after upstream
// normalization; anything else simply never matches a rule trigger.
type SymptomRecord map[string]any

// Rule binds exactly one symptom key to exactly one trigger value. Rules are
// data, not code: the table is editable without touching the evaluator, and
// every clinical decision traces to exactly one Reason sentence.
type Rule struct {
	Tier    Tier
	Symptom string
	Trigger any // bool or string, matched with strict typed equality
	Action  string
	Reason  string
}

// Verdict is the outcome of a triage evaluation. Always fully populated.
type Verdict struct {
	Tier   Tier   `json:"risk_tier"`
	Action string `json:"mandatory_action"`
	Reason string `json:"clinical_reason"`
}

// Record is a persisted triage outcome for one call.
type Record struct {
	ID            string        `json:"id"`
	CallID        string        `json:"call_id"`
	CallerPhone   string        `json:"caller_phone,omitempty"`
	WeeksPregnant int           `json:"weeks_pregnant,omitempty"`
	Verdict       Verdict       `json:"verdict"`
	Symptoms      SymptomRecord `json:"symptoms,omitempty"`
	Fallback      bool          `json:"fallback,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
