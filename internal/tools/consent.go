package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/matri/internal/triage"
)

// Spoken acknowledgements, verbatim from the deployed Hindi call flow.
const (
	consentGrantedSpoken = "Aapki sehmati darj kar li gayi hai. Dhanyavaad. " +
		"Ab hum aapki madad ke liye taiyaar hain."
	consentDeclinedSpoken = "Aapne mana kar diya. Hum call record nahi karenge. " +
		"Aap phir bhi sahayta le sakti hain."
	consentRetrySpoken = "Maafi chahiye, mujhe samajh nahi aaya. Kripya 1 ya 2 dabayein."
	consentStoreNote   = " (Record nahi hua, kripya baad mein try karein.)"
)

// Consent records whether the caller consented to call recording, captured
// as a DTMF digit relayed by the assistant.
type Consent struct {
	svc    *triage.Service
	logger log.Logger
}

// NewConsent creates the record_consent tool.
func NewConsent(svc *triage.Service, logger log.Logger) *Consent {
	if logger == nil {
		logger = log.Nop()
	}
	return &Consent{svc: svc, logger: logger}
}

func (c *Consent) Name() string { return "record_consent" }

func (c *Consent) Description() string {
	return "Records whether the caller consented to call recording. " +
		"Call this when the user presses 1 (consent) or 2 (decline)."
}

func (c *Consent) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"digit": map[string]any{
				"type":        "string",
				"enum":        []string{"1", "2"},
				"description": "DTMF digit: '1' = consent, '2' = decline.",
			},
			"phone_number": map[string]any{
				"type":        "string",
				"description": "Caller's phone number in E.164 format.",
			},
		},
		"required": []string{"digit"},
	}
}

// Execute maps the digit to a consent flag, upserts it, and returns the
// spoken acknowledgement. A store failure must not drop the call: the
// acknowledgement is still returned, with a note asking to retry later.
func (c *Consent) Execute(ctx context.Context, call Call, params map[string]any) (string, error) {
	digit := strings.TrimSpace(fmt.Sprint(params["digit"]))

	phone, _ := params["phone_number"].(string)
	if phone == "" {
		phone = call.CallerPhone
	}

	var granted bool
	var spoken string
	switch digit {
	case "1":
		granted = true
		spoken = consentGrantedSpoken
	case "2":
		granted = false
		spoken = consentDeclinedSpoken
	default:
		c.logger.Warn(ctx, "record_consent called with unexpected digit", "digit", digit)
		return consentRetrySpoken, nil
	}

	if err := c.svc.RecordConsent(ctx, phone, granted); err != nil {
		c.logger.Error(ctx, err, "failed to record consent", "call_id", call.ID)
		spoken += consentStoreNote
	}

	return spoken, nil
}
