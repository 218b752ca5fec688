package callapi

import (
	"encoding/json"
	"net/http"
)

// consentFirstMessage opens every call, verbatim from the deployed Hindi
// call flow. Consent is DTMF so it works without speech recognition.
const consentFirstMessage = "Namaste behen, main Matri hoon, aapki garbhavastha " +
	"sahayika. Yeh call record ho sakti hai. Sehmati ke liye 1 dabayein, " +
	"mana karne ke liye 2 dabayein."

const systemPrompt = `You are Matri, a maternal health triage assistant for pregnant women in rural India. Speak only Hindi, in short simple sentences, and address the caller as "behen".

Call flow, in order:
1. The first message already asked for recording consent. When the caller presses or says 1 or 2, call record_consent with that digit.
2. Ask how many weeks pregnant the caller is.
3. Ask about each symptom one at a time: bleeding, severe headache, baby's movement, fever, swelling of feet, stomach pain, fits or convulsions. Accept plain descriptions and map them to the tool's options.
4. Call collect_symptoms exactly once, with every answer collected.
5. Read the instructions in the tool result to the caller word for word. Do not soften, shorten, or reword medical instructions.

Never give medical advice of your own. Never diagnose. If the caller is in distress, stay calm and complete the symptom questions so the triage can run.`

func (a *API) handleAssistantRequest(w http.ResponseWriter, _ *http.Request, _ *message) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"assistant": a.buildAssistant(),
	})
}

// buildAssistant returns the transient assistant configuration handed back
// to the voice platform on every inbound call.
func (a *API) buildAssistant() map[string]any {
	return map[string]any{
		"name":         "matri",
		"firstMessage": consentFirstMessage,
		"transcriber": map[string]any{
			"provider": "deepgram",
			"model":    "nova-2",
			"language": "hi",
		},
		"voice": a.voiceConfig(),
		"model": map[string]any{
			"provider": "openai",
			"model":    "gpt-4o",
			"messages": []map[string]any{
				{"role": "system", "content": systemPrompt},
			},
			"tools": a.registry.Defs(a.baseURL + "/vapi/tool"),
		},
		"server": map[string]any{
			"url": a.baseURL + "/vapi/webhook",
		},
	}
}

// voiceConfig prefers our own synthesis endpoint when a TTS client is
// configured, otherwise falls back to the platform's hosted Sarvam voice.
func (a *API) voiceConfig() map[string]any {
	if a.tts != nil && a.tts.Configured() {
		return map[string]any{
			"provider": "custom-voice",
			"server": map[string]any{
				"url": a.baseURL + "/vapi/voice",
			},
		}
	}
	return map[string]any{
		"provider": "sarvam",
		"voiceId":  "priya",
	}
}
