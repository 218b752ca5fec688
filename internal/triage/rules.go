package triage

import "fmt"

// DefaultRules is the PMSMA rule table carried over verbatim from the
// deployed protocol (PMSMA Operational Guidelines, MoHFW GoI; JSY danger
// sign protocol; FOGSI/WHO Safe Motherhood recommendations). RED rules are
// declared before YELLOW by convention, though the evaluator enforces
// severity ordering regardless of declaration order.
var DefaultRules = []Rule{
	// RED flags: danger signs in pregnancy (PMSMA section 4).
	{
		Tier:    TierRed,
		Symptom: SymptomBleeding,
		Trigger: "heavy",
		Action: "Go to the nearest government hospital or PHC immediately. " +
			"Call 108 (ambulance) if unable to travel. Do NOT wait.",
		Reason: "Heavy antepartum or postpartum haemorrhage is a leading direct cause " +
			"of maternal mortality in India (SRS 2020). Per PMSMA danger-sign protocol, " +
			"heavy vaginal bleeding warrants immediate obstetric intervention — " +
			"possible placenta praevia, placental abruption, or uterine rupture.",
	},
	{
		Tier:    TierRed,
		Symptom: SymptomConvulsions,
		Trigger: true,
		Action: "Call 108 immediately. Lay the patient on her left side. " +
			"Do NOT give anything by mouth. Reach a FIRST REFERRAL UNIT (FRU) at once.",
		Reason: "Convulsions in pregnancy indicate eclampsia until proven otherwise — " +
			"a hypertensive emergency with high maternal and perinatal mortality risk. " +
			"PMSMA and NHM protocols mandate emergency magnesium sulphate therapy " +
			"and immediate referral to an FRU with Comprehensive Emergency Obstetric " +
			"Care (CEmOC) capability.",
	},
	{
		Tier:    TierRed,
		Symptom: SymptomSevereHeadache,
		Trigger: true,
		Action: "Seek emergency care at a government hospital immediately. " +
			"Monitor blood pressure if possible. Call 108 if BP is ≥ 160/110 mmHg.",
		Reason: "Severe headache in pregnancy — especially in the third trimester — " +
			"is a cardinal warning sign of pre-eclampsia / imminent eclampsia per " +
			"PMSMA and WHO ANC guidelines (2016). It may precede convulsions by minutes " +
			"to hours. Immediate BP assessment and anti-hypertensive + MgSO4 therapy " +
			"at an FRU is mandatory.",
	},
	{
		Tier:    TierRed,
		Symptom: SymptomFetalMovement,
		Trigger: "decreased",
		Action: "Go to the nearest health facility today for a fetal well-being check " +
			"(Non-Stress Test or kick-count assessment). Do not delay overnight.",
		Reason: "Decreased or absent fetal movements (fewer than 10 movements in 2 hours) " +
			"is a recognised danger sign of foetal distress / intrauterine foetal death " +
			"per PMSMA screening criteria and RCOG guideline (adopted by NHM India). " +
			"Immediate cardiotocography (CTG) or Doppler assessment is required.",
	},
	{
		Tier:    TierRed,
		Symptom: SymptomFetalMovement,
		Trigger: "absent",
		Action: "Go to the nearest government hospital immediately for an urgent fetal " +
			"assessment. Call 108 if unable to travel.",
		Reason: "Absent fetal movement is the gravest form of the fetal-movement danger " +
			"sign under PMSMA screening criteria and requires immediate CTG or Doppler " +
			"confirmation of fetal viability at a facility with obstetric capability.",
	},
	{
		Tier:    TierRed,
		Symptom: SymptomAbdominalPain,
		Trigger: "severe",
		Action: "Go to the nearest government hospital or PHC immediately. " +
			"Call 108 (ambulance) if unable to travel. Do NOT wait.",
		Reason: "Severe or rhythmic abdominal pain in pregnancy can indicate placental " +
			"abruption, uterine rupture, or active preterm labour — all obstetric " +
			"emergencies per PMSMA danger-sign protocol requiring immediate referral.",
	},

	// YELLOW flags: high-risk conditions (PMSMA section 5).
	{
		Tier:    TierYellow,
		Symptom: SymptomFever,
		Trigger: true,
		Action: "Visit the nearest Primary Health Centre (PHC) or Sub-Centre within 24 hours. " +
			"Stay hydrated. Carry your ANC card.",
		Reason: "Fever during pregnancy raises concern for malaria, urinary tract infection, " +
			"or chorioamnionitis — all associated with preterm labour and foetal loss " +
			"per PMSMA high-risk categorisation. Malaria in pregnancy is notifiable " +
			"under NHM guidelines and requires prompt blood-smear or RDT testing.",
	},
	{
		Tier:    TierYellow,
		Symptom: SymptomSwellingFeet,
		Trigger: true,
		Action: "Visit your ASHA worker or ANM today for blood pressure measurement. " +
			"If BP > 140/90 mmHg, proceed to PHC immediately. Rest with feet elevated.",
		Reason: "Oedema of the feet and ankles, particularly when sudden or severe, " +
			"is a high-risk indicator for gestational hypertension / pre-eclampsia " +
			"under PMSMA screening. Per JSY/ASHA guidelines, BP must be checked " +
			"and proteinuria ruled out. Generalised oedema with proteinuria meets " +
			"diagnostic criteria for pre-eclampsia.",
	},
	{
		Tier:    TierYellow,
		Symptom: SymptomAbdominalPain,
		Trigger: "mild",
		Action: "Contact your ANM or ASHA worker within 24 hours. " +
			"Note the frequency, duration, and location of pain. " +
			"Go to a PHC if pain worsens or becomes rhythmic.",
		Reason: "Mild abdominal pain can signal preterm uterine contractions, urinary " +
			"tract infection, or early placental abruption. PMSMA ANC visit checklists " +
			"require evaluation of abdominal pain to exclude threatened preterm labour " +
			"(< 37 weeks) or round-ligament pain. Rhythmic or worsening pain upgrades " +
			"the risk to RED immediately.",
	},
}

// GreenVerdict is the canonical low-risk fallback, returned when no RED or
// YELLOW rule triggers. It is a fixed record, not derived from any rule.
var GreenVerdict = Verdict{
	Tier: TierGreen,
	Action: "Continue routine Antenatal Care (ANC). Attend your next scheduled PMSMA " +
		"check-up (9th, 15th, or 21st of each month at a government facility). " +
		"Take your prescribed IFA tablets daily and ensure TT vaccination is up to date.",
	Reason: "No danger signs or high-risk indicators detected based on reported symptoms. " +
		"Low-risk status per PMSMA triage criteria. Regular ANC visits (minimum 4 per " +
		"WHO / GoI recommendation), iron-folic acid supplementation, and birth " +
		"preparedness planning should continue as advised by your ANM/ASHA.",
}

// FallbackVerdict is returned by the Service when classification itself
// fails. Understating risk is unsafe, but a failure must not leave the
// caller with zero guidance, so the fallback is YELLOW-equivalent.
var FallbackVerdict = Verdict{
	Tier: TierYellow,
	Action: "Visit the nearest Primary Health Centre (PHC) within 24 hours and " +
		"describe your symptoms to the health worker. Carry your ANC card.",
	Reason: "Risk classification could not be completed for this call. Defaulting to " +
		"an urgent PHC referral so that a health worker assesses the caller in person.",
}

// ValidateRules checks a rule table for structural problems. GREEN rows are
// rejected because GREEN is the canonical fallback, never a rule.
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("rule table is empty")
	}
	for i, r := range rules {
		switch r.Tier {
		case TierRed, TierYellow:
		case TierGreen:
			return fmt.Errorf("rule %d: GREEN is the fallback tier, not a rule tier", i)
		default:
			return fmt.Errorf("rule %d: unknown tier %q", i, r.Tier)
		}
		if r.Symptom == "" {
			return fmt.Errorf("rule %d: empty symptom key", i)
		}
		switch r.Trigger.(type) {
		case bool, string:
		default:
			return fmt.Errorf("rule %d (%s): trigger must be bool or string, got %T", i, r.Symptom, r.Trigger)
		}
		if r.Action == "" {
			return fmt.Errorf("rule %d (%s): empty mandatory action", i, r.Symptom)
		}
		if r.Reason == "" {
			return fmt.Errorf("rule %d (%s): empty clinical reason", i, r.Symptom)
		}
	}
	return nil
}
