// Package triage provides the business boundary for Matri's obstetric risk
// classification. It defines the Engine (pure rule evaluation over a symptom
// record), the Service (persistence, fallback policy, notification dispatch),
// the Store interface, and the domain models.
package triage
