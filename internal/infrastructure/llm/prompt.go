package llm

import "strings"

const maxDescriptionChars = 8000

func buildSystemPrompt(itemNames []string) string {
	parts := []string{
		"You read a tradesperson's description of completed work and list the billable line items.",
		"Return ONLY JSON that matches the JSON Schema provided.",
		"For each item give item_ref and a numeric quantity. Use the unit field for the unit the quantity is in (hour, each, sqft, linear_ft, day, job).",
		"Convert durations to hours: 45 minutes is 0.75.",
		"Never include prices, rates, amounts or totals.",
		"Put a customer name in client_name_hint and a work date (YYYY-MM-DD) in work_date_hint when the text mentions them.",
		"Never output null. If a field is not present, omit it.",
	}
	if len(itemNames) > 0 {
		parts = append(parts, "Prefer these item references exactly as written when one fits: "+strings.Join(itemNames, "; ")+".")
	}
	return strings.Join(parts, " ")
}

func buildUserPrompt(description string) string {
	if len(description) > maxDescriptionChars {
		description = description[:maxDescriptionChars]
	}
	return "Work description:\n" + description
}
