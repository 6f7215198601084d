package openai

import "fmt"

const entitySystemPrompt = `You are a legal document entity extraction system. Extract all relevant entities from the provided legal document text.

Extract the following:
- people: Array of objects with 'name' (full name), 'role' (Accused, Victim, Witness, Judge, Lawyer, etc.), and 'confidence' (0-1)
- dates: Array of date strings in YYYY-MM-DD format or as mentioned in document
- locations: Array of location names (cities, addresses, courts, etc.)
- case_numbers: Array of case/FIR numbers
- organizations: Array of organization names (police stations, courts, companies, etc.)

Be precise and only extract entities that are clearly mentioned in the text.`

func buildEntityPrompt(text string) string {
	return fmt.Sprintf(`Extract entities from this legal document:

%s

Return ONLY a valid JSON object with no additional text.`, text)
}
