package voice

import "regexp"

// dutchWords matches common Dutch function words. Two hits are enough to
// switch the voice; one alone is too easy to trip on loanwords.
var dutchWords = regexp.MustCompile(`(?i)\b(het|een|niet|ik|jij|je|wij|jullie|deze|dat is|en de|van de|naar|graag|dank|bedankt|alstublieft|hallo|goedemorgen|goedemiddag|hoe gaat|waar is|kunt u|ik wil|ik heb|mijn)\b`)

// DetectLanguage guesses between Dutch and the fallback locale by counting
// Dutch function words in the text.
func DetectLanguage(text, fallback string) string {
	if fallback == "" {
		fallback = "en-US"
	}
	if len(dutchWords.FindAllStringIndex(text, 2)) >= 2 {
		return "nl-NL"
	}
	return fallback
}
