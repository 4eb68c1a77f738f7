package cmd

import (
	"strings"

	"github.com/joescharf/bugfix/internal/models"
)

// classifyCategory infers the bug category from the title using keyword
// heuristics. Security keywords are checked first so "login page XSS"
// classifies Security, not Ui. Defaults to Functionality if no
// keywords match.
func classifyCategory(title string) models.Category {
	lower := strings.ToLower(title)

	securityKeywords := []string{
		"security", "vulnerab", "injection", "xss", "csrf",
		"auth bypass", "leak", "exposed", "exploit",
	}
	for _, kw := range securityKeywords {
		if strings.Contains(lower, kw) {
			return models.CategorySecurity
		}
	}

	performanceKeywords := []string{
		"slow", "timeout", "latency", "memory", "leak",
		"hang", "freeze", "performance", "cpu",
	}
	for _, kw := range performanceKeywords {
		if strings.Contains(lower, kw) {
			return models.CategoryPerformance
		}
	}

	uiKeywords := []string{
		"layout", "overlap", "misaligned", "css", "style",
		"render", "button", "icon", "color", "font",
	}
	for _, kw := range uiKeywords {
		if strings.Contains(lower, kw) {
			return models.CategoryUI
		}
	}

	usabilityKeywords := []string{
		"confusing", "unclear", "hard to", "usability",
		"unintuitive", "misleading",
	}
	for _, kw := range usabilityKeywords {
		if strings.Contains(lower, kw) {
			return models.CategoryUsability
		}
	}

	return models.CategoryFunctionality
}

// classifyUrgency infers a 1-10 urgency from the title. High keywords
// are checked before low keywords. Defaults to 5.
func classifyUrgency(title string) int {
	lower := strings.ToLower(title)

	highKeywords := []string{
		"critical", "urgent", "blocker", "crash", "security",
		"data loss", "production down", "p0", "p1",
	}
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return 9
		}
	}

	lowKeywords := []string{
		"minor", "cosmetic", "trivial", "typo", "nice to have",
		"low priority",
	}
	for _, kw := range lowKeywords {
		if strings.Contains(lower, kw) {
			return 2
		}
	}

	return 5
}
