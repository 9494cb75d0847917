package ai

import (
	"fmt"
	"strings"
)

// buildExtractionPrompt asks for a full transaction extraction. The model
// may answer a literal null when the text is not a transaction.
func buildExtractionPrompt(text string, categories []string) string {
	base :=
		"Extract transaction details from the following bank notification text.\n\n" +
			"Text:\n\"" + text + "\"\n\n" +
			categoriesContext(categories) + "\n\n" +
			"Return ONLY a JSON object with these keys:\n" +
			"- \"amount\": number\n" +
			"- \"currency\": string (3-letter code, default \"INR\")\n" +
			"- \"merchant_name\": string (clean, title case)\n" +
			"- \"category\": string (one of the valid categories)\n" +
			"- \"sub_category\": string (one of the listed subcategories for the chosen category)\n" +
			"- \"account_type\": string (\"SAVINGS\", \"CREDIT_CARD\" or \"CASH\")\n" +
			"- \"transaction_type\": string (\"DEBIT\" or \"CREDIT\")\n\n" +
			"If unsure about the category, use \"Uncategorized\".\n" +
			"If the text contains no transaction, return null.\n" +
			"Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n"
	return base
}

// buildEnrichmentPrompt asks only for merchant and category. The amount is
// already known from the rule engine and is pinned for context only.
func buildEnrichmentPrompt(text string, amount float64, categories []string) string {
	return "A transaction of amount " + fmt.Sprintf("%.2f", amount) +
		" was extracted from the following bank notification text.\n\n" +
		"Text:\n\"" + text + "\"\n\n" +
		categoriesContext(categories) + "\n\n" +
		"Identify the merchant and classify it. Return ONLY a JSON object with these keys:\n" +
		"- \"merchant_name\": string (clean, title case)\n" +
		"- \"category\": string (one of the valid categories)\n" +
		"- \"sub_category\": string (one of the listed subcategories for the chosen category)\n\n" +
		"Do NOT return the amount. Do NOT wrap the response in code fences.\n"
}

func categoriesContext(categories []string) string {
	if len(categories) == 0 {
		return "Valid Categories: Food, Transport, Shopping, Housing, Bills & Utilities, " +
			"Investment, Income, Entertainment, Medical, Personal Care"
	}
	var b strings.Builder
	b.WriteString("Valid Categories & Sub-Categories (use these EXACTLY):\n")
	for _, c := range categories {
		b.WriteString("- " + c + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
