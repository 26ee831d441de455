package openai

import "fmt"

const summarizationResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "summary": {
      "type": "string",
      "minLength": 1
    },
    "tags": {
      "type": "array",
      "items": {
        "type": "string"
      },
      "minItems": 3,
      "maxItems": 5
    }
  },
  "required": ["summary", "tags"],
  "additionalProperties": false
}`

const summarizationPrompt = `You are a helpful news editor. Read the provided article and perform the following tasks:
1. Summarize the key points in 3 bullet points.
2. Extract 3-5 relevant keywords (tags) for categorization.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

` + summarizationResponseSchema + `

Rules:
- The summary must be written in the article's own language.
- Tags must be short lowercase keywords.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input:
Title: City opens new riverside park
Content: The city council inaugurated a 12-hectare park along the river on Saturday...
Output:
{
  "summary": "- The city opened a 12-hectare riverside park.\n- The council funded it through a green-space levy.\n- Free public events run through the summer.",
  "tags": ["park", "city council", "public space"]
}`

// buildUserPrompt assembles the summarization input, capping the article
// body to keep token cost bounded.
func buildUserPrompt(title, content string, maxContentChars int) string {
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}
	return fmt.Sprintf("Title: %s\n\nContent:\n%s", title, content)
}
