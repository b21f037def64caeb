package ai

import (
	"fmt"
	"strings"

	"querydesk/models"
)

// BuildSQLPrompt asks the model for one read-only T-SQL statement answering
// the user's request, using the reference files as schema examples.
func BuildSQLPrompt(userPrompt string, sqlFiles []models.SQLFile) string {
	var b strings.Builder
	b.WriteString("You are a SQL Server expert. Below are reference SQL files showing the schema and typical queries:\n\n")

	for _, f := range sqlFiles {
		fmt.Fprintf(&b, "--- SQL File: %s ---\n", f.Name)
		b.WriteString(f.Content)
		b.WriteString("\n\n")
	}

	b.WriteString("--- User Request ---\n")
	b.WriteString(userPrompt)
	b.WriteString("\n\n")
	b.WriteString("Write a single read-only SELECT (or WITH ... SELECT) statement answering the request. ")
	b.WriteString("Use readable column aliases because they are shown to the user as field names. ")
	b.WriteString("Return only the SQL, without explanation or markdown.")

	return b.String()
}

// BuildChatPrompt wraps a conversational message.
func BuildChatPrompt(userPrompt string) string {
	return "You are a helpful assistant for a records database. Answer the following message briefly and in plain text:\n\n" + userPrompt
}

// stripFences removes a surrounding markdown code fence with an optional language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], " \t") {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
