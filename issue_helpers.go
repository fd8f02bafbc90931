package csvmodel

// IssueAt creates an Issue for column with the provided code and message.
func IssueAt(column, code, msg string) Issue {
	return Issue{Column: column, Code: code, Message: msg}
}
