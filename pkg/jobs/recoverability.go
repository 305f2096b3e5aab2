package jobs

import "regexp"

// nonRecoverablePattern matches error messages the Job System treats as
// programming/validation errors that must never be retried.
var nonRecoverablePattern = regexp.MustCompile(`(?i)validation|invalid input|authorization|not found|forbidden`)

// Recoverable classifies err: a *JobError's explicit flag wins; otherwise
// the message is matched against the non-recoverable pattern.
func Recoverable(err error) bool {
	if err == nil {
		return true
	}
	if je, ok := err.(*JobError); ok {
		return je.Recoverable
	}
	return !nonRecoverablePattern.MatchString(err.Error())
}
