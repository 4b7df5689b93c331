package services

import (
	"strings"
	"time"

	"campusquiz/models"
)

// MatcherConfig describes how student identifiers are derived from emails.
// The domain suffix marks student accounts; RollPrefixLength characters are
// dropped from the front of the local part to obtain the roll number (e.g.
// "bt21cs045@student.campus.edu" -> "21cs045" with a prefix length of 2).
type MatcherConfig struct {
	StudentEmailDomain string
	RollPrefixLength   int
}

// DeriveIdentifier lower-cases the email and reduces it to the matching
// identifier: the roll number for student addresses, the full email for
// everyone else.
func DeriveIdentifier(email string, cfg MatcherConfig) (identifier string, isStudent bool) {
	emailLower := strings.ToLower(strings.TrimSpace(email))
	domain := strings.ToLower(cfg.StudentEmailDomain)

	if domain != "" && strings.HasSuffix(emailLower, domain) {
		prefix := strings.TrimSuffix(emailLower, domain)
		if len(prefix) > cfg.RollPrefixLength {
			prefix = prefix[cfg.RollPrefixLength:]
		}
		return prefix, true
	}
	return emailLower, false
}

// MatchesCriteria reports whether a caller matches a quiz's assignment
// criteria. Blank criteria means open enrollment. Tokens are comma
// separated, trimmed and compared case-insensitively. Students match on
// roll-number equality or cohort prefix (token "21cs" matches "21cs045"),
// or on their exact email; everyone else matches on exact email only.
func MatchesCriteria(identifier, email string, isStudent bool, criteria string) bool {
	if strings.TrimSpace(criteria) == "" {
		return true
	}

	emailLower := strings.ToLower(strings.TrimSpace(email))
	for _, token := range strings.Split(strings.ToLower(criteria), ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if isStudent {
			if identifier == token || strings.HasPrefix(identifier, token) || emailLower == token {
				return true
			}
		} else if emailLower == token {
			return true
		}
	}
	return false
}

// EligibleQuizzes filters published, currently active quizzes down to those
// assigned to the given email. Deterministic and side-effect free; an
// empty identifier yields an empty result.
func EligibleQuizzes(email string, quizzes []models.Quiz, now time.Time, cfg MatcherConfig) []models.Quiz {
	identifier, isStudent := DeriveIdentifier(email, cfg)
	if identifier == "" {
		return []models.Quiz{}
	}

	assigned := []models.Quiz{}
	for _, quiz := range quizzes {
		if !quiz.ActiveAt(now) {
			continue
		}
		if MatchesCriteria(identifier, email, isStudent, quiz.AssignmentCriteria) {
			assigned = append(assigned, quiz)
		}
	}
	return assigned
}
