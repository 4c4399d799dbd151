package repository

import (
	"fmt"
	"strings"
)

// Cache key layout. Identifier values are used verbatim (case-sensitive);
// callers that want case-insensitive lookup must normalise upstream. Derived
// view keys are deliberately coarse so one pattern sweep clears them all.
const (
	usersListPattern   = "users:list:*"
	usersSearchPattern = "users:search:*"
)

func userIDKey(id string) string {
	return "user:id:" + id
}

func userUsernameKey(username string) string {
	return "user:username:" + username
}

func userEmailKey(email string) string {
	return "user:email:" + email
}

func usersListKey(limit, offset int) string {
	return fmt.Sprintf("users:list:%d:%d", limit, offset)
}

func usersSearchKey(term string) string {
	return "users:search:" + normaliseSearchTerm(term)
}

func profileKey(userID string) string {
	return "profile:user:" + userID
}

// normaliseSearchTerm folds a search term so equivalent queries share one
// derived view entry. Matches the case-insensitive search in the durable
// repository.
func normaliseSearchTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
