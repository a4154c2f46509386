package services

import "errors"

var (
	// ErrRequestNotFound means the referenced match request does not exist
	ErrRequestNotFound = errors.New("match request not found")

	// ErrUnauthorized means the caller does not own the request
	ErrUnauthorized = errors.New("request does not belong to caller")

	// ErrNotSearching means the request already reached a terminal status
	ErrNotSearching = errors.New("match request is no longer searching")

	// ErrAssignmentConflict means a concurrent invocation claimed one of
	// the requests between search and commit. Never user-visible; the
	// caller treats it as "no candidate this attempt".
	ErrAssignmentConflict = errors.New("assignment aborted: request already claimed")
)
