package api

import (
	"net/http"
	"strconv"

	"github.com/acelee0621/memenote/internal/api/respond"
)

// userHeader carries the caller's numeric identity. Absent header resolves
// to user 1 so single-user deployments work without any auth plumbing.
const userHeader = "X-User-ID"

const defaultUserID int64 = 1

// userFromRequest resolves the calling user for a request. It returns false
// after writing an error response when the header is present but not a
// positive integer.
func userFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get(userHeader)
	if raw == "" {
		return defaultUserID, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respond.WriteBadRequest(w, "X-User-ID must be a positive integer")
		return 0, false
	}
	return id, true
}
