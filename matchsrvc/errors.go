package matchsrvc

import (
	"net/http"

	"github.com/codeclash/backend/srvcerror"
)

const ErrCodeMatchNotFound = "match_not_found"

func ErrMatchNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeMatchNotFound,
		"Match not found",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeSubmNotFound = "submission_not_found"

func ErrSubmNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSubmNotFound,
		"Submission not found",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeJudgmentNotFound = "judgment_not_found"

func ErrJudgmentNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeJudgmentNotFound,
		"No judgment has been recorded for this match yet",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeCompetitorNotFound = "competitor_not_found"

func ErrCompetitorNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeCompetitorNotFound,
		"Competitor not found in this match",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeCompetitorUserMismatch = "competitor_user_mismatch"

func ErrCompetitorUserMismatch() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeCompetitorUserMismatch,
		"Competitor does not belong to the authenticated user",
	).SetHttpStatusCode(http.StatusForbidden)
}

const ErrCodeMatchNotOpen = "match_not_open"

func ErrMatchNotOpen() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeMatchNotOpen,
		"Match is not accepting submissions",
	).SetHttpStatusCode(http.StatusBadRequest)
}
