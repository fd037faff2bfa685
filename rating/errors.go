package rating

import (
	"net/http"

	"github.com/codeclash/backend/srvcerror"
)

const ErrCodeRatingInputMismatch = "rating_input_mismatch"

func ErrRatingInputMismatch() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeRatingInputMismatch,
		"Ratings and placements must have the same length",
	).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeTooFewCompetitors = "too_few_competitors"

func ErrTooFewCompetitors() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeTooFewCompetitors,
		"A rated match needs at least two competitors",
	).SetHttpStatusCode(http.StatusBadRequest)
}
