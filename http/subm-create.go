package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/google/uuid"

	"github.com/codeclash/backend/auth"
	"github.com/codeclash/backend/httpjson"
	"github.com/codeclash/backend/judgesrvc"
)

type pasteEventJson struct {
	ByteSize int    `json:"byte_size"`
	Source   string `json:"source"`
}

type createSubmissionJson struct {
	CompetitorUuid string           `json:"competitor_uuid"`
	Code           string           `json:"code"`
	LangId         string           `json:"lang_id"`
	PasteEvents    []pasteEventJson `json:"paste_events"`
}

func (httpserver *HttpServer) createSubmission(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())

	claims, _ := r.Context().Value(auth.CtxJwtClaimsKey).(*auth.JwtClaims)
	if claims == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	matchUuid, err := uuid.Parse(chi.URLParam(r, "matchUuid"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var body createSubmissionJson
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	competitorUuid, err := uuid.Parse(body.CompetitorUuid)
	if err != nil {
		http.Error(w, "invalid competitor uuid", http.StatusBadRequest)
		return
	}
	if body.Code == "" {
		http.Error(w, "code must not be empty", http.StatusBadRequest)
		return
	}

	pastes := make([]judgesrvc.PasteObservation, len(body.PasteEvents))
	for i, p := range body.PasteEvents {
		pastes[i] = judgesrvc.PasteObservation{
			ByteSize: p.ByteSize,
			Source:   p.Source,
		}
	}

	subm, err := httpserver.judgeSrvc.SubmitSolution(
		r.Context(),
		matchUuid,
		competitorUuid,
		claims.UserUUID,
		body.Code,
		body.LangId,
		pastes,
	)
	if err != nil {
		httpjson.HandleError(logger, w, err)
		return
	}

	httpjson.WriteSuccessJson(w, struct {
		SubmUuid string `json:"subm_uuid"`
		Verdict  string `json:"verdict"`
	}{
		SubmUuid: subm.UUID.String(),
		Verdict:  string(subm.Verdict),
	})
}
