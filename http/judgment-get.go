package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/google/uuid"

	"github.com/codeclash/backend/httpjson"
)

type judgmentJson struct {
	MatchUuid        string `json:"match_uuid"`
	Summary          string `json:"summary"`
	ExplainMd        string `json:"explain_md"`
	ScoreCorrectness int    `json:"score_correctness"`
	ScorePerf        int    `json:"score_perf"`
	ScoreQuality     int    `json:"score_quality"`
}

func (httpserver *HttpServer) getJudgment(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())

	matchUuid, err := uuid.Parse(chi.URLParam(r, "matchUuid"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	judgment, err := httpserver.judgeSrvc.GetJudgment(r.Context(), matchUuid)
	if err != nil {
		httpjson.HandleError(logger, w, err)
		return
	}

	httpjson.WriteSuccessJson(w, judgmentJson{
		MatchUuid:        judgment.MatchUUID.String(),
		Summary:          judgment.Summary,
		ExplainMd:        judgment.ExplainMd,
		ScoreCorrectness: judgment.ScoreCorrectness,
		ScorePerf:        judgment.ScorePerf,
		ScoreQuality:     judgment.ScoreQuality,
	})
}
