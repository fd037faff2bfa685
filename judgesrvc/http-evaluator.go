package judgesrvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/codeclash/backend/matchsrvc"
)

// HttpEvaluator calls an external evaluator service over HTTP. The
// service runs submissions in its own sandbox; this client only maps the
// wire contract onto the CodeEvaluator interface and classifies
// failures as transient or fatal.
type HttpEvaluator struct {
	client  *http.Client
	baseUrl string
}

func NewHttpEvaluator(baseUrl string) *HttpEvaluator {
	return &HttpEvaluator{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseUrl: baseUrl,
	}
}

type evalRequest struct {
	Code   string `json:"code"`
	LangId string `json:"lang_id"`
}

type evalResponse struct {
	Verdict   string `json:"verdict"`
	RuntimeMs int    `json:"runtime_ms"`
	MemoryMb  int    `json:"memory_mb"`
}

func (e *HttpEvaluator) Evaluate(ctx context.Context, code string, langID string) (matchsrvc.Verdict, matchsrvc.ExecStats, error) {
	body, err := json.Marshal(evalRequest{Code: code, LangId: langID})
	if err != nil {
		return "", matchsrvc.ExecStats{}, Fatal(fmt.Errorf("failed to marshal eval request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseUrl+"/evaluate", bytes.NewReader(body))
	if err != nil {
		return "", matchsrvc.ExecStats{}, Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		// network failure or timeout, worth another attempt
		return "", matchsrvc.ExecStats{}, Transient(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return "", matchsrvc.ExecStats{}, Transient(fmt.Errorf("evaluator returned %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return "", matchsrvc.ExecStats{}, Fatal(fmt.Errorf("evaluator returned %d", resp.StatusCode))
	}

	var evalResp evalResponse
	if err := json.NewDecoder(resp.Body).Decode(&evalResp); err != nil {
		return "", matchsrvc.ExecStats{}, Transient(fmt.Errorf("failed to decode eval response: %w", err))
	}

	verdict := matchsrvc.Verdict(evalResp.Verdict)
	switch verdict {
	case matchsrvc.VerdictPassed, matchsrvc.VerdictFailed, matchsrvc.VerdictDisqualified:
	default:
		return "", matchsrvc.ExecStats{}, Fatal(fmt.Errorf("evaluator returned unknown verdict %q", evalResp.Verdict))
	}

	stats := matchsrvc.ExecStats{
		RuntimeMs: evalResp.RuntimeMs,
		MemoryMb:  evalResp.MemoryMb,
	}
	return verdict, stats, nil
}
