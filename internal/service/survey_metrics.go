package service

import (
	"math"
	"sort"

	"github.com/stemsi/websurvey-backend/internal/model"
)

// upsertResponse returns a new response list with in applied: an existing
// code gets its value replaced (and its time, if one was supplied), a new
// code is appended with a default time of 0. The result is sorted by code.
func upsertResponse(responses []model.Response, in model.SubmitResponseRequest) []model.Response {
	out := make([]model.Response, len(responses), len(responses)+1)
	copy(out, responses)

	idx := -1
	for i := range out {
		if out[i].QuestionCode == in.QuestionCode {
			idx = i
			break
		}
	}

	if idx >= 0 {
		out[idx].ValidResponse = in.ValidResponse
		if in.ResponseTime != nil {
			rt := *in.ResponseTime
			out[idx].ResponseTime = &rt
		}
	} else {
		var rt int64
		if in.ResponseTime != nil {
			rt = *in.ResponseTime
		}
		out = append(out, model.Response{
			QuestionCode:  in.QuestionCode,
			ValidResponse: in.ValidResponse,
			ResponseTime:  &rt,
		})
	}

	sortResponses(out)
	return out
}

// sortResponses orders responses by question code, byte-wise ascending.
func sortResponses(responses []model.Response) {
	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].QuestionCode < responses[j].QuestionCode
	})
}

// hasDuplicateCodes reports whether two responses share a question code.
func hasDuplicateCodes(responses []model.Response) bool {
	seen := make(map[string]struct{}, len(responses))
	for _, r := range responses {
		if _, dup := seen[r.QuestionCode]; dup {
			return true
		}
		seen[r.QuestionCode] = struct{}{}
	}
	return false
}

// computeMetrics derives completion metrics. Response times of 0 or less
// (or missing) are excluded from the average. A session reaching explicit
// completion is never a breakoff.
func computeMetrics(responses []model.Response) model.ResponseMetrics {
	var (
		nonresponse int
		dontKnow    int
		timeSum     int64
		timeCount   int
	)
	for _, r := range responses {
		if r.ValidResponse.IsUnanswered() {
			nonresponse++
		}
		if r.ValidResponse.IsDontKnow() {
			dontKnow++
		}
		if r.ResponseTime != nil && *r.ResponseTime > 0 {
			timeSum += *r.ResponseTime
			timeCount++
		}
	}

	var avg float64
	if timeCount > 0 {
		avg = float64(timeSum) / float64(timeCount)
	}

	return model.ResponseMetrics{
		IsBreakoff:       false,
		AvgResponseTime:  avg,
		ItemNonresponse:  nonresponse,
		DontKnowResponse: dontKnow,
	}
}

// computeTimeStats splits the tab totals over the number of questions on
// each tab. TimeConsumed and AvgResponseTime are filled in after the write.
func computeTimeStats(responses []model.Response, karakteristik, survei float64) model.TimeStats {
	var krCount, sCount int
	for _, r := range responses {
		if model.IsCharacteristicsQuestion(r.QuestionCode) {
			krCount++
		}
		if model.IsSurveyQuestion(r.QuestionCode) {
			sCount++
		}
	}

	stats := model.TimeStats{
		KarakteristikQuestions: krCount,
		SurveiQuestions:        sCount,
	}
	if krCount > 0 {
		stats.AvgResponseTimeKarakteristik = round2(karakteristik / float64(krCount))
	}
	if sCount > 0 {
		stats.AvgResponseTimeSurvei = round2(survei / float64(sCount))
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
