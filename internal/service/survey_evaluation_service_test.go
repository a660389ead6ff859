package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/websurvey-backend/internal/lock"
	"github.com/stemsi/websurvey-backend/internal/model"
)

type evaluationFixture struct {
	svc         *SurveyEvaluationService
	evaluations *memEvaluations
	sessions    *memSessions
	users       *memUsers
}

func newEvaluationFixture() *evaluationFixture {
	evaluations := newMemEvaluations()
	sessions := newMemSessions()
	users := newMemUsers()
	return &evaluationFixture{
		svc:         NewSurveyEvaluationService(evaluations, sessions, users, lock.NewLocalLocker(time.Second), testLog),
		evaluations: evaluations,
		sessions:    sessions,
		users:       users,
	}
}

func (f *evaluationFixture) newEvaluation(t *testing.T, user uuid.UUID) uuid.UUID {
	t.Helper()
	res := f.svc.CreateEvaluation(context.Background(), user, nil)
	if !res.Success {
		t.Fatalf("create evaluation: %+v", res)
	}
	return res.Data.(*model.SurveyEvaluation).ID
}

func TestCreateEvaluationForSession(t *testing.T) {
	f := newEvaluationFixture()
	ctx := context.Background()
	user := uuid.New()

	session := &model.SurveySession{UserID: user, Status: model.SessionStatusCompleted}
	if err := f.sessions.Create(ctx, session); err != nil {
		t.Fatal(err)
	}

	if res := f.svc.CreateEvaluation(ctx, uuid.New(), &session.ID); res.Success || res.Message != MsgSessionNotFound {
		t.Errorf("foreign session = %+v", res)
	}
	missing := uuid.New()
	if res := f.svc.CreateEvaluation(ctx, user, &missing); res.Success || res.Reason != ReasonRejected {
		t.Errorf("missing session = %+v", res)
	}

	first := f.svc.CreateEvaluation(ctx, user, &session.ID)
	if !first.Success {
		t.Fatalf("create = %+v", first)
	}
	created := first.Data.(*model.SurveyEvaluation)
	if created.Completed || len(created.Answers) != 0 {
		t.Errorf("new evaluation = %+v", created)
	}
	if p := f.users.evaluationPointer(user); p == nil || *p != created.ID {
		t.Errorf("active evaluation pointer = %v", p)
	}

	second := f.svc.CreateEvaluation(ctx, user, &session.ID)
	if second.Success || second.Message != MsgEvaluationExists || second.Error != "" {
		t.Fatalf("duplicate create = %+v", second)
	}
	if existing := second.Data.(*model.SurveyEvaluation); existing.ID != created.ID {
		t.Errorf("duplicate data = %s, want %s", existing.ID, created.ID)
	}

	foreign := f.svc.CreateEvaluation(ctx, uuid.New(), &session.ID)
	if foreign.Success || foreign.Message != MsgEvaluationExists {
		t.Fatalf("duplicate create by another user = %+v", foreign)
	}
	if foreign.Data != nil {
		t.Errorf("another user's evaluation leaked: %+v", foreign.Data)
	}
}

func TestCreateEvaluationWithoutSessionIsUnbounded(t *testing.T) {
	f := newEvaluationFixture()
	user := uuid.New()
	a := f.newEvaluation(t, user)
	b := f.newEvaluation(t, user)
	if a == b {
		t.Fatal("expected two evaluations")
	}

	list := f.svc.GetUserEvaluations(context.Background(), user).Data.([]model.SurveyEvaluation)
	if len(list) != 2 || list[0].ID != b {
		t.Errorf("list order = %v, want newest first", list)
	}
}

func TestSubmitEvaluationAnswerRanges(t *testing.T) {
	f := newEvaluationFixture()
	ctx := context.Background()
	user := uuid.New()
	id := f.newEvaluation(t, user)

	res := f.svc.SubmitEvaluationAnswer(ctx, id, user, model.CriterionMentalEffort, float64(10))
	if res.Success || res.Message != "Invalid value for mental_effort" || res.Reason != ReasonRejected {
		t.Errorf("mental_effort=10 = %+v", res)
	}
	if stored, _ := f.evaluations.GetByID(ctx, id, user); len(stored.Answers) != 0 {
		t.Errorf("rejected answer was stored: %v", stored.Answers)
	}

	res = f.svc.SubmitEvaluationAnswer(ctx, id, user, model.CriterionMentalEffort, float64(9))
	if !res.Success {
		t.Errorf("mental_effort=9 = %+v", res)
	}

	res = f.svc.SubmitEvaluationAnswer(ctx, id, user, model.CriterionEnjoyment, float64(8))
	if res.Success {
		t.Error("enjoyment=8 accepted")
	}
	res = f.svc.SubmitEvaluationAnswer(ctx, id, user, model.CriterionOverallExperience, strings.Repeat("a", 1001))
	if res.Success {
		t.Error("1001-character overall_experience accepted")
	}
	res = f.svc.SubmitEvaluationAnswer(ctx, id, user, model.CriterionOverallExperience, 5)
	if res.Success {
		t.Error("numeric overall_experience accepted")
	}
}

func TestSubmitEvaluationAnswerCompletesOnLastCriterion(t *testing.T) {
	f := newEvaluationFixture()
	ctx := context.Background()
	user := uuid.New()
	id := f.newEvaluation(t, user)

	values := map[string]any{
		model.CriterionEaseOfUse:         float64(6),
		model.CriterionParticipationEase: float64(5),
		model.CriterionEnjoyment:         float64(7),
		model.CriterionDataSecurity:      float64(4),
		model.CriterionPrivacySafety:     float64(3),
		model.CriterionMentalEffort:      float64(2),
		model.CriterionOverallExperience: "Lancar",
	}
	for i, c := range model.EvaluationCriteria {
		res := f.svc.SubmitEvaluationAnswer(ctx, id, user, c.Name, values[c.Name])
		if !res.Success {
			t.Fatalf("submit %s: %+v", c.Name, res)
		}
		e := res.Data.(*model.SurveyEvaluation)
		last := i == len(model.EvaluationCriteria)-1
		if e.Completed != last {
			t.Fatalf("after %s completed = %v, want %v", c.Name, e.Completed, last)
		}
	}

	if p := f.users.evaluationPointer(user); p != nil {
		t.Errorf("active evaluation pointer = %v after completion", p)
	}

	res := f.svc.SubmitEvaluationAnswer(ctx, id, user, model.CriterionEaseOfUse, float64(1))
	if res.Success || res.Message != MsgEvaluationNotFoundOrCompleted {
		t.Errorf("submit after completion = %+v", res)
	}
	res = f.svc.SubmitEvaluationAnswer(ctx, id, user, model.CriterionEaseOfUse, float64(99))
	if res.Success || res.Message != MsgEvaluationNotFoundOrCompleted {
		t.Errorf("invalid value after completion = %+v", res)
	}
}

func TestSubmitEvaluationAnswerChecksEvaluationBeforeValue(t *testing.T) {
	f := newEvaluationFixture()
	ctx := context.Background()
	user := uuid.New()
	id := f.newEvaluation(t, user)

	cases := []struct {
		name string
		id   uuid.UUID
		user uuid.UUID
	}{
		{"missing evaluation", uuid.New(), user},
		{"foreign evaluation", id, uuid.New()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := f.svc.SubmitEvaluationAnswer(ctx, tc.id, tc.user, model.CriterionMentalEffort, float64(10))
			if res.Success || res.Message != MsgEvaluationNotFoundOrCompleted {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestSubmitEvaluationAnswerOverwrites(t *testing.T) {
	f := newEvaluationFixture()
	ctx := context.Background()
	user := uuid.New()
	id := f.newEvaluation(t, user)

	f.svc.SubmitEvaluationAnswer(ctx, id, user, model.CriterionEaseOfUse, float64(2))
	res := f.svc.SubmitEvaluationAnswer(ctx, id, user, model.CriterionEaseOfUse, float64(5))
	e := res.Data.(*model.SurveyEvaluation)
	if e.Answers[model.CriterionEaseOfUse] != float64(5) || len(e.Answers) != 1 {
		t.Errorf("answers = %v", e.Answers)
	}
}

func TestSubmitAnswerBulk(t *testing.T) {
	f := newEvaluationFixture()
	ctx := context.Background()
	user := uuid.New()
	id := f.newEvaluation(t, user)

	bad := map[string]any{
		model.CriterionEaseOfUse:    float64(3),
		model.CriterionDataSecurity: float64(0),
		model.CriterionEnjoyment:    "x",
	}
	res := f.svc.SubmitAnswer(ctx, id, user, bad)
	if res.Success || res.Message != "Invalid value for data_security" {
		t.Errorf("bulk with invalid pairs = %+v", res)
	}
	if stored, _ := f.evaluations.GetByID(ctx, id, user); len(stored.Answers) != 0 {
		t.Errorf("partial application: %v", stored.Answers)
	}

	partial := map[string]any{model.CriterionEaseOfUse: float64(3)}
	res = f.svc.SubmitAnswer(ctx, id, user, partial)
	if !res.Success || res.Data.(*model.SurveyEvaluation).Completed {
		t.Errorf("partial bulk = %+v", res)
	}

	// Seven keys complete the evaluation even without mental_effort.
	seven := map[string]any{
		model.CriterionEaseOfUse:         float64(1),
		model.CriterionParticipationEase: float64(2),
		model.CriterionEnjoyment:         float64(3),
		model.CriterionDataSecurity:      float64(4),
		model.CriterionPrivacySafety:     float64(5),
		model.CriterionOverallExperience: "ok",
		"extra_question":                 float64(6),
	}
	res = f.svc.SubmitAnswer(ctx, id, user, seven)
	if !res.Success || !res.Data.(*model.SurveyEvaluation).Completed {
		t.Errorf("seven-key bulk = %+v", res)
	}

	res = f.svc.SubmitAnswer(ctx, id, user, partial)
	if res.Success || res.Message != MsgEvaluationNotFoundOrCompleted {
		t.Errorf("bulk after completion = %+v", res)
	}
}

func TestUpdateEvaluation(t *testing.T) {
	f := newEvaluationFixture()
	ctx := context.Background()
	user := uuid.New()
	id := f.newEvaluation(t, user)

	bad := model.EvaluationPatch{Answers: map[string]any{model.CriterionMentalEffort: float64(12)}}
	if res := f.svc.UpdateEvaluation(ctx, id, user, bad); res.Success {
		t.Errorf("invalid patch accepted: %+v", res)
	}

	done := true
	res := f.svc.UpdateEvaluation(ctx, id, user, model.EvaluationPatch{
		Answers:   map[string]any{model.CriterionMentalEffort: float64(8)},
		Completed: &done,
	})
	if !res.Success || !res.Data.(*model.SurveyEvaluation).Completed {
		t.Fatalf("patch = %+v", res)
	}

	res = f.svc.UpdateEvaluation(ctx, id, user, model.EvaluationPatch{Answers: map[string]any{}})
	if res.Success || res.Message != MsgEvaluationNotFoundOrCompleted {
		t.Errorf("patch after completion = %+v", res)
	}
}

func TestEvaluationLookupsAndDelete(t *testing.T) {
	f := newEvaluationFixture()
	ctx := context.Background()
	user := uuid.New()

	session := &model.SurveySession{UserID: user, Status: model.SessionStatusInProgress}
	_ = f.sessions.Create(ctx, session)
	id := f.svc.CreateEvaluation(ctx, user, &session.ID).Data.(*model.SurveyEvaluation).ID

	if res := f.svc.GetEvaluation(ctx, id, uuid.New()); res.Reason != ReasonNotFound {
		t.Errorf("foreign get = %+v", res)
	}
	if res := f.svc.GetEvaluationBySessionID(ctx, session.ID, user); !res.Success {
		t.Errorf("by session = %+v", res)
	}
	if res := f.svc.GetEvaluationBySessionID(ctx, session.ID, uuid.New()); res.Message != MsgEvaluationNotFoundForSession {
		t.Errorf("foreign by session = %+v", res)
	}

	if res := f.svc.DeleteEvaluation(ctx, id, user); !res.Success {
		t.Errorf("delete = %+v", res)
	}
	if p := f.users.evaluationPointer(user); p != nil {
		t.Errorf("pointer = %v after delete", p)
	}
	if res := f.svc.DeleteEvaluation(ctx, id, user); res.Reason != ReasonNotFound {
		t.Errorf("second delete = %+v", res)
	}
}
