package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ErrUserNotFound is returned when a combined row is requested for an unknown user.
var ErrUserNotFound = errors.New("user not found")

// CombinedRow is one user's survey data flattened to column -> value.
type CombinedRow map[string]any

const combinedSheet = "Combined Data"

// Columns that precede and follow the question codes in a combined row.
var (
	combinedIdentityColumns = []string{"id", "email", "name"}
	combinedMetricColumns   = []string{"is_breakoff", "avg_response_time", "item_nonresponse", "dont_know_response"}
	combinedTimeColumns     = []string{"karakteristik", "survei"}
)

// CombinedDataService joins users, sessions and evaluations into flat rows
// for analysis.
type CombinedDataService struct {
	users       UserDirectory
	sessions    SessionArchive
	evaluations EvaluationArchive
	log         zerolog.Logger
}

// NewCombinedDataService creates a new CombinedDataService.
func NewCombinedDataService(users UserDirectory, sessions SessionArchive, evaluations EvaluationArchive, log zerolog.Logger) *CombinedDataService {
	return &CombinedDataService{
		users:       users,
		sessions:    sessions,
		evaluations: evaluations,
		log:         log.With().Str("component", "combined_data_service").Logger(),
	}
}

// GetCombinedData returns the combined row of a single user.
func (s *CombinedDataService) GetCombinedData(ctx context.Context, userID uuid.UUID) (CombinedRow, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	session, err := s.sessions.GetByUser(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("get session: %w", err)
	}

	evaluations, err := s.evaluations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	var evaluation *model.SurveyEvaluation
	if n := len(evaluations); n > 0 {
		// Listed newest first; the first evaluation a user made is reported.
		evaluation = &evaluations[n-1]
	}

	return combineRow(user, session, evaluation), nil
}

// GetAllCombinedData returns one combined row per user.
func (s *CombinedDataService) GetAllCombinedData(ctx context.Context) ([]CombinedRow, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	evaluations, err := s.evaluations.ListFirstPerUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}

	sessionByUser := make(map[uuid.UUID]*model.SurveySession, len(sessions))
	for i := range sessions {
		sessionByUser[sessions[i].UserID] = &sessions[i]
	}
	evaluationByUser := make(map[uuid.UUID]*model.SurveyEvaluation, len(evaluations))
	for i := range evaluations {
		evaluationByUser[evaluations[i].UserID] = &evaluations[i]
	}

	rows := make([]CombinedRow, 0, len(users))
	for i := range users {
		u := &users[i]
		rows = append(rows, combineRow(u, sessionByUser[u.ID], evaluationByUser[u.ID]))
	}
	return rows, nil
}

// ExportXLSX writes every combined row to w as a single-sheet workbook.
func (s *CombinedDataService) ExportXLSX(ctx context.Context, w io.Writer) error {
	rows, err := s.GetAllCombinedData(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", combinedSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(combinedSheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	columns := CombinedColumns(rows)
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for r, row := range rows {
		values := make([]any, len(columns))
		for i, c := range columns {
			values[i] = cellValue(row[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	s.log.Info().Int("rows", len(rows)).Msg("Combined data exported")
	return nil
}

// CombinedColumns returns the export column order: identity, catalog codes,
// metrics, time consumed, criteria, then any other key found in rows sorted.
func CombinedColumns(rows []CombinedRow) []string {
	columns := make([]string, 0, 64)
	columns = append(columns, combinedIdentityColumns...)
	columns = append(columns, model.QuestionCodes()...)
	columns = append(columns, combinedMetricColumns...)
	columns = append(columns, combinedTimeColumns...)
	for _, c := range model.EvaluationCriteria {
		columns = append(columns, c.Name)
	}

	known := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		known[c] = struct{}{}
	}
	var extra []string
	for _, row := range rows {
		for k := range row {
			if _, ok := known[k]; !ok {
				known[k] = struct{}{}
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(columns, extra...)
}

// combineRow merges in order: identity, responses, metrics, time consumed,
// evaluation answers. Later sources overwrite earlier keys.
func combineRow(user *model.User, session *model.SurveySession, evaluation *model.SurveyEvaluation) CombinedRow {
	row := CombinedRow{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	}

	if session != nil {
		for _, r := range session.Responses {
			if r.QuestionCode == "" {
				continue
			}
			row[r.QuestionCode] = r.ValidResponse.Flatten()
		}
		if m := session.Metrics; m != nil {
			row["is_breakoff"] = m.IsBreakoff
			row["avg_response_time"] = m.AvgResponseTime
			row["item_nonresponse"] = m.ItemNonresponse
			row["dont_know_response"] = m.DontKnowResponse
		}
		if tc := session.TimeConsumed; tc != nil {
			row["karakteristik"] = tc.Karakteristik
			row["survei"] = tc.Survei
		}
	}

	if evaluation != nil {
		for k, v := range evaluation.Answers {
			row[k] = v
		}
	}
	return row
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case uuid.UUID:
		return t.String()
	case string, bool, int, int64, float64:
		return t
	default:
		return fmt.Sprint(t)
	}
}
