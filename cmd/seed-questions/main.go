package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prepnova/mocktest-backend/internal/config"
	"github.com/prepnova/mocktest-backend/internal/database"
	"github.com/prepnova/mocktest-backend/internal/logger"
	"github.com/prepnova/mocktest-backend/internal/model"
	"github.com/prepnova/mocktest-backend/internal/repository"
	"github.com/xuri/excelize/v2"
)

// Imports a question bank from an xlsx workbook into one test.
//
// Expected columns, one question per row, first row is a header:
//
//	A  subject (PHYSICS, CHEMISTRY, MATHEMATICS)
//	B  type (MCQ, NUMERICAL)
//	C  question text
//	D  numerical answer (NUMERICAL only)
//	E+ option texts (MCQ only); prefix the correct one with "*"
func main() {
	var filePath string
	var sheetName string
	var testIDArg string
	var title string
	var duration int
	flag.StringVar(&filePath, "file", "", "Path to the xlsx workbook")
	flag.StringVar(&sheetName, "sheet", "Sheet1", "Sheet to import")
	flag.StringVar(&testIDArg, "test", "", "Existing test id (creates a new test when empty)")
	flag.StringVar(&title, "title", "", "Title for the new test")
	flag.IntVar(&duration, "duration", 180, "Duration in minutes for the new test")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if filePath == "" {
		log.Fatal().Msg("-file is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	testRepo := repository.NewTestRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	// ─── Resolve Target Test ───────────────────────────────────────────
	var testID uuid.UUID
	if testIDArg != "" {
		testID, err = uuid.Parse(testIDArg)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid test id")
		}
		if _, err := testRepo.GetByID(ctx, testID); err != nil {
			log.Fatal().Err(err).Msg("Test not found")
		}
	} else {
		if title == "" {
			log.Fatal().Msg("-title is required when creating a new test")
		}
		t := &model.Test{
			Title:           title,
			DurationMinutes: duration,
			StartDate:       time.Now(),
		}
		if err := testRepo.Create(ctx, t); err != nil {
			log.Fatal().Err(err).Msg("Failed to create test")
		}
		testID = t.ID
		fmt.Printf("Created test %q with ID: %s\n", t.Title, t.ID)
	}

	// ─── Read Workbook ─────────────────────────────────────────────────
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open workbook")
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read sheet")
	}

	orderBySubject := make(map[model.Subject]int)
	successCount := 0
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		rowNum := i + 1

		req, err := parseRow(row)
		if err != nil {
			fmt.Printf("Row %d: %v\n", rowNum, err)
			continue
		}

		orderBySubject[req.Subject]++
		req.OrderNum = orderBySubject[req.Subject]

		question, err := req.ToQuestion(testID)
		if err != nil {
			fmt.Printf("Row %d: %v\n", rowNum, err)
			continue
		}
		if err := questionRepo.Create(ctx, question); err != nil {
			fmt.Printf("Row %d: insert failed: %v\n", rowNum, err)
			continue
		}
		successCount++
		if successCount%25 == 0 {
			fmt.Printf("Imported %d questions...\n", successCount)
		}
	}

	fmt.Printf("\nImport completed! %d/%d questions added to test %s.\n",
		successCount, len(rows)-1, testID)
}

// parseRow turns one spreadsheet row into an authoring request. Cross
// field validation stays in ToQuestion.
func parseRow(row []string) (*model.CreateQuestionRequest, error) {
	if len(row) < 3 {
		return nil, fmt.Errorf("expected at least 3 columns, got %d", len(row))
	}

	req := &model.CreateQuestionRequest{
		Subject:      model.Subject(strings.ToUpper(strings.TrimSpace(cell(row, 0)))),
		QuestionType: model.QuestionType(strings.ToUpper(strings.TrimSpace(cell(row, 1)))),
		QuestionText: strings.TrimSpace(cell(row, 2)),
	}
	if !req.Subject.Valid() {
		return nil, fmt.Errorf("unknown subject %q", cell(row, 0))
	}
	if req.QuestionText == "" {
		return nil, fmt.Errorf("question text is empty")
	}

	switch req.QuestionType {
	case model.QuestionTypeNumerical:
		answer, err := strconv.ParseFloat(strings.TrimSpace(cell(row, 3)), 64)
		if err != nil {
			return nil, fmt.Errorf("bad numerical answer %q", cell(row, 3))
		}
		req.NumericalAnswer = &answer

	case model.QuestionTypeMCQ:
		for col := 4; col < len(row); col++ {
			text := strings.TrimSpace(row[col])
			if text == "" {
				continue
			}
			opt := model.CreateOptionRequest{Text: text}
			if strings.HasPrefix(text, "*") {
				opt.Text = strings.TrimSpace(strings.TrimPrefix(text, "*"))
				opt.IsCorrect = true
			}
			req.Options = append(req.Options, opt)
		}

	default:
		return nil, fmt.Errorf("unknown question type %q", cell(row, 1))
	}

	return req, nil
}

// cell reads a column that may be absent on short rows.
func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}
