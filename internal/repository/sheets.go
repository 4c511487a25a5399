package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Najnomics/lockedin-api/internal/model"
)

// Column layout of the user sheet, one row per user:
// A=id B=name C=email D=phone E=goals F=reminder_times G=timezone H=created_at I=active.
// Goals and reminder times are pipe-joined in their cells.
const (
	sheetUserRange        = "Sheet1!A:I"
	sheetListSep          = "|"
	sheetCreatedAtLayout  = time.RFC3339
	reminderTimesColumn   = "F"
	activeColumn          = "I"
	sheetHeaderRowPresent = 1 // data starts on row 2
)

type userSheetsRepository struct {
	service       *sheets.Service
	spreadsheetID string
}

// sheetsConfig holds Google Sheets credentials configuration.
type sheetsConfig struct {
	CredentialsPath string `env:"GOOGLE_CREDENTIALS_PATH"`
	SpreadsheetID   string `env:"GOOGLE_SPREADSHEET_ID"`
}

func (c *sheetsConfig) validate() error {
	if c.CredentialsPath == "" {
		return fmt.Errorf("missing GOOGLE_CREDENTIALS_PATH environment variable")
	}
	if c.SpreadsheetID == "" {
		return fmt.Errorf("missing GOOGLE_SPREADSHEET_ID environment variable")
	}
	return nil
}

// NewUserSheetsRepository creates a UserRepository backed by a Google
// spreadsheet. It is a lightweight alternative to MongoDB for deployments
// that keep the user list in a shared sheet.
func NewUserSheetsRepository(ctx context.Context, logger *zerolog.Logger) UserRepository {
	cfg, err := env.ParseAs[sheetsConfig]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate Google Sheets configuration")
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create Google Sheets service")
	}

	return &userSheetsRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
	}
}

func (r *userSheetsRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if _, _, err := r.findRowByPhone(ctx, user.Phone); err == nil {
		return nil, ErrDuplicatePhone
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user.CreatedAt = time.Now().UTC()

	row := []interface{}{
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		strings.Join(user.Goals, sheetListSep),
		strings.Join(user.ReminderTimes, sheetListSep),
		user.Timezone,
		user.CreatedAt.Format(sheetCreatedAtLayout),
		strconv.FormatBool(user.Active),
	}

	_, err := r.service.Spreadsheets.Values.
		Append(r.spreadsheetID, sheetUserRange, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("append user row: %w", err)
	}

	return user, nil
}

func (r *userSheetsRepository) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	user, _, err := r.findRowByPhone(ctx, phone)
	return user, err
}

func (r *userSheetsRepository) UpdateReminderTimes(
	ctx context.Context,
	phone string,
	times []string,
) (*model.User, error) {
	user, rowNum, err := r.findRowByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	if err := r.updateCell(ctx, reminderTimesColumn, rowNum, strings.Join(times, sheetListSep)); err != nil {
		return nil, err
	}

	user.ReminderTimes = append([]string(nil), times...)
	return user, nil
}

func (r *userSheetsRepository) SetActive(ctx context.Context, phone string, active bool) (*model.User, error) {
	user, rowNum, err := r.findRowByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	if err := r.updateCell(ctx, activeColumn, rowNum, strconv.FormatBool(active)); err != nil {
		return nil, err
	}

	user.Active = active
	return user, nil
}

func (r *userSheetsRepository) ListActiveUsers(ctx context.Context) ([]*model.User, error) {
	resp, err := r.service.Spreadsheets.Values.
		Get(r.spreadsheetID, sheetUserRange).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read user rows: %w", err)
	}

	var users []*model.User
	for i, row := range resp.Values {
		if i < sheetHeaderRowPresent {
			continue
		}
		active, _ := strconv.ParseBool(cell(row, 8))
		if !active {
			continue
		}
		users = append(users, decodeRow(row))
	}
	return users, nil
}

// findRowByPhone scans the sheet for the user's row. Returns the decoded user
// and its 1-based sheet row number.
func (r *userSheetsRepository) findRowByPhone(ctx context.Context, phone string) (*model.User, int, error) {
	resp, err := r.service.Spreadsheets.Values.
		Get(r.spreadsheetID, sheetUserRange).
		Context(ctx).
		Do()
	if err != nil {
		return nil, 0, fmt.Errorf("read user rows: %w", err)
	}

	for i, row := range resp.Values {
		if i < sheetHeaderRowPresent {
			continue
		}
		if cell(row, 3) != phone {
			continue
		}
		return decodeRow(row), i + 1, nil
	}

	return nil, 0, ErrUserNotFound
}

func (r *userSheetsRepository) updateCell(ctx context.Context, column string, rowNum int, value string) error {
	cellRange := fmt.Sprintf("Sheet1!%s%d", column, rowNum)

	_, err := r.service.Spreadsheets.Values.
		Update(r.spreadsheetID, cellRange, &sheets.ValueRange{Values: [][]interface{}{{value}}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update cell %s: %w", cellRange, err)
	}
	return nil
}

func decodeRow(row []interface{}) *model.User {
	user := &model.User{
		ID:            cell(row, 0),
		Name:          cell(row, 1),
		Email:         cell(row, 2),
		Phone:         cell(row, 3),
		Goals:         splitList(cell(row, 4)),
		ReminderTimes: splitList(cell(row, 5)),
		Timezone:      cell(row, 6),
	}
	if createdAt, err := time.Parse(sheetCreatedAtLayout, cell(row, 7)); err == nil {
		user.CreatedAt = createdAt
	}
	user.Active, _ = strconv.ParseBool(cell(row, 8))
	return user
}

func cell(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	s, _ := row[idx].(string)
	return s
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, sheetListSep)
}
