package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Najnomics/lockedin-api/internal/mailer"
	"github.com/Najnomics/lockedin-api/internal/model"
	"github.com/Najnomics/lockedin-api/internal/planner"
	"github.com/Najnomics/lockedin-api/internal/repository"
	"github.com/Najnomics/lockedin-api/internal/scheduler"
)

// UserUsecase defines the business logic for signup, reminder preferences and
// the reminder schedule derived from them.
type UserUsecase interface {
	// SignUp registers a user, sends the welcome email and schedules daily
	// reminders. Signup succeeds even when the email or scheduling sub-step
	// fails; the result reports each sub-step's outcome.
	SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error)

	// GetUserByPhone returns the user registered under phone.
	GetUserByPhone(ctx context.Context, phone string) (*model.User, error)

	// UpdateReminderTimes persists new reminder times and replaces the user's
	// scheduled jobs with a freshly computed set.
	UpdateReminderTimes(ctx context.Context, phone string, times []string) (*ScheduleReport, error)

	// DeactivateUser marks the user inactive and removes all their jobs.
	DeactivateUser(ctx context.Context, phone string) error

	// RestoreSchedules re-plans every active user's reminders. Called once at
	// startup so jobs survive a process restart; there is no catch-up for
	// occurrences missed while the process was down.
	RestoreSchedules(ctx context.Context) error

	// ListScheduledJobs returns a snapshot of every scheduled reminder job.
	ListScheduledJobs() []scheduler.JobInfo

	// SendTestMessage delivers an ad-hoc WhatsApp message to phone.
	SendTestMessage(ctx context.Context, phone, message string) error
}

// ReminderScheduler is the scheduling engine surface the usecase drives.
// scheduler.Scheduler implements it.
type ReminderScheduler interface {
	ApplyPlan(phone, destination string, entries []planner.Entry) error
	RemoveAllForUser(phone string)
	Jobs() []scheduler.JobInfo
}

// MessageSender sends a single outbound message. gateway.WhatsAppGateway
// implements it.
type MessageSender interface {
	Send(ctx context.Context, to, body string) error
}

// SignUpParams defines the parameters for user signup.
type SignUpParams struct {
	Name          string
	Email         string
	Phone         string
	Goals         []string
	ReminderTimes []string
	Timezone      string
}

// SignUpResult reports the outcome of each signup sub-step.
type SignUpResult struct {
	User             *model.User
	WelcomeEmailSent bool
	WelcomeEmailErr  string
	JobsScheduled    int
	SkippedPairs     []string
	SchedulingErr    string
}

// ScheduleReport describes the job set installed after a reschedule.
type ScheduleReport struct {
	User          *model.User
	JobsScheduled int
	SkippedPairs  []string
}

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrNoReminderPairs   = errors.New("no goal/reminder-time pairs to schedule")
)

type userUsecase struct {
	userRepo  repository.UserRepository
	mailer    mailer.WelcomeMailer
	sender    MessageSender
	scheduler ReminderScheduler
	logger    *zerolog.Logger
}

// NewUserUsecase creates a new instance of UserUsecase.
func NewUserUsecase(
	userRepo repository.UserRepository,
	welcomeMailer mailer.WelcomeMailer,
	sender MessageSender,
	reminderScheduler ReminderScheduler,
	logger *zerolog.Logger,
) UserUsecase {
	return &userUsecase{
		userRepo:  userRepo,
		mailer:    welcomeMailer,
		sender:    sender,
		scheduler: reminderScheduler,
		logger:    logger,
	}
}

func (u *userUsecase) SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error) {
	timezone := params.Timezone
	if timezone == "" {
		timezone = model.DefaultTimezone
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		ID:            uuid.NewString(),
		Name:          params.Name,
		Email:         params.Email,
		Phone:         params.Phone,
		Goals:         params.Goals,
		ReminderTimes: params.ReminderTimes,
		Timezone:      timezone,
		Active:        true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicatePhone) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	result := &SignUpResult{User: user}

	if err := u.mailer.SendWelcome(user.Email, user.Name, user.Goals, user.ReminderTimes, user.Phone); err != nil {
		u.logger.Warn().Err(err).Str("email", user.Email).Msg("failed to send welcome email")
		result.WelcomeEmailErr = err.Error()
	} else {
		result.WelcomeEmailSent = true
		u.logger.Info().Str("email", user.Email).Msg("welcome email sent")
	}

	scheduled, skipped, err := u.planAndSchedule(user)
	result.JobsScheduled = scheduled
	result.SkippedPairs = skipped
	if err != nil {
		u.logger.Warn().Err(err).Str("phone", user.Phone).Msg("failed to schedule reminders")
		result.SchedulingErr = err.Error()
	}

	u.logger.Info().
		Str("phone", user.Phone).
		Int("jobs", scheduled).
		Msg("user signed up")

	return result, nil
}

func (u *userUsecase) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	user, err := u.userRepo.GetUserByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

func (u *userUsecase) UpdateReminderTimes(
	ctx context.Context,
	phone string,
	times []string,
) (*ScheduleReport, error) {
	user, err := u.userRepo.UpdateReminderTimes(ctx, phone, times)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	scheduled, skipped, err := u.planAndSchedule(user)
	if err != nil {
		return nil, err
	}

	u.logger.Info().
		Str("phone", phone).
		Int("jobs", scheduled).
		Msg("reminder times updated")

	return &ScheduleReport{
		User:          user,
		JobsScheduled: scheduled,
		SkippedPairs:  skipped,
	}, nil
}

func (u *userUsecase) DeactivateUser(ctx context.Context, phone string) error {
	if _, err := u.userRepo.SetActive(ctx, phone, false); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	u.scheduler.RemoveAllForUser(phone)
	u.logger.Info().Str("phone", phone).Msg("user deactivated, reminders removed")
	return nil
}

func (u *userUsecase) RestoreSchedules(ctx context.Context) error {
	users, err := u.userRepo.ListActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}

	restored := 0
	for _, user := range users {
		if _, _, err := u.planAndSchedule(user); err != nil {
			u.logger.Warn().Err(err).Str("phone", user.Phone).Msg("failed to restore schedule")
			continue
		}
		restored++
	}

	u.logger.Info().Int("users", restored).Msg("reminder schedules restored")
	return nil
}

func (u *userUsecase) ListScheduledJobs() []scheduler.JobInfo {
	return u.scheduler.Jobs()
}

func (u *userUsecase) SendTestMessage(ctx context.Context, phone, message string) error {
	return u.sender.Send(ctx, phone, message)
}

// planAndSchedule runs the planner over the user's current goal/time pairs and
// replaces the user's job set with the result. Malformed pairs are skipped and
// reported; they never abort the rest of the batch.
func (u *userUsecase) planAndSchedule(user *model.User) (scheduled int, skipped []string, err error) {
	if len(user.Goals) == 0 || len(user.ReminderTimes) == 0 {
		return 0, nil, ErrNoReminderPairs
	}

	offset, err := planner.ParseOffset(user.Timezone)
	if err != nil {
		return 0, nil, fmt.Errorf("plan reminders: %w", err)
	}

	entries, skippedErrs := planner.Plan(user.Goals, user.ReminderTimes, offset)
	for _, serr := range skippedErrs {
		u.logger.Warn().Err(serr).Str("phone", user.Phone).Msg("skipping malformed reminder pair")
		skipped = append(skipped, serr.Error())
	}

	if err := u.scheduler.ApplyPlan(user.Phone, user.Phone, entries); err != nil {
		return 0, skipped, err
	}

	return len(entries), skipped, nil
}
