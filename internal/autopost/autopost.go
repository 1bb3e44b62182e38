// Package autopost manages the scheduled-posting control state. The posting
// itself runs server-side; this side validates the configuration, keeps the
// RUNNING/STOPPED state, and pushes start/stop to the gateway.
package autopost

import (
	"context"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "github.com/hotshotfinger/geprekpos/backend/internal/errors"
	"github.com/hotshotfinger/geprekpos/backend/internal/gateway"
	"github.com/hotshotfinger/geprekpos/backend/internal/logging"
	"github.com/hotshotfinger/geprekpos/backend/internal/models"
)

const (
	minInterval = 10   // seconds
	maxInterval = 3600 // one hour
)

var timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ConfigObjectID is the id of the singleton autopost record on the remote
// store.
const ConfigObjectID = "current"

// State is the slice of the store holding the control panel state.
type State interface {
	AutoPost() (models.AutoPostConfig, models.AutoPostStatus)
	SetAutoPostConfig(models.AutoPostConfig)
	SetAutoPostStatus(models.AutoPostStatus)
}

// Pusher is the slice of the gateway used to push control changes.
type Pusher interface {
	Update(ctx context.Context, table, objectID string, fields, out interface{}) error
}

// Service validates and applies control panel changes.
type Service struct {
	store State
	gw    Pusher
	log   *logrus.Entry
}

// NewService creates an autopost Service.
func NewService(store State, gw Pusher) *Service {
	return &Service{
		store: store,
		gw:    gw,
		log:   logging.WithComponent("autopost"),
	}
}

// Get returns the current configuration and status.
func (s *Service) Get() (models.AutoPostConfig, models.AutoPostStatus) {
	return s.store.AutoPost()
}

// SetConfig validates and stores a new configuration. Rejected while the
// bot is running, matching the control panel which locks the form.
func (s *Service) SetConfig(cfg models.AutoPostConfig) error {
	if _, status := s.store.AutoPost(); status == models.AutoPostRunning {
		return apperrors.New(apperrors.ErrAutoPostConfig, "stop the bot before changing its configuration")
	}
	if err := Validate(cfg); err != nil {
		return err
	}
	s.store.SetAutoPostConfig(cfg)
	return nil
}

// Start validates the stored configuration, pushes the running state to the
// gateway and flips the local status.
func (s *Service) Start(ctx context.Context) error {
	cfg, status := s.store.AutoPost()
	if status == models.AutoPostRunning {
		return apperrors.New(apperrors.ErrAutoPostConfig, "bot is already running")
	}
	if err := Validate(cfg); err != nil {
		return err
	}

	body := map[string]interface{}{
		"caption":   cfg.Caption,
		"interval":  cfg.Interval,
		"startTime": cfg.StartTime,
		"endTime":   cfg.EndTime,
		"groupLink": cfg.GroupLink,
		"status":    string(models.AutoPostRunning),
	}
	if err := s.gw.Update(ctx, gateway.TableAutoPost, ConfigObjectID, body, nil); err != nil {
		return apperrors.Wrap(apperrors.ErrGatewayRejected, "failed to start auto post", err)
	}

	s.store.SetAutoPostStatus(models.AutoPostRunning)
	s.log.WithFields(logrus.Fields{"interval": cfg.Interval}).Info("auto post started")
	return nil
}

// Stop pushes the stopped state to the gateway and flips the local status.
func (s *Service) Stop(ctx context.Context) error {
	if _, status := s.store.AutoPost(); status == models.AutoPostStopped {
		return apperrors.New(apperrors.ErrAutoPostConfig, "bot is not running")
	}

	body := map[string]interface{}{
		"status": string(models.AutoPostStopped),
	}
	if err := s.gw.Update(ctx, gateway.TableAutoPost, ConfigObjectID, body, nil); err != nil {
		return apperrors.Wrap(apperrors.ErrGatewayRejected, "failed to stop auto post", err)
	}

	s.store.SetAutoPostStatus(models.AutoPostStopped)
	s.log.Info("auto post stopped")
	return nil
}

// Validate checks a configuration against the control panel rules.
func Validate(cfg models.AutoPostConfig) error {
	if strings.TrimSpace(cfg.Caption) == "" {
		return apperrors.New(apperrors.ErrAutoPostConfig, "caption must not be empty")
	}
	if strings.TrimSpace(cfg.GroupLink) == "" {
		return apperrors.New(apperrors.ErrAutoPostConfig, "group link must not be empty")
	}
	if cfg.Interval < minInterval || cfg.Interval > maxInterval {
		return apperrors.New(apperrors.ErrAutoPostConfig, "interval must be between 10 and 3600 seconds")
	}
	if !timeOfDay.MatchString(cfg.StartTime) || !timeOfDay.MatchString(cfg.EndTime) {
		return apperrors.New(apperrors.ErrAutoPostConfig, "start and end time must be HH:MM")
	}
	return nil
}
