package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// SettingsCache is the read-through cache in front of the settings table.
type SettingsCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
	Invalidate(ctx context.Context, keys ...string)
}

// Pinger checks that a collaborator is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SettingService manages global typed settings.
type SettingService struct {
	settings repository.SettingRepository
	cache    SettingsCache
	tester   *ConnectionTester
	logger   *zap.Logger
	now      func() time.Time
}

// SettingDependencies bundles collaborators for the setting service.
type SettingDependencies struct {
	SettingRepo repository.SettingRepository
	Cache       SettingsCache
	Tester      *ConnectionTester
	Logger      *zap.Logger
	Now         func() time.Time
}

// SettingInput describes a new setting.
type SettingInput struct {
	Key             string
	Value           string
	DataType        string
	DisplayName     *string
	Description     *string
	Category        *string
	IsVisible       *bool
	DefaultValue    *string
	ValidationRules *string
}

// SettingExport is the JSON export document.
type SettingExport struct {
	ExportedAt time.Time              `json:"exportedAt"`
	Settings   []domain.SystemSetting `json:"settings"`
}

// ConnectionResult reports one connectivity probe.
type ConnectionResult struct {
	Kind      string
	Success   bool
	Message   string
	LatencyMS int64
}

// NewSettingService constructs the service.
func NewSettingService(deps SettingDependencies) *SettingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	cache := deps.Cache
	if cache == nil {
		cache = noopCache{}
	}
	return &SettingService{
		settings: deps.SettingRepo,
		cache:    cache,
		tester:   deps.Tester,
		logger:   logger,
		now:      now,
	}
}

// List returns settings, optionally of one category. Hidden settings are
// only listed for SuperAdmin.
func (s *SettingService) List(ctx context.Context, rc access.RequestContext, category string) ([]domain.SystemSetting, error) {
	if err := requireAction(rc, access.ActionViewSettings); err != nil {
		return nil, err
	}
	filter := repository.SettingFilter{VisibleOnly: !access.Can(rc, access.ActionManageSettings)}
	if c := strings.TrimSpace(category); c != "" {
		filter.Category = &c
	}
	return s.settings.List(ctx, filter)
}

func (s *SettingService) Get(ctx context.Context, rc access.RequestContext, key string) (*domain.SystemSetting, error) {
	if err := requireAction(rc, access.ActionViewSettings); err != nil {
		return nil, err
	}
	setting, err := s.settings.GetByKey(ctx, key)
	if err != nil {
		return nil, mapNotFound(err, "setting")
	}
	if !setting.IsVisible && !access.Can(rc, access.ActionManageSettings) {
		return nil, apperrors.NewNotFound("setting", nil)
	}
	return setting, nil
}

// Create adds a user-managed setting. Protected settings only come from
// migrations.
func (s *SettingService) Create(ctx context.Context, rc access.RequestContext, input SettingInput) (*domain.SystemSetting, error) {
	if err := requireAction(rc, access.ActionManageSettings); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(input.Key)
	if key == "" {
		return nil, apperrors.NewValidationError("key is required", nil)
	}
	dataType, ok := domain.ParseSettingDataType(input.DataType)
	if !ok {
		return nil, apperrors.NewInvalidState("unsupported data type", map[string]any{"dataType": input.DataType})
	}
	if !dataType.ValidValue(input.Value) {
		return nil, apperrors.NewValidationError("value does not match data type", map[string]any{"key": key, "dataType": dataType})
	}
	if input.DefaultValue != nil && !dataType.ValidValue(*input.DefaultValue) {
		return nil, apperrors.NewValidationError("default value does not match data type", map[string]any{"key": key, "dataType": dataType})
	}

	setting := &domain.SystemSetting{
		Key:             key,
		Value:           input.Value,
		DataType:        dataType,
		DisplayName:     trimmedPtr(input.DisplayName),
		Description:     trimmedPtr(input.Description),
		Category:        trimmedPtr(input.Category),
		IsSystemSetting: false,
		IsVisible:       true,
		DefaultValue:    input.DefaultValue,
		ValidationRules: trimmedPtr(input.ValidationRules),
	}
	if input.IsVisible != nil {
		setting.IsVisible = *input.IsVisible
	}
	if err := s.settings.Create(ctx, setting); err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintSettingKey) {
			return nil, apperrors.NewConflict("setting key already exists", map[string]any{"key": key})
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, key)
	return setting, nil
}

// Update writes a new value after type-checking it against the declared
// data type. Protected settings are rejected whoever asks.
func (s *SettingService) Update(ctx context.Context, rc access.RequestContext, key, value string) (*domain.SystemSetting, error) {
	if err := requireAction(rc, access.ActionManageSettings); err != nil {
		return nil, err
	}
	current, err := s.settings.GetByKey(ctx, key)
	if err != nil {
		return nil, mapNotFound(err, "setting")
	}
	if current.IsSystemSetting {
		return nil, apperrors.NewInvalidState("system settings are read-only", map[string]any{"key": key})
	}
	if !current.DataType.ValidValue(value) {
		return nil, apperrors.NewValidationError("value does not match data type", map[string]any{"key": key, "dataType": current.DataType})
	}

	updated, err := s.settings.UpdateValue(ctx, key, value)
	if err != nil {
		if repository.IsNotFound(err) {
			// protected concurrently or removed between the read and the write
			return nil, apperrors.NewInvalidState("setting cannot be updated", map[string]any{"key": key})
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, key)
	s.logger.Info("setting updated", zap.String("key", key), zap.String("by", rc.AccountID))
	return updated, nil
}

// BulkUpdate applies each value independently and reports per-key failures.
func (s *SettingService) BulkUpdate(ctx context.Context, rc access.RequestContext, values map[string]string) (int, map[string]string, error) {
	if err := requireAction(rc, access.ActionManageSettings); err != nil {
		return 0, nil, err
	}
	updated := 0
	failures := make(map[string]string)
	for key, value := range values {
		if _, err := s.Update(ctx, rc, key, value); err != nil {
			var domainErr *apperrors.DomainError
			if !errors.As(err, &domainErr) {
				return updated, failures, err
			}
			failures[key] = domainErr.Message
			continue
		}
		updated++
	}
	return updated, failures, nil
}

// ResetDefaults restores unprotected settings and returns the reset keys.
func (s *SettingService) ResetDefaults(ctx context.Context, rc access.RequestContext) ([]string, error) {
	if err := requireAction(rc, access.ActionManageSettings); err != nil {
		return nil, err
	}
	keys, err := s.settings.ResetDefaults(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, keys...)
	s.logger.Info("settings reset to defaults", zap.Int("count", len(keys)))
	return keys, nil
}

// Export snapshots every visible setting.
func (s *SettingService) Export(ctx context.Context, rc access.RequestContext) (*SettingExport, error) {
	settings, err := s.List(ctx, rc, "")
	if err != nil {
		return nil, err
	}
	return &SettingExport{ExportedAt: s.now().UTC(), Settings: settings}, nil
}

func (s *SettingService) Categories(ctx context.Context, rc access.RequestContext) ([]string, error) {
	if err := requireAction(rc, access.ActionViewSettings); err != nil {
		return nil, err
	}
	return s.settings.Categories(ctx)
}

// Bool reads a boolean toggle through the cache, falling back when the key
// is missing or malformed.
func (s *SettingService) Bool(ctx context.Context, key string, fallback bool) bool {
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		setting, err := s.settings.GetByKey(ctx, key)
		if err != nil {
			if !repository.IsNotFound(err) {
				s.logger.Warn("setting lookup failed", zap.String("key", key), zap.Error(err))
			}
			return fallback
		}
		raw = setting.Value
		s.cache.Set(ctx, key, raw)
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

// TestConnection probes email, database or pmo.
func (s *SettingService) TestConnection(ctx context.Context, rc access.RequestContext, kind string) (*ConnectionResult, error) {
	if err := requireAction(rc, access.ActionManageSettings); err != nil {
		return nil, err
	}
	if s.tester == nil {
		return nil, apperrors.NewUnavailable("connection testing not configured", nil, nil)
	}
	return s.tester.Test(ctx, kind)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (string, bool) { return "", false }
func (noopCache) Set(context.Context, string, string)        {}
func (noopCache) Invalidate(context.Context, ...string)      {}

// ConnectionTester runs connectivity probes against external collaborators.
type ConnectionTester struct {
	mail    Pinger
	db      Pinger
	http    *resty.Client
	pmoURL  string
	timeout time.Duration
}

// NewConnectionTester builds the probes. mail or db may be nil.
func NewConnectionTester(mail, db Pinger, pmoURL string, timeout time.Duration) *ConnectionTester {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ConnectionTester{
		mail:    mail,
		db:      db,
		http:    resty.New().SetTimeout(timeout),
		pmoURL:  strings.TrimSpace(pmoURL),
		timeout: timeout,
	}
}

// Test runs one probe. An unknown kind is a validation error; a failing
// probe is reported in the result, not as an error.
func (t *ConnectionTester) Test(ctx context.Context, kind string) (*ConnectionResult, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	var probe func(context.Context) error
	switch kind {
	case "email":
		probe = pingOrMissing(t.mail, "email")
	case "database":
		probe = pingOrMissing(t.db, "database")
	case "pmo":
		probe = t.probePMO
	default:
		return nil, apperrors.NewValidationError("unknown connection type", map[string]any{"type": kind})
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	started := time.Now()
	err := probe(ctx)
	result := &ConnectionResult{Kind: kind, Success: err == nil, LatencyMS: time.Since(started).Milliseconds()}
	if err != nil {
		result.Message = err.Error()
	} else {
		result.Message = kind + " connection successful"
	}
	return result, nil
}

func (t *ConnectionTester) probePMO(ctx context.Context) error {
	if t.pmoURL == "" {
		return errors.New("pmo url not configured")
	}
	resp, err := t.http.R().SetContext(ctx).Get(t.pmoURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("pmo responded with status %d", resp.StatusCode())
	}
	return nil
}

func pingOrMissing(p Pinger, name string) func(context.Context) error {
	return func(ctx context.Context) error {
		if p == nil {
			return fmt.Errorf("%s not configured", name)
		}
		return p.Ping(ctx)
	}
}
