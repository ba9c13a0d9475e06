package appointment

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/carelink/portal/internal/platform/cache"
)

// Service layers the read-through cache over the appointment client. Reads
// derive explicit keys and register invalidation scopes; writes invalidate
// the record scope and every list scope that could reference the record,
// including the provider's schedule.
type Service struct {
	client *Client
	cache  *cache.Cache
	logger zerolog.Logger
}

func NewService(client *Client, c *cache.Cache, logger zerolog.Logger) *Service {
	return &Service{
		client: client,
		cache:  c,
		logger: logger.With().Str("component", "appointment").Logger(),
	}
}

// familyScope covers every cached appointment entry; it is the fallback when
// a write response carries no ids to target.
func familyScope() string { return cache.Scope("appointment") }

func recordScope(id string) string   { return cache.Scope("appointment", "record", id) }
func patientScope(id string) string  { return cache.Scope("appointment", "patient", id) }
func providerScope(id string) string { return cache.Scope("appointment", "provider", id) }

func withFamily(scopes ...string) []string { return append(scopes, familyScope()) }

func (s *Service) ListByPatient(ctx context.Context, patientID string, params url.Values) ([]byte, error) {
	keyParams := []string{"patient=" + patientID}
	for _, name := range []string{"status", "limit", "offset"} {
		if v := params.Get(name); v != "" {
			keyParams = append(keyParams, name+"="+v)
		}
	}
	key := cache.Key("appointment", "list", keyParams...)

	data, _, err := s.cache.GetJSON(ctx, key, cache.TTLShort, withFamily(patientScope(patientID)),
		func(ctx context.Context) ([]byte, error) {
			return s.client.ListByPatient(ctx, patientID, params)
		})
	return data, err
}

func (s *Service) Upcoming(ctx context.Context, patientID string) ([]byte, error) {
	key := cache.Key("appointment", "upcoming", "patient="+patientID)
	data, _, err := s.cache.GetJSON(ctx, key, cache.TTLShort, withFamily(patientScope(patientID)),
		func(ctx context.Context) ([]byte, error) {
			return s.client.Upcoming(ctx, patientID)
		})
	return data, err
}

// ListByCaregiver is uncached: dependent sets change out from under the
// caregiver in ways no portal write observes.
func (s *Service) ListByCaregiver(ctx context.Context, caregiverID string, params url.Values) ([]byte, error) {
	return s.client.ListByCaregiver(ctx, caregiverID, params)
}

func (s *Service) PendingCheckIns(ctx context.Context, providerID string) ([]byte, error) {
	key := cache.Key("appointment", "check-ins", "provider="+providerID)
	data, _, err := s.cache.GetJSON(ctx, key, cache.TTLShort, withFamily(providerScope(providerID)),
		func(ctx context.Context) ([]byte, error) {
			return s.client.PendingCheckIns(ctx, providerID)
		})
	return data, err
}

func (s *Service) ProviderSchedule(ctx context.Context, providerID, date string) ([]byte, error) {
	key := cache.Key("appointment", "schedule", "provider="+providerID, "date="+date)
	data, _, err := s.cache.GetJSON(ctx, key, cache.TTLShort, withFamily(providerScope(providerID)),
		func(ctx context.Context) ([]byte, error) {
			return s.client.ProviderSchedule(ctx, providerID, date)
		})
	return data, err
}

func (s *Service) Get(ctx context.Context, id string) ([]byte, error) {
	key := cache.Key("appointment", "get", "id="+id)
	data, _, err := s.cache.GetJSON(ctx, key, cache.TTLMedium, withFamily(recordScope(id)),
		func(ctx context.Context) ([]byte, error) {
			return s.client.Get(ctx, id)
		})
	return data, err
}

func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) ([]byte, error) {
	raw, err := s.client.Schedule(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidateFor(ctx, raw)
	return raw, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) ([]byte, error) {
	raw, err := s.client.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.invalidateFor(ctx, raw)
	return raw, nil
}

func (s *Service) Cancel(ctx context.Context, id, reason string) ([]byte, error) {
	raw, err := s.client.Cancel(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	s.invalidateFor(ctx, raw)
	return raw, nil
}

func (s *Service) CheckIn(ctx context.Context, id string) ([]byte, error) {
	raw, err := s.client.CheckIn(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidateFor(ctx, raw)
	return raw, nil
}

func (s *Service) Complete(ctx context.Context, id string) ([]byte, error) {
	raw, err := s.client.Complete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidateFor(ctx, raw)
	return raw, nil
}

func (s *Service) CreateTelemedicineSession(ctx context.Context, appointmentID string) ([]byte, error) {
	return s.client.CreateTelemedicineSession(ctx, appointmentID)
}

func (s *Service) JoinTelemedicineSession(ctx context.Context, sessionID string) ([]byte, error) {
	return s.client.JoinTelemedicineSession(ctx, sessionID)
}

// invalidateFor drops every cached entry the written appointment could appear
// in. The backend returns the updated record on every write, so the ids come
// from the response rather than from the caller.
func (s *Service) invalidateFor(ctx context.Context, raw []byte) {
	var appt struct {
		ID         string `json:"id"`
		PatientID  string `json:"patient_id"`
		ProviderID string `json:"provider_id"`
	}
	if err := json.Unmarshal(raw, &appt); err != nil || appt.ID == "" {
		// Cannot target scopes without ids. Drop every appointment entry
		// rather than risk serving a stale record.
		s.logger.Warn().Msg("write response missing ids, invalidating all appointment scopes")
		s.cache.InvalidateScope(ctx, familyScope())
		return
	}

	scopes := []string{recordScope(appt.ID)}
	if appt.PatientID != "" {
		scopes = append(scopes, patientScope(appt.PatientID))
	}
	if appt.ProviderID != "" {
		scopes = append(scopes, providerScope(appt.ProviderID))
	}
	s.cache.InvalidateScope(ctx, scopes...)
}
