package service

import (
	"context"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/util"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// RecurringTemplateService handles recurring template business logic.
// Templates are managed by their owner only.
type RecurringTemplateService struct {
	templateRepo   domain.RecurringTemplateRepository
	materializer   *Materializer
	eventPublisher websocket.EventPublisher
}

// NewRecurringTemplateService creates a new RecurringTemplateService
func NewRecurringTemplateService(templateRepo domain.RecurringTemplateRepository, materializer *Materializer) *RecurringTemplateService {
	return &RecurringTemplateService{
		templateRepo: templateRepo,
		materializer: materializer,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *RecurringTemplateService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// validateTemplateInput checks and normalizes template input in place
func validateTemplateInput(input *domain.RecurringTemplateInput) error {
	category, description, err := validateEntry(input.Type, input.Amount, input.Category, input.Description)
	if err != nil {
		return err
	}
	input.Category = category
	input.Description = description

	frequency, err := domain.ParseFrequency(string(input.Frequency))
	if err != nil {
		return err
	}
	input.Frequency = frequency

	if input.StartDate.IsZero() {
		return &domain.InvalidDateError{Field: "start_date"}
	}
	input.StartDate = util.TruncateToDate(input.StartDate)
	if input.EndDate != nil {
		end := util.TruncateToDate(*input.EndDate)
		if end.Before(input.StartDate) {
			return &domain.InvalidDateError{Field: "end_date", Value: util.FormatDate(end)}
		}
		input.EndDate = &end
	}
	return nil
}

// CreateTemplate creates a template and immediately materializes anything
// already due for the user. Materialization failures never fail creation.
func (s *RecurringTemplateService) CreateTemplate(ctx context.Context, userID int32, input domain.RecurringTemplateInput) (*domain.RecurringTemplate, error) {
	if err := validateTemplateInput(&input); err != nil {
		return nil, err
	}

	created, err := s.templateRepo.Create(ctx, &domain.RecurringTemplate{
		UserID:      userID,
		Type:        input.Type,
		Amount:      input.Amount,
		Category:    input.Category,
		Description: input.Description,
		Frequency:   input.Frequency,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	})
	if err != nil {
		return nil, err
	}
	s.publish(userID, websocket.RecurringCreated(created))

	if s.materializer != nil {
		if _, err := s.materializer.MaterializeDue(ctx, &userID); err != nil {
			log.Warn().Err(err).Int32("user_id", userID).Int32("template_id", created.ID).Msg("Materialization after template creation failed")
		} else if refreshed, err := s.templateRepo.GetByID(ctx, userID, created.ID); err == nil {
			created = refreshed
		}
	}

	return created, nil
}

// UpdateTemplate replaces the editable fields of a template. Already
// materialized transactions are left untouched.
func (s *RecurringTemplateService) UpdateTemplate(ctx context.Context, userID int32, id int32, input domain.RecurringTemplateInput) (*domain.RecurringTemplate, error) {
	if err := validateTemplateInput(&input); err != nil {
		return nil, err
	}

	existing, err := s.templateRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if existing.LastGeneratedDate != nil && existing.LastGeneratedDate.Before(input.StartDate) {
		return nil, &domain.InvalidDateError{Field: "start_date", Value: util.FormatDate(input.StartDate)}
	}

	updated, err := s.templateRepo.Update(ctx, userID, id, &input)
	if err != nil {
		return nil, err
	}

	s.publish(userID, websocket.RecurringUpdated(updated))
	return updated, nil
}

// DeleteTemplate deletes a template. Materialized transactions are kept.
func (s *RecurringTemplateService) DeleteTemplate(ctx context.Context, userID int32, id int32) error {
	if err := s.templateRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.publish(userID, websocket.RecurringDeleted(map[string]interface{}{"id": id}))
	return nil
}

// GetTemplate retrieves one of the user's templates
func (s *RecurringTemplateService) GetTemplate(ctx context.Context, userID int32, id int32) (*domain.RecurringTemplate, error) {
	return s.templateRepo.GetByID(ctx, userID, id)
}

// ListTemplates retrieves all templates of the user
func (s *RecurringTemplateService) ListTemplates(ctx context.Context, userID int32) ([]*domain.RecurringTemplate, error) {
	return s.templateRepo.ListByUser(ctx, userID)
}

// MaterializeNow runs materialization for the user on demand
func (s *RecurringTemplateService) MaterializeNow(ctx context.Context, userID int32) (*MaterializeResult, error) {
	return s.materializer.MaterializeDue(ctx, &userID)
}

func (s *RecurringTemplateService) publish(userID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}
