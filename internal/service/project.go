package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"crowdfund/internal/apperr"
	"crowdfund/internal/database"
	"crowdfund/internal/logger"
	"crowdfund/internal/model"
)

// ProjectService keeps the local organization and project records the
// wallet and investment managers join against.
type ProjectService struct {
	db  *database.Database
	log *logger.Logger
	now Clock
}

// NewProjectService returns a ProjectService backed by db.
func NewProjectService(db *database.Database, log *logger.Logger) *ProjectService {
	return &ProjectService{db: db, log: log, now: systemClock}
}

// CreateProjectRequest carries the fields of a new project.
type CreateProjectRequest struct {
	OrganizationID  int64     `json:"organization_id" binding:"required"`
	Name            string    `json:"name" binding:"required"`
	EndDate         time.Time `json:"end_date" binding:"required"`
	MinPerUser      int64     `json:"min_per_user" binding:"required,gt=0"`
	MaxPerUser      int64     `json:"max_per_user" binding:"required,gt=0"`
	ExpectedFunding int64     `json:"expected_funding" binding:"required,gt=0"`
	Active          bool      `json:"active"`
}

func (s *ProjectService) CreateOrganization(ctx context.Context, name string, user uuid.UUID) (*model.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.ValidationFailed, apperr.CodeRequest, "project.CreateOrganization", "organization name is required")
	}
	org := &model.Organization{Name: name, CreatedBy: user, CreatedAt: s.now()}
	if err := s.db.InsertOrganization(ctx, org); err != nil {
		return nil, err
	}
	s.log.WithField("organization", org.ID).Info("organization created")
	return org, nil
}

func (s *ProjectService) CreateProject(ctx context.Context, req CreateProjectRequest, user uuid.UUID) (*model.Project, error) {
	const op = "project.CreateProject"
	if req.MinPerUser > req.MaxPerUser {
		return nil, apperr.New(apperr.ValidationFailed, apperr.CodeRequest, op, "min per user is greater than max per user")
	}
	if req.MaxPerUser > req.ExpectedFunding {
		return nil, apperr.New(apperr.ValidationFailed, apperr.CodeRequest, op, "max per user is greater than expected funding")
	}
	if _, err := s.db.GetOrganization(ctx, req.OrganizationID); err != nil {
		return nil, err
	}

	project := &model.Project{
		OrganizationID:  req.OrganizationID,
		Name:            strings.TrimSpace(req.Name),
		Active:          req.Active,
		EndDate:         req.EndDate.UTC(),
		MinPerUser:      req.MinPerUser,
		MaxPerUser:      req.MaxPerUser,
		ExpectedFunding: req.ExpectedFunding,
		Currency:        model.CurrencyEUR,
		CreatedBy:       user,
		CreatedAt:       s.now(),
	}
	if err := s.db.InsertProject(ctx, project); err != nil {
		return nil, err
	}
	s.log.WithField("project", project.ID).Info("project created")
	return project, nil
}

func (s *ProjectService) GetOrganization(ctx context.Context, id int64) (*model.Organization, error) {
	return s.db.GetOrganization(ctx, id)
}

func (s *ProjectService) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	return s.db.GetProject(ctx, id)
}

func (s *ProjectService) SetProjectActive(ctx context.Context, id int64, active bool) (*model.Project, error) {
	if err := s.db.SetProjectActive(ctx, id, active); err != nil {
		return nil, err
	}
	return s.db.GetProject(ctx, id)
}
