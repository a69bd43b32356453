package intervals

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/felixfletscher/ollo-dev12/pkg/db/models"
	"github.com/felixfletscher/ollo-dev12/pkg/enums"
	pkgerrors "github.com/felixfletscher/ollo-dev12/pkg/errors"
)

// Service resolves billing intervals by their provider display name.
type Service interface {
	Resolve(ctx context.Context, name string) (*models.BillingInterval, error)
	List(ctx context.Context) ([]models.BillingInterval, error)
}

// ServiceParams groups dependencies for the interval service.
type ServiceParams struct {
	Repo Repository
}

type service struct {
	repo Repository
}

// NewService builds an interval service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	return &service{repo: params.Repo}, nil
}

// Resolve finds the interval with the given display name, creating it on
// first use. Names are normalized so "1 Month" and "1 month" share a row.
func (s *service) Resolve(ctx context.Context, name string) (*models.BillingInterval, error) {
	normalized := normalizeName(name)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "interval name is required")
	}

	existing, err := s.repo.FindByName(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	count, unit, err := parseName(normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unparseable interval name")
	}

	interval := &models.BillingInterval{
		Name:  normalized,
		Count: count,
		Unit:  unit,
	}
	if err := s.repo.Create(ctx, interval); err != nil {
		// A concurrent resolve may have won the unique index race.
		if winner, findErr := s.repo.FindByName(ctx, normalized); findErr == nil && winner != nil {
			return winner, nil
		}
		return nil, err
	}
	return interval, nil
}

func (s *service) List(ctx context.Context) ([]models.BillingInterval, error) {
	return s.repo.List(ctx)
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// parseName splits a display name such as "3 months" into its parts.
func parseName(name string) (int, enums.IntervalUnit, error) {
	parts := strings.Fields(name)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("interval %q must look like '<count> <unit>'", name)
	}
	count, err := strconv.Atoi(parts[0])
	if err != nil || count <= 0 {
		return 0, "", fmt.Errorf("interval %q has an invalid count", name)
	}
	unit, err := enums.ParseIntervalUnit(parts[1])
	if err != nil {
		return 0, "", err
	}
	return count, unit, nil
}
