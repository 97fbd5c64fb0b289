package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	salesrepo "github.com/yungbote/contracts-backend/internal/data/repos/sales"
	domainagg "github.com/yungbote/contracts-backend/internal/domain/aggregates"
	"github.com/yungbote/contracts-backend/internal/domain/contracts"
	"github.com/yungbote/contracts-backend/internal/observability"
	"github.com/yungbote/contracts-backend/internal/pkg/dbctx"
	"github.com/yungbote/contracts-backend/internal/pkg/logger"
)

type ContractService interface {
	Save(ctx context.Context, c *contracts.Contract) (domainagg.SaveContractResult, error)
	LoadByID(ctx context.Context, id uuid.UUID) (*contracts.Contract, error)
	LoadByName(ctx context.Context, name string) (*contracts.Contract, error)
	Delete(ctx context.Context, id uuid.UUID, expectedVersion int) (domainagg.DeleteContractResult, error)
	ListNames(ctx context.Context, limit int) ([]string, error)
}

type contractService struct {
	log       *logger.Logger
	aggregate domainagg.ContractAggregate
	contracts salesrepo.ContractRepo
	tracer    trace.Tracer
}

func NewContractService(
	baseLog *logger.Logger,
	aggregate domainagg.ContractAggregate,
	contractRepo salesrepo.ContractRepo,
) ContractService {
	return &contractService{
		log:       baseLog.With("service", "ContractService"),
		aggregate: aggregate,
		contracts: contractRepo,
		tracer:    observability.Tracer(),
	}
}

func (s *contractService) Save(ctx context.Context, c *contracts.Contract) (domainagg.SaveContractResult, error) {
	if s == nil || s.aggregate == nil {
		return domainagg.SaveContractResult{}, fmt.Errorf("contract service not configured")
	}
	if c == nil {
		return domainagg.SaveContractResult{}, fmt.Errorf("missing contract")
	}
	ctx, span := s.tracer.Start(ctx, "ContractService.Save", trace.WithAttributes(
		attribute.String("contract.id", c.ID().String()),
		attribute.Int("contract.version", c.Version()),
	))
	defer span.End()

	start := time.Now()
	res, err := s.aggregate.Save(ctx, c)
	if err != nil {
		endSpan(span, err)
		s.log.Warn("contract save failed",
			"contract_id", c.ID(),
			"version", c.Version(),
			"code", domainagg.CodeOf(err),
			"error", err,
		)
		return res, err
	}
	span.SetAttributes(attribute.Int("contract.saved_version", res.Version))
	s.log.Debug("contract saved",
		"contract_id", res.ContractID,
		"version", res.Version,
		"created", res.Created,
		"rows_upserted", res.RowsUpserted,
		"rows_removed", res.RowsRemoved,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (s *contractService) LoadByID(ctx context.Context, id uuid.UUID) (*contracts.Contract, error) {
	if s == nil || s.aggregate == nil {
		return nil, fmt.Errorf("contract service not configured")
	}
	ctx, span := s.tracer.Start(ctx, "ContractService.LoadByID", trace.WithAttributes(
		attribute.String("contract.id", id.String()),
	))
	defer span.End()

	c, err := s.aggregate.LoadByID(ctx, id)
	if err != nil {
		endSpan(span, err)
		s.logLoadFailure("contract_id", id, err)
		return nil, err
	}
	return c, nil
}

func (s *contractService) LoadByName(ctx context.Context, name string) (*contracts.Contract, error) {
	if s == nil || s.aggregate == nil {
		return nil, fmt.Errorf("contract service not configured")
	}
	name = strings.TrimSpace(name)
	ctx, span := s.tracer.Start(ctx, "ContractService.LoadByName", trace.WithAttributes(
		attribute.String("contract.name", name),
	))
	defer span.End()

	c, err := s.aggregate.LoadByName(ctx, name)
	if err != nil {
		endSpan(span, err)
		s.logLoadFailure("contract_name", name, err)
		return nil, err
	}
	return c, nil
}

func (s *contractService) Delete(ctx context.Context, id uuid.UUID, expectedVersion int) (domainagg.DeleteContractResult, error) {
	if s == nil || s.aggregate == nil {
		return domainagg.DeleteContractResult{}, fmt.Errorf("contract service not configured")
	}
	ctx, span := s.tracer.Start(ctx, "ContractService.Delete", trace.WithAttributes(
		attribute.String("contract.id", id.String()),
		attribute.Int("contract.version", expectedVersion),
	))
	defer span.End()

	res, err := s.aggregate.Delete(ctx, id, expectedVersion)
	if err != nil {
		endSpan(span, err)
		s.log.Warn("contract delete failed", "contract_id", id, "version", expectedVersion, "code", domainagg.CodeOf(err), "error", err)
		return res, err
	}
	s.log.Info("contract deleted", "contract_id", id, "rows_removed", res.RowsRemoved)
	return res, nil
}

func (s *contractService) ListNames(ctx context.Context, limit int) ([]string, error) {
	if s == nil || s.contracts == nil {
		return nil, fmt.Errorf("contract service not configured")
	}
	return s.contracts.ListNames(dbctx.Context{Ctx: ctx}, limit)
}

// not_found is an expected outcome for lookups and logs at debug.
func (s *contractService) logLoadFailure(key string, val any, err error) {
	if domainagg.IsCode(err, domainagg.CodeNotFound) {
		s.log.Debug("contract not found", key, val)
		return
	}
	s.log.Warn("contract load failed", key, val, "code", domainagg.CodeOf(err), "error", err)
}

func endSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
