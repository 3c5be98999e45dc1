// Package lookup resolves gene symbols to their rooting records for one organism.
package lookup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	perrors "github.com/orthoguide/orthoguide/internal/platform/errors"
	"github.com/orthoguide/orthoguide/internal/platform/telemetry/metrics"
	"github.com/orthoguide/orthoguide/internal/services/orthoguide/storage"
	"github.com/orthoguide/orthoguide/internal/services/orthoguide/storage/sqlite"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/orthoguide/orthoguide/internal/services/orthoguide/lookup"

// MissingGenesMessage is returned when the genes parameter is absent or empty.
const MissingGenesMessage = "Please provide a comma-separated list of genes in the 'genes' parameter and a species code in the 'species' parameter."

// Connector opens a store handle owned by the caller.
type Connector interface {
	Open(ctx context.Context) (*sql.DB, error)
}

// Config wires a Service.
type Config struct {
	// Tables is the organism allow-list. Defaults to storage.DefaultOrganismTables.
	Tables    storage.OrganismTables
	Connector Connector
	Logger    logrus.FieldLogger
	Metrics   *metrics.Metrics
	Tracer    trace.Tracer
}

// Query carries the raw request parameters. An absent parameter is the empty string.
type Query struct {
	Genes   string
	Species string
}

// Service answers gene-root lookups.
type Service struct {
	tables    storage.OrganismTables
	connector Connector
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// NewService validates cfg and returns a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Connector == nil {
		return nil, errors.New("connector is required")
	}
	tables := cfg.Tables
	if tables == nil {
		tables = storage.DefaultOrganismTables()
	}
	if len(tables) == 0 {
		return nil, errors.New("at least one organism table is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Service{
		tables:    tables,
		connector: cfg.Connector,
		logger:    logger,
		metrics:   cfg.Metrics,
		tracer:    tracer,
	}, nil
}

// speciesLabel keeps metric label values within the allow-list.
func (s *Service) speciesLabel(species string) string {
	if _, ok := s.tables.Table(species); ok {
		return species
	}
	return metrics.UnknownSpecies
}

// GetRoots returns the records whose queryItem is one of the comma-separated
// genes, in the order the storage engine yields them. Unknown genes are
// omitted; an all-unknown request yields an empty, non-nil slice.
//
// Validation failures carry CodeInvalidRequest and storage failures
// CodeStorage.
func (s *Service) GetRoots(ctx context.Context, query Query) ([]storage.OrthologRecord, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "orthoguide.lookup.GetRoots")
	defer span.End()

	table, genes, err := s.validate(query)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveLookup(s.speciesLabel(query.Species), metrics.OutcomeInvalid, 0, time.Since(start))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("orthoguide.species", query.Species),
		attribute.Int("orthoguide.genes", len(genes)),
	)

	records, err := s.query(ctx, table, genes)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failure")
		s.metrics.ObserveLookup(query.Species, metrics.OutcomeStorageError, len(genes), time.Since(start))
		s.logger.WithFields(logrus.Fields{
			"species": query.Species,
			"genes":   len(genes),
		}).WithError(err).Error("gene root lookup failed")
		return nil, perrors.Wrap(perrors.CodeStorage, "Database query failed: "+err.Error(), err)
	}

	span.SetAttributes(attribute.Int("orthoguide.records", len(records)))
	s.metrics.ObserveLookup(query.Species, metrics.OutcomeOK, len(genes), time.Since(start))
	return records, nil
}

func (s *Service) validate(query Query) (string, []string, error) {
	if query.Genes == "" {
		return "", nil, perrors.New(perrors.CodeInvalidRequest, MissingGenesMessage)
	}
	table, ok := s.tables.Table(query.Species)
	if !ok {
		return "", nil, perrors.WithMetadata(
			perrors.CodeInvalidRequest,
			"Invalid species code. Allowed values are: "+strings.Join(s.tables.Codes(), ", "),
			map[string]string{"species": query.Species},
		)
	}
	return table, SplitGenes(query.Genes), nil
}

// SplitGenes splits a comma-separated gene list and trims each token.
// Duplicates, case and empty tokens are preserved.
func SplitGenes(genes string) []string {
	tokens := strings.Split(genes, ",")
	for i, token := range tokens {
		tokens[i] = strings.TrimSpace(token)
	}
	return tokens
}

// BuildQuery returns the membership SELECT for table with one bound
// parameter per gene. table must come from the organism allow-list.
func BuildQuery(table string, genes int) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", genes), ", ")
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE queryItem IN (%s)",
		strings.Join(storage.Columns, ", "),
		sqlite.QuoteIdentifier(table),
		placeholders,
	)
}

func (s *Service) query(ctx context.Context, table string, genes []string) ([]storage.OrthologRecord, error) {
	db, err := s.connector.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := db.Close(); err != nil {
			s.logger.WithError(err).Debug("close lookup connection")
		}
	}()

	args := make([]any, len(genes))
	for i, gene := range genes {
		args[i] = gene
	}
	rows, err := db.QueryContext(ctx, BuildQuery(table, len(genes)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]storage.OrthologRecord, 0, len(genes))
	for rows.Next() {
		var (
			node, cogID, cladeName, queryItem sql.NullString
			root, ncbiTaxonID                 sql.NullFloat64
		)
		if err := rows.Scan(&node, &cogID, &root, &cladeName, &queryItem, &ncbiTaxonID); err != nil {
			return nil, err
		}
		records = append(records, storage.OrthologRecord{
			Node:        node.String,
			CogID:       cogID.String,
			Root:        root.Float64,
			CladeName:   cladeName.String,
			QueryItem:   queryItem.String,
			NcbiTaxonID: ncbiTaxonID.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
