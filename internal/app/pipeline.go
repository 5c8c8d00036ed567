package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/jpp0ca/ListeningStats/internal/domain"
	"github.com/jpp0ca/ListeningStats/internal/logging"
	"github.com/jpp0ca/ListeningStats/internal/ports"
	"github.com/jpp0ca/ListeningStats/internal/stats"
)

// Pipeline runs one history through loading, enrichment and reporting.
type Pipeline struct {
	source      ports.EventSource
	enricher    ports.EnrichmentService
	reports     ports.ReportGenerator
	agg         *stats.Aggregator
	artistPages int
}

// NewPipeline wires the pipeline stages. reports may be nil when only Fetch is used.
func NewPipeline(source ports.EventSource, enricher ports.EnrichmentService, reports ports.ReportGenerator, agg *stats.Aggregator, artistPages int) *Pipeline {
	if artistPages <= 0 {
		artistPages = 500
	}
	return &Pipeline{
		source:      source,
		enricher:    enricher,
		reports:     reports,
		agg:         agg,
		artistPages: artistPages,
	}
}

// Run loads inputPath, enriches tracks and top artists, and writes the report
// under the input's file stem. Input errors abort before anything is written.
func (p *Pipeline) Run(ctx context.Context, inputPath string) (*domain.RunSummary, error) {
	if p.reports == nil {
		return nil, fmt.Errorf("pipeline: no report generator configured")
	}

	ctx, summary, events, err := p.enrich(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	log := logging.FromContext(ctx, "pipeline")

	stem := InputStem(inputPath)
	log.Info().Str("name", stem).Msg("Generating report")
	report, err := p.reports.Generate(ctx, stem, events)
	if err != nil {
		return nil, fmt.Errorf("pipeline: report failed: %w", err)
	}
	summary.Report = report

	log.Info().Str("output", report.OutputDir).Msg("Run complete")
	return summary, nil
}

// Fetch loads inputPath and fills the metadata cache without writing a report.
func (p *Pipeline) Fetch(ctx context.Context, inputPath string) (*domain.RunSummary, error) {
	ctx, summary, _, err := p.enrich(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	log := logging.FromContext(ctx, "pipeline")
	log.Info().Msg("Fetch complete")
	return summary, nil
}

// enrich covers the stages shared by Run and Fetch and returns the run-scoped context.
func (p *Pipeline) enrich(ctx context.Context, inputPath string) (context.Context, *domain.RunSummary, []domain.ListeningEvent, error) {
	runID := ulid.Make().String()
	ctx = logging.WithRunID(ctx, runID)
	log := logging.FromContext(ctx, "pipeline")

	log.Info().Str("input", inputPath).Msg("Loading listening history")
	events, err := p.source.Load(inputPath)
	if err != nil {
		return ctx, nil, nil, fmt.Errorf("pipeline: failed to load %s: %w", inputPath, err)
	}
	log.Info().Int("events", len(events)).Msg("Listening history loaded")

	summary := &domain.RunSummary{RunID: runID, Input: inputPath, Events: len(events)}

	summary.Tracks = p.enricher.EnrichTracks(ctx, events)
	if err := ctx.Err(); err != nil {
		return ctx, nil, nil, fmt.Errorf("pipeline: track enrichment interrupted: %w", err)
	}

	top := p.agg.TopArtistsByPlaytime(events, p.artistPages)
	names := make([]string, 0, len(top))
	for _, a := range top {
		names = append(names, a.Identity)
	}
	summary.Artists = p.enricher.EnrichArtists(ctx, names)
	if err := ctx.Err(); err != nil {
		return ctx, nil, nil, fmt.Errorf("pipeline: artist enrichment interrupted: %w", err)
	}

	log.Info().
		Int("tracks_fetched", summary.Tracks.Fetched).
		Int("tracks_failed", summary.Tracks.Failed).
		Int("artists_fetched", summary.Artists.Fetched).
		Int("artists_failed", summary.Artists.Failed).
		Msg("Enrichment complete")
	return ctx, summary, events, nil
}

// InputStem is the report name for a history file ("data/Streaming_2024.json" -> "Streaming_2024").
func InputStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
