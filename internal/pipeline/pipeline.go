package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/hydrogen-audit-service/internal/domain"
	"github.com/couchcryptid/hydrogen-audit-service/internal/model"
	"github.com/couchcryptid/hydrogen-audit-service/internal/observability"
)

// ErrUnreadableDocument is returned when the document text cannot be extracted.
var ErrUnreadableDocument = errors.New("unreadable document")

// TextExtractor turns a stored document into plain text.
type TextExtractor interface {
	ExtractText(r io.ReaderAt, size int64) (string, error)
}

// ReportPublisher delivers finished audit reports downstream.
type ReportPublisher interface {
	Publish(ctx context.Context, report domain.Report) error
}

// Pipeline runs the extract, align, predict, classify sequence for a
// document. It holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	predictor model.Predictor
	schema    *model.Schema
	extractor TextExtractor
	publisher ReportPublisher
	tolerance float64
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline around loaded model artifacts. Pass a nil publisher
// to skip publishing reports. The extractor is only needed by Audit.
func New(artifacts *model.Artifacts, extractor TextExtractor, publisher ReportPublisher, tolerance float64, logger *slog.Logger, metrics *observability.Metrics) (*Pipeline, error) {
	if artifacts == nil || artifacts.Model == nil {
		return nil, model.ErrPredictorUnavailable
	}
	if artifacts.Schema == nil {
		return nil, model.ErrFeatureListUnavailable
	}
	if tolerance <= 0 {
		return nil, fmt.Errorf("tolerance must be positive, got %g", tolerance)
	}
	metrics.ModelLoaded.Set(1)
	return &Pipeline{
		predictor: artifacts.Model,
		schema:    artifacts.Schema,
		extractor: extractor,
		publisher: publisher,
		tolerance: tolerance,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// CheckReadiness returns nil once a model is loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.predictor == nil {
		return errors.New("capacity model not loaded")
	}
	return nil
}

// Process classifies every record found in the document text, in document
// order. Text with no usable blocks yields an empty result, not an error.
// A prediction failure aborts the whole document.
func (p *Pipeline) Process(ctx context.Context, text string) ([]domain.ClassifiedResult, error) {
	records := domain.ExtractRecords(text)
	p.metrics.RecordsExtracted.Add(float64(len(records)))

	results := make([]domain.ClassifiedResult, 0, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := p.score(rec)
		if err != nil {
			p.metrics.DocumentErrors.WithLabelValues("scoring").Inc()
			return nil, fmt.Errorf("score record %d: %w", i+1, err)
		}
		p.metrics.RecordsClassified.WithLabelValues(string(res.Status)).Inc()
		results = append(results, res)
	}
	return results, nil
}

// Audit extracts the text of a PDF, classifies its records and wraps them in
// a report. A configured publisher receives the report; publish failures are
// logged and do not fail the audit.
func (p *Pipeline) Audit(ctx context.Context, source string, data []byte) (domain.Report, error) {
	start := time.Now()
	id := domain.DocumentID(data)

	if p.extractor == nil {
		return domain.Report{}, errors.New("pipeline has no text extractor")
	}
	text, err := p.extractor.ExtractText(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		p.metrics.DocumentErrors.WithLabelValues("unreadable").Inc()
		return domain.Report{}, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	results, err := p.Process(ctx, text)
	if err != nil {
		return domain.Report{}, err
	}

	report := domain.NewReport(id, source, results)
	p.metrics.DocumentsProcessed.Inc()
	p.metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("document audited",
		"report_id", report.ID,
		"source", source,
		"records", len(results),
		"flagged", report.Flagged(),
	)

	p.publish(ctx, report)
	return report, nil
}

func (p *Pipeline) publish(ctx context.Context, report domain.Report) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, report); err != nil {
		p.metrics.DocumentErrors.WithLabelValues("publish").Inc()
		p.logger.Warn("publish report failed", "report_id", report.ID, "error", err)
		return
	}
	p.metrics.ResultsPublished.Inc()
}

// score classifies a single record. Records with out-of-range irradiance are
// not sent to the model and publish no prediction.
func (p *Pipeline) score(rec domain.ExtractedRecord) (domain.ClassifiedResult, error) {
	res := domain.ClassifiedResult{
		Location:         rec.Location,
		ReportedCapacity: rec.ReportedCapacity,
	}
	if domain.IrradianceOutOfRange(rec.SolarIrradiance) {
		res.Status = domain.StatusIrradianceOutOfRange
		return res, nil
	}

	start := time.Now()
	predicted, err := p.predictor.Predict(p.schema.Align(rec))
	p.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.ClassifiedResult{}, err
	}

	rounded := roundTo(predicted, 2)
	res.PredictedCapacity = &rounded
	res.Status = domain.Classify(rec.SolarIrradiance, rec.ReportedCapacity, predicted, p.tolerance)
	return res, nil
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
