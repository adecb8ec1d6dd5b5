package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/couchcryptid/hydrogen-audit-service/internal/domain"
	"github.com/couchcryptid/hydrogen-audit-service/internal/model"
	"github.com/couchcryptid/hydrogen-audit-service/internal/observability"
	"github.com/couchcryptid/hydrogen-audit-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

// recordingPredictor returns a fixed value and remembers every vector it saw.
type recordingPredictor struct {
	mu     sync.Mutex
	value  float64
	err    error
	inputs [][]float64
}

func (m *recordingPredictor) Predict(features []float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, append([]float64(nil), features...))
	return m.value, m.err
}

func (m *recordingPredictor) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) ExtractText(_ io.ReaderAt, _ int64) (string, error) {
	return m.text, m.err
}

type mockPublisher struct {
	reports []domain.Report
	err     error
}

func (m *mockPublisher) Publish(_ context.Context, report domain.Report) error {
	m.reports = append(m.reports, report)
	return m.err
}

var featureNames = []string{
	model.ColSolarIrradiance,
	model.ColTemperature,
	model.ColWindSpeed,
	model.ColCloudCover,
	model.ColEnergyInput,
	"Location_Nevada",
	"Location_Texas",
}

const exampleReport = "Solar Irradiance: 5.2\nTemperature: 30\nEnergy Input: 200\nPlant Capacity: 150\nLocation: Texas\n\n"

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T, predictor model.Predictor, extractor pipeline.TextExtractor, publisher pipeline.ReportPublisher) *pipeline.Pipeline {
	t.Helper()
	schema, err := model.NewSchema(featureNames)
	require.NoError(t, err)

	p, err := pipeline.New(
		&model.Artifacts{Model: predictor, Schema: schema},
		extractor,
		publisher,
		domain.DefaultTolerance,
		discardLogger(),
		observability.NewMetricsForTesting(),
	)
	require.NoError(t, err)
	return p
}

// --- tests ---

func TestProcess_ExampleReport(t *testing.T) {
	pred := &recordingPredictor{value: 160}
	p := newTestPipeline(t, pred, nil, nil)

	results, err := p.Process(context.Background(), exampleReport)
	require.NoError(t, err)

	want := []domain.ClassifiedResult{{
		Location:          "Texas",
		ReportedCapacity:  intPtr(150),
		PredictedCapacity: floatPtr(160),
		Status:            domain.StatusNormal,
	}}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, pred.inputs, 1)
	assert.Equal(t, []float64{5.2, 30, 0, 0, 200, 0, 1}, pred.inputs[0])
}

func TestProcess_PreservesBlockOrder(t *testing.T) {
	text := "Plant Capacity: 69\nLocation: Texas\n\n" +
		"Plant Capacity: 85\nLocation: Nevada\n\n" +
		"Report footer without values\n\n" +
		"Plant Capacity: 75\nLocation: Arizona"
	p := newTestPipeline(t, &recordingPredictor{value: 100}, nil, nil)

	results, err := p.Process(context.Background(), text)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "Texas", results[0].Location)
	assert.Equal(t, domain.StatusUnderproductionPossible, results[0].Status)
	assert.Equal(t, "Nevada", results[1].Location)
	assert.Equal(t, domain.StatusNormal, results[1].Status)
	assert.Equal(t, "Arizona", results[2].Location)
	assert.Equal(t, domain.StatusSuspicious, results[2].Status)
}

func TestProcess_IrradianceOutOfRangeSkipsPrediction(t *testing.T) {
	pred := &recordingPredictor{value: 100}
	p := newTestPipeline(t, pred, nil, nil)

	results, err := p.Process(context.Background(), "Solar Irradiance: 1.5\nPlant Capacity: 100\nLocation: Nevada")
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusIrradianceOutOfRange, results[0].Status)
	assert.Nil(t, results[0].PredictedCapacity)
	assert.Equal(t, 100, *results[0].ReportedCapacity)
	assert.Zero(t, pred.calls())
}

func TestProcess_IrradianceBounds(t *testing.T) {
	p := newTestPipeline(t, &recordingPredictor{value: 100}, nil, nil)

	results, err := p.Process(context.Background(),
		"Solar Irradiance: 7.0\nPlant Capacity: 100\n\nSolar Irradiance: 7.1\nPlant Capacity: 100")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, domain.StatusNormal, results[0].Status)
	assert.Equal(t, domain.StatusIrradianceOutOfRange, results[1].Status)
}

func TestProcess_UnknownLocationUsesBaseline(t *testing.T) {
	pred := &recordingPredictor{value: 100}
	p := newTestPipeline(t, pred, nil, nil)

	results, err := p.Process(context.Background(), "Energy Input: 180\nPlant Capacity: 100\nLocation: Atlantis")
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Atlantis", results[0].Location)
	assert.Equal(t, []float64{0, 0, 0, 0, 180, 0, 0}, pred.inputs[0])
}

func TestProcess_MissingReportedCapacity(t *testing.T) {
	p := newTestPipeline(t, &recordingPredictor{value: 123.456}, nil, nil)

	results, err := p.Process(context.Background(), "Solar Irradiance: 4\nTemperature: 22")
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, domain.UnknownLocation, results[0].Location)
	assert.Nil(t, results[0].ReportedCapacity)
	require.NotNil(t, results[0].PredictedCapacity)
	assert.InDelta(t, 123.46, *results[0].PredictedCapacity, 1e-9)
	assert.Equal(t, domain.StatusUnknown, results[0].Status)
}

func TestProcess_ClassifiesOnUnroundedPrediction(t *testing.T) {
	// 0.7 * 100.004 = 70.0028, so 70 is below the threshold even though the
	// published prediction rounds to 100.
	p := newTestPipeline(t, &recordingPredictor{value: 100.004}, nil, nil)

	results, err := p.Process(context.Background(), "Plant Capacity: 70")
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.InDelta(t, 100.0, *results[0].PredictedCapacity, 1e-9)
	assert.Equal(t, domain.StatusUnderproductionPossible, results[0].Status)
}

func TestProcess_EmptyDocument(t *testing.T) {
	pred := &recordingPredictor{value: 100}
	p := newTestPipeline(t, pred, nil, nil)

	results, err := p.Process(context.Background(), "  \n\n  ")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Zero(t, pred.calls())
}

func TestProcess_PredictorErrorAbortsDocument(t *testing.T) {
	pred := &recordingPredictor{err: model.ErrFeatureMismatch}
	p := newTestPipeline(t, pred, nil, nil)

	_, err := p.Process(context.Background(), "Plant Capacity: 10\n\nPlant Capacity: 20")
	require.ErrorIs(t, err, model.ErrFeatureMismatch)
	assert.Contains(t, err.Error(), "score record 1")
}

func TestProcess_Idempotent(t *testing.T) {
	p := newTestPipeline(t, &recordingPredictor{value: 140}, nil, nil)
	text := exampleReport + "Solar Irradiance: 9\nPlant Capacity: 10\n\nPlant Capacity: 200\nLocation: Nevada"

	first, err := p.Process(context.Background(), text)
	require.NoError(t, err)
	second, err := p.Process(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestProcess_ConcurrentCallsShareModel(t *testing.T) {
	p := newTestPipeline(t, &recordingPredictor{value: 160}, nil, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := p.Process(context.Background(), exampleReport)
			if err == nil && (len(results) != 1 || results[0].Status != domain.StatusNormal) {
				err = errors.New("unexpected results")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	p := newTestPipeline(t, &recordingPredictor{value: 100}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, exampleReport)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcess_WithTrainedLinearModel(t *testing.T) {
	schema, err := model.NewSchema([]string{model.ColSolarIrradiance, model.ColEnergyInput, "Location_Texas"})
	require.NoError(t, err)
	lm := &model.LinearModel{Coefficients: []float64{10, 0.5, 18}}

	p, err := pipeline.New(&model.Artifacts{Model: lm, Schema: schema}, nil, nil,
		domain.DefaultTolerance, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	// 52 + 100 + 18 = 170
	results, err := p.Process(context.Background(), exampleReport)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 170, *results[0].PredictedCapacity, 1e-9)
	assert.Equal(t, domain.StatusNormal, results[0].Status)
}

func TestNew_Validation(t *testing.T) {
	schema, err := model.NewSchema(featureNames)
	require.NoError(t, err)
	metrics := observability.NewMetricsForTesting()

	_, err = pipeline.New(nil, nil, nil, 0.2, discardLogger(), metrics)
	require.ErrorIs(t, err, model.ErrPredictorUnavailable)

	_, err = pipeline.New(&model.Artifacts{Schema: schema}, nil, nil, 0.2, discardLogger(), metrics)
	require.ErrorIs(t, err, model.ErrPredictorUnavailable)

	_, err = pipeline.New(&model.Artifacts{Model: &recordingPredictor{}}, nil, nil, 0.2, discardLogger(), metrics)
	require.ErrorIs(t, err, model.ErrFeatureListUnavailable)

	_, err = pipeline.New(&model.Artifacts{Model: &recordingPredictor{}, Schema: schema}, nil, nil, 0, discardLogger(), metrics)
	require.Error(t, err)
}

func TestCheckReadiness(t *testing.T) {
	p := newTestPipeline(t, &recordingPredictor{}, nil, nil)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestAudit_BuildsAndPublishesReport(t *testing.T) {
	pub := &mockPublisher{}
	p := newTestPipeline(t, &recordingPredictor{value: 160}, &mockExtractor{text: exampleReport}, pub)
	data := []byte("%PDF-1.7 fake")

	report, err := p.Audit(context.Background(), "march.pdf", data)
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentID(data), report.ID)
	assert.Equal(t, "march.pdf", report.Source)
	require.Len(t, report.Results, 1)
	assert.Equal(t, map[domain.Status]int{domain.StatusNormal: 1}, report.Summary)
	require.Len(t, pub.reports, 1)
	assert.Equal(t, report.ID, pub.reports[0].ID)
}

func TestAudit_PublishFailureDoesNotFailAudit(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	p := newTestPipeline(t, &recordingPredictor{value: 160}, &mockExtractor{text: exampleReport}, pub)

	report, err := p.Audit(context.Background(), "march.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Len(t, report.Results, 1)
	assert.Len(t, pub.reports, 1)
}

func TestAudit_UnreadableDocument(t *testing.T) {
	pub := &mockPublisher{}
	p := newTestPipeline(t, &recordingPredictor{}, &mockExtractor{err: errors.New("bad xref")}, pub)

	_, err := p.Audit(context.Background(), "broken.pdf", []byte("garbage"))
	require.ErrorIs(t, err, pipeline.ErrUnreadableDocument)
	assert.Contains(t, err.Error(), "bad xref")
	assert.Empty(t, pub.reports)
}

func TestAudit_WithoutExtractor(t *testing.T) {
	p := newTestPipeline(t, &recordingPredictor{}, nil, nil)

	_, err := p.Audit(context.Background(), "x.pdf", []byte("%PDF"))
	require.Error(t, err)
}
