package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/rustyeddy/forecast-trader/internal/logging"
)

// Predictor forecasts the next stepsAhead prices of an instrument from
// its last seqLength observations.
type Predictor interface {
	Predict(ctx context.Context, instrument string, stepsAhead, seqLength int) ([]float64, error)
}

// PredictOrEmpty calls p and turns any failure into an empty forecast.
// A missing forecast is a normal condition for the simulator.
func PredictOrEmpty(ctx context.Context, p Predictor, logger *zap.Logger, instrument string, stepsAhead, seqLength int) []float64 {
	if p == nil {
		return nil
	}
	out, err := p.Predict(ctx, instrument, stepsAhead, seqLength)
	if err != nil {
		logging.OrNop(logger).Warn("prediction unavailable",
			zap.String("instrument", instrument),
			zap.Error(err),
		)
		return nil
	}
	return out
}

// CSVPredictor reads a precomputed forecast from Pred_<instrument>.csv
// in Dir: one column, optionally headed "predicted". The file is taken
// as already aligned with the downsampled history, so the horizon
// arguments are ignored.
type CSVPredictor struct {
	Dir string
}

func (p CSVPredictor) Path(instrument string) string {
	return filepath.Join(p.Dir, "Pred_"+instrument+".csv")
}

func (p CSVPredictor) Predict(_ context.Context, instrument string, _, _ int) ([]float64, error) {
	f, err := os.Open(p.Path(instrument))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vals, err := readColumn(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", instrument, err)
	}
	return vals, nil
}

func readColumn(r io.Reader) ([]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var out []float64
	for first := true; ; first = false {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if first && strings.EqualFold(cell, "predicted") {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("bad prediction %q: %w", cell, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// HTTPPredictor queries a model server:
//
//	GET /predict?ticker=..&steps=..&seq_length=..  ->  {"predictions":[...]}
type HTTPPredictor struct {
	client *resty.Client
}

func NewHTTPPredictor(baseURL string, timeout time.Duration) *HTTPPredictor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)
	return &HTTPPredictor{client: client}
}

func (p *HTTPPredictor) Predict(ctx context.Context, instrument string, stepsAhead, seqLength int) ([]float64, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ticker":     instrument,
			"steps":      strconv.Itoa(stepsAhead),
			"seq_length": strconv.Itoa(seqLength),
		}).
		Get("/predict")
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", instrument, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("predict %s: status %d: %s", instrument, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	preds := gjson.GetBytes(resp.Body(), "predictions")
	if !preds.IsArray() {
		return nil, fmt.Errorf("predict %s: response has no predictions array", instrument)
	}
	var out []float64
	for _, v := range preds.Array() {
		if v.Type != gjson.Number {
			return nil, fmt.Errorf("predict %s: non-numeric prediction %s", instrument, v.Raw)
		}
		out = append(out, v.Float())
	}
	return out, nil
}
