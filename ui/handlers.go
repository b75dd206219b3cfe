package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"qcgen/adapters/report"
	"qcgen/adapters/westgard"
	"qcgen/app"
	"qcgen/domain/qc"
	"qcgen/internal/errors"
)

const maxBodyBytes = 1 << 20

// runRequest selects run parameters: defaults, optionally a named preset,
// then any fields given in params overlaid on top.
type runRequest struct {
	Preset string          `json:"preset,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Rules  *qc.RuleSet     `json:"rules,omitempty"`
}

// sequenceRequest carries a caller-supplied sequence. When Values is empty
// the embedded run request is generated instead.
type sequenceRequest struct {
	runRequest
	Values []float64 `json:"values,omitempty"`
	Target float64   `json:"target,omitempty"`
	SD     float64   `json:"sd,omitempty"`
}

type simulateRequest struct {
	runRequest
	Runs    int     `json:"runs"`
	Seed    *uint64 `json:"seed,omitempty"`
	Workers int     `json:"workers,omitempty"`
}

type runResponse struct {
	*qc.Run
	Chart westgard.Chart `json:"chart"`
}

type ruleInfo struct {
	ID          qc.RuleID `json:"id"`
	Window      int       `json:"window"`
	Description string    `json:"description"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleRules(w http.ResponseWriter, r *http.Request) {
	rules := westgard.Rules()
	out := make([]ruleInfo, len(rules))
	for i, rule := range rules {
		out[i] = ruleInfo{ID: rule.ID, Window: rule.Window, Description: rule.Description}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.presets.List())
}

func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	run, err := a.generate(r, req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRunResponse(run))
}

func (a *App) handleRunForm(w http.ResponseWriter, r *http.Request) {
	params, rules, err := ParseForm(r.URL.Query(), a.defaults, a.lenient)
	if err != nil {
		a.writeError(w, err)
		return
	}
	run, err := a.qc.Run(r.Context(), params, rules)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(run))
}

func (a *App) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req sequenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	if err := validateSequence(req); err != nil {
		a.writeError(w, err)
		return
	}
	enabled := qc.AllRulesEnabled()
	if req.Rules != nil {
		enabled = *req.Rules
	}
	writeJSON(w, http.StatusOK, a.qc.Evaluate(req.Values, req.Target, req.SD, enabled))
}

func (a *App) handleChart(w http.ResponseWriter, r *http.Request) {
	var req sequenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	if len(req.Values) > 0 {
		if err := validateSequence(req); err != nil {
			a.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, westgard.LeveyJennings(req.Values, req.Target, req.SD))
		return
	}
	run, err := a.generate(r, req.runRequest)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, westgard.LeveyJennings(run.Values, run.Params.Target, run.StdDev))
}

func (a *App) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	params, rules, err := a.resolve(req.runRequest)
	if err != nil {
		a.writeError(w, err)
		return
	}
	result, err := a.simulator.Simulate(r.Context(), app.SimulationRequest{
		Params:  params,
		Enabled: rules,
		Runs:    req.Runs,
		Seed:    req.Seed,
		Workers: req.Workers,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	exporter, ok := a.exporters[chi.URLParam(r, "format")]
	if !ok {
		a.writeError(w, errors.NotFound("export format "+chi.URLParam(r, "format")))
		return
	}

	var req sequenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	values := req.Values
	if len(values) == 0 {
		run, err := a.generate(r, req.runRequest)
		if err != nil {
			a.writeError(w, err)
			return
		}
		values = run.Values
	}

	// Buffer so a failed export still gets a JSON error instead of a truncated file
	var buf bytes.Buffer
	if err := exporter.Export(&buf, values); err != nil {
		a.writeError(w, err)
		return
	}
	filename := fmt.Sprintf("qc_data_%s%s", time.Now().UTC().Format("20060102_150405"), exporter.Extension())
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	run, err := a.generate(r, req)
	if err != nil {
		a.writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(report.Markdown(run)))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(report.HTML(run))
}

func (a *App) generate(r *http.Request, req runRequest) (*qc.Run, error) {
	params, rules, err := a.resolve(req)
	if err != nil {
		return nil, err
	}
	return a.qc.Run(r.Context(), params, rules)
}

// resolve applies defaults, then the preset, then explicit params
func (a *App) resolve(req runRequest) (qc.Params, qc.RuleSet, error) {
	params := a.defaults
	rules := qc.AllRulesEnabled()

	if req.Preset != "" {
		preset, err := a.presets.Get(req.Preset)
		if err != nil {
			return qc.Params{}, 0, err
		}
		if params, err = preset.Params(a.defaults.NumPoints, a.lenient); err != nil {
			return qc.Params{}, 0, err
		}
		if rules, err = preset.RuleSet(); err != nil {
			return qc.Params{}, 0, err
		}
	}
	if len(req.Params) > 0 {
		dec := json.NewDecoder(bytes.NewReader(req.Params))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&params); err != nil {
			return qc.Params{}, 0, asInputError(err)
		}
	}
	if req.Rules != nil {
		rules = *req.Rules
	}
	return params, rules, nil
}

func validateSequence(req sequenceRequest) error {
	if math.IsNaN(req.Target) || math.IsInf(req.Target, 0) {
		return errors.InvalidParameter("target", "must be finite")
	}
	if !(req.SD > 0) || math.IsInf(req.SD, 0) {
		return errors.InvalidParameter("sd", "must be a finite positive number, got %v", req.SD)
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return asInputError(err)
	}
	return nil
}

// asInputError keeps domain errors raised by custom unmarshalers and turns
// anything else into INVALID_INPUT.
func asInputError(err error) error {
	if errors.GetCode(err) != "UNKNOWN" {
		return err
	}
	return errors.InvalidInput("malformed request body: " + err.Error())
}

func newRunResponse(run *qc.Run) runResponse {
	return runResponse{Run: run, Chart: westgard.LeveyJennings(run.Values, run.Params.Target, run.StdDev)}
}
