package ioformats

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sitenav/internal/models"
)

// Step actions understood by a walk.
const (
	ActionOpen     = "open"
	ActionClick    = "click"
	ActionNavigate = "navigate"
	ActionBack     = "back"
	ActionForward  = "forward"
	ActionTheme    = "theme"
	ActionMenu     = "menu"
)

var targeted = map[string]bool{
	ActionOpen:     true,
	ActionClick:    true,
	ActionNavigate: true,
	ActionBack:     false,
	ActionForward:  false,
	ActionTheme:    false,
	ActionMenu:     false,
}

// ParseStep reads a step written as "action [target]", e.g.
// "click #to-work" or "back".
func ParseStep(line string) (models.Step, error) {
	action, target, _ := strings.Cut(strings.TrimSpace(line), " ")
	return Validate(models.Step{Action: action, Target: strings.TrimSpace(target)})
}

// Validate normalizes the action name and checks the target is present
// exactly when the action needs one.
func Validate(s models.Step) (models.Step, error) {
	s.Action = strings.ToLower(strings.TrimSpace(s.Action))
	s.Target = strings.TrimSpace(s.Target)
	needs, ok := targeted[s.Action]
	switch {
	case !ok:
		return s, fmt.Errorf("unknown step action %q", s.Action)
	case needs && s.Target == "":
		return s, fmt.Errorf("step %q needs a target", s.Action)
	case !needs && s.Target != "":
		return s, fmt.Errorf("step %q takes no target", s.Action)
	}
	return s, nil
}

// ReadSteps reads a walk script from a CSV (expects header with "action"
// and optionally "target") or NDJSON file. If ext cannot be determined,
// tries CSV first then NDJSON.
func ReadSteps(path string) ([]models.Step, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".ndjson", ".jsonl":
		return ReadNDJSON(f)
	default:
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		if steps, err := ReadCSV(strings.NewReader(string(data))); err == nil && len(steps) > 0 {
			return steps, nil
		}
		return ReadNDJSON(strings.NewReader(string(data)))
	}
}

func ReadCSV(r io.Reader) ([]models.Step, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}
	actionCol, targetCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "action":
			actionCol = i
		case "target":
			targetCol = i
		}
	}
	if actionCol == -1 {
		return nil, errors.New("csv must contain an 'action' header column")
	}
	var out []models.Step
	for n, row := range rows[1:] {
		if actionCol >= len(row) || strings.TrimSpace(row[actionCol]) == "" {
			continue
		}
		s := models.Step{Action: row[actionCol]}
		if targetCol >= 0 && targetCol < len(row) {
			s.Target = row[targetCol]
		}
		s, err := Validate(s)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", n+2, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func ReadNDJSON(r io.Reader) ([]models.Step, error) {
	var out []models.Step
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// allow {"action": "...", "target": "..."} or a raw "action target" line
		var s models.Step
		var err error
		if strings.HasPrefix(line, "{") {
			if err = json.Unmarshal([]byte(line), &s); err == nil {
				s, err = Validate(s)
			}
		} else {
			s, err = ParseStep(line)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no steps found in ndjson")
	}
	return out, nil
}

// WriteNDJSON writes any JSON-marshalable items as NDJSON to w.
func WriteNDJSON[T any](w io.Writer, items ...T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}
