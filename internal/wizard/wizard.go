package wizard

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/spboyer/splitlab/internal/scaffold"
)

// ExperimentDraft holds all fields collected during the interactive wizard.
type ExperimentDraft struct {
	Name            string
	Variants        []string
	TrafficSplit    float64
	MinSampleSize   int
	MaxDurationSec  int
	ScoringEnabled  bool
	SegmentTracking bool
}

// RunExperimentWizard collects an experiment definition interactively.
// If initialName is non-empty, it pre-populates the name field. When in is
// not a terminal (tests, piped input) it falls back to plain line prompts.
func RunExperimentWizard(in io.Reader, out io.Writer, initialName string) (*ExperimentDraft, error) {
	defaultMinSample, defaultMaxDuration, defaultSplit := scaffold.ReadProjectDefaults()

	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return runLineWizard(in, out, initialName, defaultMinSample, defaultMaxDuration, defaultSplit)
	}

	var (
		name         = initialName
		variantsRaw  = "control, treatment"
		splitRaw     = strconv.FormatFloat(defaultSplit, 'g', -1, 64)
		minSampleRaw = strconv.Itoa(defaultMinSample)
		durationRaw  = strconv.Itoa(defaultMaxDuration)
		scoring      = true
		segments     = true
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Experiment name").
				Description("A kebab-case name; it also feeds variant assignment").
				Placeholder("hero-copy").
				Value(&name).
				Validate(func(s string) error {
					return scaffold.ValidateName(strings.TrimSpace(s))
				}),
			huh.NewInput().
				Title("Variants").
				Description("Comma-separated variant labels, control first").
				Value(&variantsRaw).
				Validate(func(s string) error {
					if len(splitAndTrim(s)) < 2 {
						return fmt.Errorf("at least two variants are required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Traffic split").
				Description("Fraction of subjects routed to the second variant").
				Value(&splitRaw).
				Validate(validateSplit),
			huh.NewInput().
				Title("Minimum sample size").
				Value(&minSampleRaw).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Maximum duration (seconds)").
				Value(&durationRaw).
				Validate(validatePositiveInt),
			huh.NewConfirm().
				Title("Enable engagement scoring?").
				Value(&scoring),
			huh.NewConfirm().
				Title("Track per-segment performance?").
				Value(&segments),
		),
	).
		WithInput(in).
		WithOutput(out)

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	split, _ := strconv.ParseFloat(strings.TrimSpace(splitRaw), 64)
	minSample, _ := strconv.Atoi(strings.TrimSpace(minSampleRaw))
	duration, _ := strconv.Atoi(strings.TrimSpace(durationRaw))

	return &ExperimentDraft{
		Name:            strings.TrimSpace(name),
		Variants:        splitAndTrim(variantsRaw),
		TrafficSplit:    split,
		MinSampleSize:   minSample,
		MaxDurationSec:  duration,
		ScoringEnabled:  scoring,
		SegmentTracking: segments,
	}, nil
}

// runLineWizard reads one answer per line. Blank answers take the shown
// default where one exists.
func runLineWizard(in io.Reader, out io.Writer, initialName string, defaultMinSample, defaultMaxDuration int, defaultSplit float64) (*ExperimentDraft, error) {
	scanner := bufio.NewScanner(in)
	readLine := func(prompt string) (string, error) {
		fmt.Fprintf(out, "%s: ", prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("unexpected end of input")
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	name := initialName
	if name == "" {
		v, err := readLine("Experiment name")
		if err != nil {
			return nil, err
		}
		name = v
	}
	if name == "" {
		return nil, fmt.Errorf("experiment name is required")
	}
	if err := scaffold.ValidateName(name); err != nil {
		return nil, err
	}

	variantsRaw, err := readLine("Variants (comma-separated, control first) [control, treatment]")
	if err != nil {
		return nil, err
	}
	if variantsRaw == "" {
		variantsRaw = "control, treatment"
	}
	variants := splitAndTrim(variantsRaw)
	if len(variants) < 2 {
		return nil, fmt.Errorf("at least two variants are required")
	}

	splitRaw, err := readLine(fmt.Sprintf("Traffic split [%g]", defaultSplit))
	if err != nil {
		return nil, err
	}
	if splitRaw == "" {
		splitRaw = strconv.FormatFloat(defaultSplit, 'g', -1, 64)
	}
	if err := validateSplit(splitRaw); err != nil {
		return nil, err
	}
	split, _ := strconv.ParseFloat(splitRaw, 64)

	minSample, err := readIntAnswer(readLine, fmt.Sprintf("Minimum sample size [%d]", defaultMinSample), defaultMinSample)
	if err != nil {
		return nil, err
	}

	duration, err := readIntAnswer(readLine, fmt.Sprintf("Maximum duration seconds [%d]", defaultMaxDuration), defaultMaxDuration)
	if err != nil {
		return nil, err
	}

	scoring, err := readBoolAnswer(readLine, "Enable engagement scoring? [y]")
	if err != nil {
		return nil, err
	}

	segments, err := readBoolAnswer(readLine, "Track per-segment performance? [y]")
	if err != nil {
		return nil, err
	}

	return &ExperimentDraft{
		Name:            name,
		Variants:        variants,
		TrafficSplit:    split,
		MinSampleSize:   minSample,
		MaxDurationSec:  duration,
		ScoringEnabled:  scoring,
		SegmentTracking: segments,
	}, nil
}

func readIntAnswer(readLine func(string) (string, error), prompt string, fallback int) (int, error) {
	raw, err := readLine(prompt)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return fallback, nil
	}
	if err := validatePositiveInt(raw); err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}

func readBoolAnswer(readLine func(string) (string, error), prompt string) (bool, error) {
	raw, err := readLine(prompt)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(raw) {
	case "", "y", "yes", "true":
		return true, nil
	case "n", "no", "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid answer %q: expected y or n", raw)
	}
}

func validateSplit(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || v > 1 {
		return fmt.Errorf("invalid traffic split %q: expected a number in [0, 1]", s)
	}
	return nil
}

func validatePositiveInt(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 1 {
		return fmt.Errorf("invalid value %q: expected a positive integer", s)
	}
	return nil
}

// GenerateExperimentYAML renders a spec file from the given draft.
func GenerateExperimentYAML(draft *ExperimentDraft) string {
	return scaffold.ExperimentYAML(
		draft.Name,
		draft.Variants,
		draft.TrafficSplit,
		draft.MinSampleSize,
		draft.MaxDurationSec,
		draft.ScoringEnabled,
		draft.SegmentTracking,
	)
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
