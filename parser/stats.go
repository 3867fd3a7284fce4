package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Stats is the solver's timing report.
type Stats struct {
	// Phases maps each reported phase ("searching, evaluating 11 states...")
	// to its duration, in report order.
	Phases []Phase

	// Total is the reported total time, zero when absent.
	Total time.Duration
}

// Phase is one line of the timing report.
type Phase struct {
	Name     string
	Duration time.Duration
}

const statsPattern = `(?m)^\s*(?:time spent:)?\s*([0-9]+(?:\.[0-9]+)?) seconds (.+?)\s*$`

// ParseStats extracts timing lines of the form "0.01 seconds total time".
// Output without a timing report yields empty Stats.
func ParseStats(output string) (Stats, error) {
	groups, err := ExtractGroups([]byte(output), statsPattern)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	for _, g := range groups {
		secs, err := strconv.ParseFloat(g[1], 64)
		if err != nil {
			return Stats{}, fmt.Errorf("bad duration %q: %w", g[1], err)
		}
		d := time.Duration(math.Round(secs * float64(time.Second)))
		name := strings.TrimSpace(g[2])
		if name == "total time" {
			st.Total = d
			continue
		}
		st.Phases = append(st.Phases, Phase{Name: name, Duration: d})
	}
	return st, nil
}

// ExtractGroups extracts all submatch groups of pattern from data.
func ExtractGroups(data []byte, pattern string) ([][]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern: %w", err)
	}

	return re.FindAllStringSubmatch(string(data), -1), nil
}
