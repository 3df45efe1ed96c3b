// Package usage keeps a capped JSON history of LLM token usage and estimates its cost.
package usage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jonathan/blog-autopilot/internal/llm"
	"github.com/jonathan/blog-autopilot/internal/logger"
)

// MaxEntries bounds the history; older entries are dropped first
const MaxEntries = 1000

// Record is one tracked completion
type Record struct {
	Timestamp        time.Time `json:"timestamp"`
	Provider         string    `json:"provider,omitempty"`
	Operation        string    `json:"operation"`
	Model            string    `json:"model"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalTokens      int64     `json:"total_tokens"`
	Topic            string    `json:"topic,omitempty"`
}

// Price is the USD cost per million tokens
type Price struct {
	Input  float64
	Output float64
}

// Prices are the per-model estimates used by Cost. Unknown models use DefaultPrice.
var Prices = map[string]Price{
	"gpt-4o-mini":           {Input: 0.15, Output: 0.60},
	"gpt-4o":                {Input: 2.50, Output: 10.00},
	"gemini-2.5-flash-lite": {Input: 0.10, Output: 0.40},
	"gemini-2.5-flash":      {Input: 0.30, Output: 2.50},
	"gemini-2.5-pro":        {Input: 1.25, Output: 10.00},
	"sonar-pro":             {Input: 3.00, Output: 15.00},
}

// DefaultPrice is a flat blended rate
var DefaultPrice = Price{Input: 0.30, Output: 0.30}

// Cost estimates the USD cost of r
func Cost(r Record) float64 {
	p, ok := Prices[r.Model]
	if !ok {
		p = DefaultPrice
	}
	prompt, completion := r.PromptTokens, r.CompletionTokens
	if prompt == 0 && completion == 0 {
		prompt = r.TotalTokens
	}
	return (float64(prompt)*p.Input + float64(completion)*p.Output) / 1_000_000
}

// Tracker appends usage records to a JSON file. It is safe for concurrent use.
// An empty path keeps the history in memory only.
type Tracker struct {
	path    string
	log     *logger.Logger
	mu      sync.Mutex
	entries []Record
	topic   string
}

// Open loads the history at path; a missing file starts empty
func Open(path string, log *logger.Logger) (*Tracker, error) {
	t := &Tracker{path: path, log: logger.OrNop(log)}
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read usage history: %w", err)
	}
	if len(data) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(data, &t.entries); err != nil {
		return nil, fmt.Errorf("failed to parse usage history: %w", err)
	}
	return t, nil
}

// SetTopic labels subsequent records with topic
func (t *Tracker) SetTopic(topic string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.topic = topic
}

// RecordUsage implements llm.UsageRecorder. Save failures are logged.
func (t *Tracker) RecordUsage(u llm.Usage) {
	t.mu.Lock()
	topic := t.topic
	t.mu.Unlock()

	err := t.Record(Record{
		Timestamp:        u.Timestamp,
		Provider:         string(u.Provider),
		Operation:        u.Operation,
		Model:            u.Model,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
		Topic:            topic,
	})
	if err != nil {
		t.log.Warn("failed to save usage history", "path", t.path, "error", err)
	}
}

// Record appends r and persists the history
func (t *Tracker) Record(r Record) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	if r.Operation == "" {
		r.Operation = "unknown"
	}
	if r.TotalTokens == 0 {
		r.TotalTokens = r.PromptTokens + r.CompletionTokens
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, r)
	if len(t.entries) > MaxEntries {
		t.entries = append([]Record(nil), t.entries[len(t.entries)-MaxEntries:]...)
	}
	return t.save()
}

func (t *Tracker) save() error {
	if t.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("failed to create usage directory: %w", err)
	}
	data, err := json.MarshalIndent(t.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode usage history: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write usage history: %w", err)
	}
	return nil
}

// History returns the last n records, oldest first. n <= 0 returns all.
func (t *Tracker) History(n int) []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := 0
	if n > 0 && n < len(t.entries) {
		start = len(t.entries) - n
	}
	return append([]Record(nil), t.entries[start:]...)
}

// Totals aggregates a group of records
type Totals struct {
	Count            int     `json:"count"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	EstimatedCost    float64 `json:"estimated_cost_usd"`
}

func (s *Totals) add(r Record) {
	s.Count++
	s.PromptTokens += r.PromptTokens
	s.CompletionTokens += r.CompletionTokens
	s.TotalTokens += r.TotalTokens
	s.EstimatedCost += Cost(r)
}

// Summary aggregates the whole history
type Summary struct {
	Totals
	ByOperation map[string]Totals `json:"by_operation"`
	ByModel     map[string]Totals `json:"by_model"`
	Recent      []Record          `json:"recent"`
}

// Operations returns the operation names sorted by total tokens, highest first
func (s Summary) Operations() []string {
	ops := make([]string, 0, len(s.ByOperation))
	for op := range s.ByOperation {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		a, b := s.ByOperation[ops[i]], s.ByOperation[ops[j]]
		if a.TotalTokens != b.TotalTokens {
			return a.TotalTokens > b.TotalTokens
		}
		return ops[i] < ops[j]
	})
	return ops
}

// Summary returns totals overall, per operation, and per model, plus the 10 latest records
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		ByOperation: map[string]Totals{},
		ByModel:     map[string]Totals{},
	}
	for _, r := range t.entries {
		s.Totals.add(r)

		op := s.ByOperation[r.Operation]
		op.add(r)
		s.ByOperation[r.Operation] = op

		m := s.ByModel[r.Model]
		m.add(r)
		s.ByModel[r.Model] = m
	}

	start := len(t.entries) - 10
	if start < 0 {
		start = 0
	}
	s.Recent = append([]Record(nil), t.entries[start:]...)
	return s
}
