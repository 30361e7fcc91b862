package spapi

import (
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templateFS embed.FS

// payloadTemplate describes how to fabricate one endpoint's response body.
type payloadTemplate struct {
	ListKey  string                 `yaml:"list_key"`
	CountMin int                    `yaml:"count_min"`
	CountMax int                    `yaml:"count_max"`
	Envelope map[string]interface{} `yaml:"envelope"`
	Record   map[string]interface{} `yaml:"record"`
}

var directivePattern = regexp.MustCompile(`\{[a-z_]+(?::[^{}]*)?\}`)

const alnumCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generator fabricates endpoint response payloads from the embedded YAML
// templates. A non-zero seed makes the payload stream reproducible.
type Generator struct {
	templates map[string]payloadTemplate

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator parses the embedded templates. Seed 0 selects a time-based seed.
func NewGenerator(seed int64) (*Generator, error) {
	data, err := templateFS.ReadFile("templates.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read payload templates: %w", err)
	}

	templates := make(map[string]payloadTemplate)
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse payload templates: %w", err)
	}

	for id, tmpl := range templates {
		if tmpl.ListKey == "" {
			return nil, fmt.Errorf("payload template '%s' has no list_key", id)
		}
		if tmpl.Record == nil {
			return nil, fmt.Errorf("payload template '%s' has no record", id)
		}
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Generator{
		templates: templates,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Endpoints returns the endpoint IDs that have a template defined, sorted.
func (g *Generator) Endpoints() []string {
	ids := make([]string, 0, len(g.templates))
	for id := range g.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Generate fabricates a response body for the endpoint.
func (g *Generator) Generate(endpointID string) (json.RawMessage, error) {
	tmpl, ok := g.templates[endpointID]
	if !ok {
		return nil, fmt.Errorf("no payload template for endpoint '%s'", endpointID)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	count := tmpl.CountMin
	if tmpl.CountMax > tmpl.CountMin {
		count += g.rng.Intn(tmpl.CountMax - tmpl.CountMin + 1)
	}
	if count < 0 {
		count = 0
	}

	records := make([]interface{}, count)
	for i := range records {
		records[i] = g.materialize(tmpl.Record, count)
	}

	envelope, _ := g.materialize(tmpl.Envelope, count).(map[string]interface{})
	if envelope == nil {
		envelope = make(map[string]interface{})
	}

	if err := insertAtPath(envelope, tmpl.ListKey, records); err != nil {
		return nil, fmt.Errorf("failed to assemble payload for endpoint '%s': %w", endpointID, err)
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for endpoint '%s': %w", endpointID, err)
	}
	return data, nil
}

// materialize deep-copies a template value, resolving directives in strings.
// Map keys are walked in sorted order so a fixed seed draws the same value
// stream on every run.
func (g *Generator) materialize(value interface{}, count int) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		out := make(map[string]interface{}, len(v))
		for _, key := range keys {
			out[key] = g.materialize(v[key], count)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = g.materialize(val, count)
		}
		return out
	case string:
		return g.expand(v, count)
	default:
		return v
	}
}

// expand resolves directives inside a template string. A string that is
// exactly one directive may produce a typed JSON value (number, bool).
func (g *Generator) expand(s string, count int) interface{} {
	match := directivePattern.FindString(s)
	if match == "" {
		return s
	}
	if match == s {
		if v, ok := g.typedValue(strings.Trim(s, "{}"), count); ok {
			return v
		}
	}
	return directivePattern.ReplaceAllStringFunc(s, func(directive string) string {
		return g.stringValue(strings.Trim(directive, "{}"), count)
	})
}

// typedValue handles directives whose whole-string form emits a non-string.
func (g *Generator) typedValue(directive string, count int) (interface{}, bool) {
	name, arg := splitDirective(directive)
	switch name {
	case "int":
		lo, hi := parseRange(arg)
		return lo + g.rng.Intn(hi-lo+1), true
	case "bool":
		return g.rng.Intn(2) == 0, true
	case "count":
		return count, true
	}
	return nil, false
}

func (g *Generator) stringValue(directive string, count int) string {
	name, arg := splitDirective(directive)
	switch name {
	case "uuid":
		// Drawn from the seeded source so payloads stay reproducible
		u, err := uuid.NewRandomFromReader(g.rng)
		if err != nil {
			return uuid.NewString()
		}
		return u.String()
	case "order_id":
		return fmt.Sprintf("%s-%s-%s", g.digits(3), g.digits(7), g.digits(7))
	case "asin":
		return "B0" + g.alnum(8)
	case "sku":
		return "SKU-" + g.alnum(8)
	case "fnsku":
		return "X00" + g.alnum(7)
	case "digits":
		n, _ := strconv.Atoi(arg)
		if n <= 0 {
			n = 6
		}
		return g.digits(n)
	case "timestamp":
		offset := time.Duration(g.rng.Int63n(int64(7 * 24 * time.Hour)))
		return time.Now().UTC().Add(-offset).Format(time.RFC3339)
	case "date":
		offset := time.Duration(g.rng.Int63n(30*24)) * time.Hour
		return time.Now().UTC().Add(-offset).Format("2006-01-02")
	case "int":
		lo, hi := parseRange(arg)
		return strconv.Itoa(lo + g.rng.Intn(hi-lo+1))
	case "money":
		lo, hi := parseRange(arg)
		cents := lo*100 + g.rng.Intn((hi-lo)*100+1)
		return fmt.Sprintf("%d.%02d", cents/100, cents%100)
	case "choice":
		options := strings.Split(arg, "|")
		return options[g.rng.Intn(len(options))]
	case "bool":
		if g.rng.Intn(2) == 0 {
			return "true"
		}
		return "false"
	case "count":
		return strconv.Itoa(count)
	}
	// Unknown directives pass through unchanged so template typos are visible
	return "{" + directive + "}"
}

func (g *Generator) digits(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + g.rng.Intn(10))
	}
	return string(b)
}

func (g *Generator) alnum(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alnumCharset[g.rng.Intn(len(alnumCharset))]
	}
	return string(b)
}

func splitDirective(directive string) (name, arg string) {
	if idx := strings.Index(directive, ":"); idx >= 0 {
		return directive[:idx], directive[idx+1:]
	}
	return directive, ""
}

// parseRange parses "MIN-MAX" with lo <= hi guaranteed.
func parseRange(arg string) (lo, hi int) {
	parts := strings.SplitN(arg, "-", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	lo, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo, hi
}

// insertAtPath places value at a dot path inside the envelope, creating
// intermediate objects as needed.
func insertAtPath(envelope map[string]interface{}, path string, value interface{}) error {
	parts := strings.Split(path, ".")
	current := envelope
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok || next == nil {
			child := make(map[string]interface{})
			current[part] = child
			current = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("path segment '%s' is not an object", part)
		}
		current = child
	}
	current[parts[len(parts)-1]] = value
	return nil
}
