package validation

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"locate-mcp/internal/ticket"
)

// Result is the outcome of one validation pass.
type Result struct {
	// IsValid is true when nothing required is missing. Warnings and
	// recommendations never flip it.
	IsValid bool `json:"is_valid"`
	// Gaps lists everything missing or suspect, most blocking first.
	Gaps []ticket.ValidationGap `json:"gaps"`
	// ValidatedFields names the populated fields no gap implicated.
	ValidatedFields []string `json:"validated_fields"`
	// Score is weighted completeness in [0, 1].
	Score float64 `json:"score"`
	// ElapsedMS is how long the pass took, cache hits included.
	ElapsedMS float64 `json:"elapsed_ms"`
}

var (
	// ErrNilTicket is returned when asked to validate nothing.
	ErrNilTicket = errors.New("cannot validate a nil ticket")
	// ErrNilFields is returned for a nil field map.
	ErrNilFields = errors.New("cannot validate a nil field map")
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 5 * time.Minute
)

// Engine runs validation passes with memoization. Safe for concurrent use.
type Engine struct {
	cache *resultCache
	now   func() time.Time
}

// NewEngine builds an engine with the default cache bounds.
func NewEngine() *Engine {
	return &Engine{
		cache: newResultCache(defaultCacheSize, defaultCacheTTL),
		now:   time.Now,
	}
}

// Validate runs a full pass over a ticket's business fields.
func (e *Engine) Validate(t *ticket.Ticket) (Result, error) {
	if t == nil {
		return Result{}, ErrNilTicket
	}
	return e.validate(t.FieldMap())
}

// ValidateFields runs a pass over a bare field map, e.g. a partial draft
// still being assembled in conversation.
func (e *Engine) ValidateFields(fields map[string]any) (Result, error) {
	if fields == nil {
		return Result{}, ErrNilFields
	}
	normalized := make(map[string]any, len(fields))
	for name, v := range fields {
		normalized[ticket.NormalizeFieldName(name)] = v
	}
	return e.validate(normalized)
}

// NextPrompt returns the single highest-priority question to ask the caller,
// or false when the ticket needs nothing more.
func (e *Engine) NextPrompt(t *ticket.Ticket) (string, bool) {
	res, err := e.Validate(t)
	if err != nil {
		return "", false
	}
	for _, g := range res.Gaps {
		if g.Prompt != "" {
			return g.Prompt, true
		}
	}
	return "", false
}

func (e *Engine) validate(fields map[string]any) (Result, error) {
	start := e.now()
	key := cacheKey(fields)

	if res, ok := e.cache.get(key); ok {
		res.ElapsedMS = elapsedMS(e.now().Sub(start))
		log.Debug().Str("key", key[:12]).Msg("Validation cache hit")
		return res, nil
	}

	gaps := PrioritizeGaps(AnalyzeFieldGaps(fields, e.now()))

	res := Result{
		IsValid:         !hasRequired(gaps),
		Gaps:            gaps,
		ValidatedFields: validatedFields(fields, gaps),
		Score:           score(fields, gaps),
	}
	e.cache.put(key, res)
	res.ElapsedMS = elapsedMS(e.now().Sub(start))
	return res, nil
}

func hasRequired(gaps []ticket.ValidationGap) bool {
	for _, g := range gaps {
		if g.Severity == ticket.SeverityRequired {
			return true
		}
	}
	return false
}

// validatedFields lists populated fields that came through with no gap of
// any severity against them.
func validatedFields(fields map[string]any, gaps []ticket.ValidationGap) []string {
	flagged := make(map[string]bool, len(gaps))
	for _, g := range gaps {
		flagged[g.FieldName] = true
	}
	var out []string
	for _, rule := range fieldRules {
		v, present := fields[rule.Name]
		if present && !isEmpty(v) && !flagged[rule.Name] {
			out = append(out, rule.Name)
		}
	}
	sort.Strings(out)
	return out
}

// score weighs populated fields against the full rule table: required fields
// weigh 3.0, recommended 2.0, everything else 0.5. A field only counts while
// no required or recommended gap names it.
func score(fields map[string]any, gaps []ticket.ValidationGap) float64 {
	blocked := make(map[string]bool)
	for _, g := range gaps {
		if g.Severity == ticket.SeverityRequired || g.Severity == ticket.SeverityRecommended {
			blocked[g.FieldName] = true
		}
	}

	var achieved float64
	for _, rule := range fieldRules {
		v, present := fields[rule.Name]
		if present && !isEmpty(v) && !blocked[rule.Name] {
			achieved += rule.Weight()
		}
	}

	s := achieved / totalWeight
	return math.Max(0, math.Min(1, s))
}

func elapsedMS(d time.Duration) float64 {
	return math.Round(float64(d.Microseconds())/10) / 100
}
