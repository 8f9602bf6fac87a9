// Package determine evaluates the service rule catalog against an inspection
// and produces the ordered list of determined services.
package determine

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rug-estimator/internal/category"
	"github.com/sells-group/rug-estimator/internal/model"
)

// ErrUnknownService is returned by Select for ids with no catalog rule.
var ErrUnknownService = eris.New("unknown service id")

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRules replaces the rule catalog. The slice is copied.
func WithRules(rules []Rule) Option {
	return func(e *Engine) {
		e.rules = make([]Rule, len(rules))
		copy(e.rules, rules)
	}
}

// Engine evaluates a fixed rule set. It holds no per-call state and is safe
// for concurrent use.
type Engine struct {
	rules []Rule
	log   *zap.Logger
}

// New creates an Engine over the compiled-in catalog.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules: Catalog(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// DetermineServices evaluates the compiled-in catalog against in.
func DetermineServices(in model.InspectionInput) model.ServiceDetermination {
	return defaultEngine.Determine(in)
}

// Determine evaluates every rule against in and assembles the determination.
func (e *Engine) Determine(in model.InspectionInput) model.ServiceDetermination {
	services := make([]model.DeterminedService, 0, len(e.rules))
	seen := make(map[string]bool, len(e.rules))

	for _, r := range e.rules {
		if seen[r.ID] || r.Condition == nil || !r.Condition(in) {
			continue
		}
		seen[r.ID] = true
		services = append(services, materialize(r, in))
	}
	sortByPrecedence(services)

	highCost := countCategory(services, model.CategoryHighCost)
	reasons := reviewReasons(in, highCost)

	d := model.ServiceDetermination{
		Services:            services,
		ConditionSummary:    conditionSummary(in.Conditions),
		RiskDisclosure:      riskDisclosure(highCost),
		RequiresStaffReview: len(reasons) > 0,
		ReviewReasons:       reasons,
	}

	e.log.Debug("determine: services determined",
		zap.Strings("service_ids", serviceIDs(services)),
		zap.Int("high_cost", highCost),
		zap.Bool("requires_review", d.RequiresStaffReview),
	)

	return d
}

// Select materializes the catalog rules named by ids for in, whether or not
// their conditions fire. Price, quantity and category always come from the
// catalog. Duplicate ids are collapsed; an id with no rule is an error.
func (e *Engine) Select(in model.InspectionInput, ids []string) ([]model.DeterminedService, error) {
	byID := make(map[string]Rule, len(e.rules))
	for _, r := range e.rules {
		if _, ok := byID[r.ID]; !ok {
			byID[r.ID] = r
		}
	}

	services := make([]model.DeterminedService, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	var unknown []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		r, ok := byID[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		services = append(services, materialize(r, in))
	}
	if len(unknown) > 0 {
		return nil, eris.Wrapf(ErrUnknownService, "determine: select %s", strings.Join(unknown, ", "))
	}
	sortByPrecedence(services)
	return services, nil
}

func materialize(r Rule, in model.InspectionInput) model.DeterminedService {
	rationale := ""
	if r.Rationale != nil {
		rationale = r.Rationale(in)
	}
	return model.NewDeterminedService(
		r.ID,
		r.Name,
		r.Category,
		rationale,
		quantity(r.PriceType, in.SquareFootage),
		r.PriceType,
		r.BasePrice,
		r.DeclineConsequence,
		r.Priority,
	)
}

func sortByPrecedence(services []model.DeterminedService) {
	sort.SliceStable(services, func(i, j int) bool {
		return category.Precedence(services[i].Category) < category.Precedence(services[j].Category)
	})
}

// reviewFlags are the condition flags that force staff review when severe.
var reviewFlags = []model.ConditionKey{
	model.ConditionHolesTears,
	model.ConditionColorRun,
	model.ConditionMothDamage,
	model.ConditionWear,
}

func reviewReasons(in model.InspectionInput, highCost int) []string {
	reasons := []string{}
	if highCost > 0 {
		reasons = append(reasons, pluralize(highCost, "structural or high-cost service", "structural or high-cost services")+" determined")
	}
	flags := make(map[model.ConditionKey]model.ConditionFlag)
	for _, f := range in.Conditions.Flags() {
		flags[f.Key] = f
	}
	for _, key := range reviewFlags {
		if f := flags[key]; f.Severity == model.SeveritySevere {
			reasons = append(reasons, "Severe "+f.Label+" observed")
		}
	}
	if in.Material.Value == model.ValueHeirloom {
		reasons = append(reasons, "Heirloom value item requires staff verification")
	}
	return reasons
}

func countCategory(services []model.DeterminedService, c model.Category) int {
	n := 0
	for _, s := range services {
		if s.Category == c {
			n++
		}
	}
	return n
}

func serviceIDs(services []model.DeterminedService) []string {
	ids := make([]string, len(services))
	for i, s := range services {
		ids[i] = s.ID
	}
	return ids
}
