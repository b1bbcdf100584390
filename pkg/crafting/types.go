// Package crafting contains the core types for the rocket capacity catalog.
package crafting

// ============================================
// GAME DATA TYPES
// ============================================

// Item is an item prototype as declared in the game data.
// Weight is in grams and FuelValue in joules. A zero Weight means the
// weight was not authored and has not been resolved yet.
type Item struct {
	Type                          string  `json:"type" mapstructure:"type"`
	Name                          string  `json:"name" mapstructure:"name"`
	Subgroup                      string  `json:"subgroup,omitempty" mapstructure:"subgroup"`
	Icon                          string  `json:"icon,omitempty" mapstructure:"icon"`
	StackSize                     int     `json:"stack_size" mapstructure:"stack_size"`
	Hidden                        bool    `json:"hidden,omitempty" mapstructure:"hidden"`
	Weight                        float64 `json:"weight,omitempty" mapstructure:"weight"`
	IngredientToWeightCoefficient float64 `json:"ingredient_to_weight_coefficient,omitempty" mapstructure:"ingredient_to_weight_coefficient"`
	FuelValue                     float64 `json:"fuel_value,omitempty" mapstructure:"fuel_value"`
	FuelCategory                  string  `json:"fuel_category,omitempty" mapstructure:"fuel_category"`
}

// HasWeight reports whether the item has an authored or resolved weight.
func (i *Item) HasWeight() bool {
	return i.Weight > 0
}

// Fluid is a fluid prototype. Fluids are not tradable; they are shipped
// as barrels.
type Fluid struct {
	Type               string  `json:"type" mapstructure:"type"`
	Name               string  `json:"name" mapstructure:"name"`
	Subgroup           string  `json:"subgroup,omitempty" mapstructure:"subgroup"`
	Icon               string  `json:"icon,omitempty" mapstructure:"icon"`
	Hidden             bool    `json:"hidden,omitempty" mapstructure:"hidden"`
	AutoBarrel         *bool   `json:"auto_barrel,omitempty" mapstructure:"auto_barrel"`
	DefaultTemperature float64 `json:"default_temperature,omitempty" mapstructure:"default_temperature"`
}

// Barrelable reports whether a barrel item should exist for the fluid.
func (f *Fluid) Barrelable() bool {
	if f.Hidden {
		return false
	}
	return f.AutoBarrel == nil || *f.AutoBarrel
}

// Ingredient types.
const (
	TypeItem  = "item"
	TypeFluid = "fluid"
)

// Recipe is a recipe prototype.
type Recipe struct {
	Type              string             `json:"type" mapstructure:"type"`
	Name              string             `json:"name" mapstructure:"name"`
	Category          string             `json:"category,omitempty" mapstructure:"category"`
	Subgroup          string             `json:"subgroup,omitempty" mapstructure:"subgroup"`
	EnergyRequired    float64            `json:"energy_required,omitempty" mapstructure:"energy_required"`
	Ingredients       []Ingredient       `json:"ingredients" mapstructure:"ingredients"`
	Results           []Result           `json:"results" mapstructure:"results"`
	AllowProductivity bool               `json:"allow_productivity,omitempty" mapstructure:"allow_productivity"`
	SurfaceConditions []SurfaceCondition `json:"surface_conditions,omitempty" mapstructure:"surface_conditions"`
}

// Ingredient is a recipe input.
type Ingredient struct {
	Type        string  `json:"type" mapstructure:"type"`
	Name        string  `json:"name" mapstructure:"name"`
	Amount      float64 `json:"amount" mapstructure:"amount"`
	Temperature int     `json:"temperature,omitempty" mapstructure:"temperature"`
}

// IsFluid reports whether the ingredient is a fluid.
func (i Ingredient) IsFluid() bool {
	return i.Type == TypeFluid
}

// Result is a recipe output.
type Result struct {
	Type        string   `json:"type" mapstructure:"type"`
	Name        string   `json:"name" mapstructure:"name"`
	Amount      float64  `json:"amount" mapstructure:"amount"`
	AmountMin   float64  `json:"amount_min,omitempty" mapstructure:"amount_min"`
	AmountMax   float64  `json:"amount_max,omitempty" mapstructure:"amount_max"`
	Probability *float64 `json:"probability,omitempty" mapstructure:"probability"`
	Temperature int      `json:"temperature,omitempty" mapstructure:"temperature"`
}

// Count returns the amount produced per craft, before probability.
// Ranged results count as the mean of their range.
func (r Result) Count() float64 {
	if r.Amount == 0 && r.AmountMax > 0 {
		return (r.AmountMin + r.AmountMax) / 2
	}
	return r.Amount
}

// Yield returns the effective amount produced per craft. A result without
// a probability is always produced; an explicit zero never is.
func (r Result) Yield() float64 {
	if r.Probability == nil {
		return r.Count()
	}
	return *r.Probability * r.Count()
}

// SurfaceCondition restricts where a recipe can be crafted.
type SurfaceCondition struct {
	Property string  `json:"property" mapstructure:"property"`
	Min      float64 `json:"min,omitempty" mapstructure:"min"`
	Max      float64 `json:"max,omitempty" mapstructure:"max"`
}

// DataPatch is a post-hoc modification of a recipe.
// Indexed takes precedence over Inserted, which takes precedence over a
// plain property replacement.
type DataPatch struct {
	RecipeName   string `json:"recipeName"`
	PropertyName string `json:"propertyName"`
	Value        any    `json:"value"`
	Indexed      *int   `json:"indexed,omitempty"`
	Inserted     bool   `json:"inserted,omitempty"`
	Line         int    `json:"line,omitempty"`
}

// ============================================
// CATALOG TYPES
// ============================================

// Surface is a planet or space platform.
type Surface string

const (
	SurfaceNauvis   Surface = "nauvis"
	SurfaceVulcanus Surface = "vulcanus"
	SurfaceGleba    Surface = "gleba"
	SurfaceFulgora  Surface = "fulgora"
	SurfaceAquilo   Surface = "aquilo"
	SurfaceSpace    Surface = "space"
)

// ValidSurfaces returns all known surfaces.
func ValidSurfaces() []Surface {
	return []Surface{
		SurfaceNauvis,
		SurfaceVulcanus,
		SurfaceGleba,
		SurfaceFulgora,
		SurfaceAquilo,
		SurfaceSpace,
	}
}

// IsValid checks if the surface is a known surface.
func (s Surface) IsValid() bool {
	for _, valid := range ValidSurfaces() {
		if s == valid {
			return true
		}
	}
	return false
}

// EnrichedItem is a tradable item with its rocket capacity and the
// recipes that produce it.
type EnrichedItem struct {
	Type           string        `json:"type"`
	Name           string        `json:"name"`
	Subgroup       string        `json:"subgroup"`
	StackSize      int           `json:"stackSize"`
	RocketCapacity float64       `json:"rocketCapacity"`
	Alternatives   []Alternative `json:"alternatives"`
	Icon           string        `json:"icon,omitempty"`
}

// Alternative is one recipe producing an item, annotated so that it can be
// scaled up to a full rocket payload.
type Alternative struct {
	Name          string               `json:"name"`
	Yield         float64              `json:"yield"`
	Ingredients   []EnrichedIngredient `json:"ingredients"`
	CraftedOnlyOn Surface              `json:"craftedOnlyOn,omitempty"`
}

// EnrichedIngredient is an ingredient with its share of the recipe's total
// ingredient weight. An ingredient with WeightRatio 0.5 takes up half of a
// rocket payload when the recipe is scaled to fill it.
type EnrichedIngredient struct {
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	WeightRatio float64 `json:"weightRatio"`
}

// ============================================
// QUERY TYPES
// ============================================

// ItemLookupRequest is the input for the item_lookup tool.
type ItemLookupRequest struct {
	Name    string  `json:"name,omitempty"`
	Search  string  `json:"search,omitempty"`
	Surface Surface `json:"surface,omitempty"`
	Limit   int     `json:"limit,omitempty"`
}

// ItemLookupResponse is the output for the item_lookup tool.
type ItemLookupResponse struct {
	Item          *EnrichedItem   `json:"item,omitempty"`
	UsedIn        []string        `json:"used_in,omitempty"`
	SearchResults []ItemSearchHit `json:"search_results,omitempty"`
	SurfaceItems  []string        `json:"surface_items,omitempty"`
	Suggestions   []string        `json:"suggestions,omitempty"`
}

// ItemSearchHit is a lightweight item match for search results.
type ItemSearchHit struct {
	Name           string  `json:"name"`
	Subgroup       string  `json:"subgroup"`
	RocketCapacity float64 `json:"rocket_capacity"`
}

// RocketPayloadRequest is the input for the rocket_payload tool.
type RocketPayloadRequest struct {
	Item    string  `json:"item"`
	Rockets float64 `json:"rockets,omitempty"`
}

// RocketPayloadResponse is the output for the rocket_payload tool.
type RocketPayloadResponse struct {
	Item           string        `json:"item"`
	RocketCapacity float64       `json:"rocket_capacity"`
	Rockets        float64       `json:"rockets"`
	Plans          []PayloadPlan `json:"plans"`
}

// PayloadPlan describes how to fill the requested rockets with the
// ingredients of one alternative.
type PayloadPlan struct {
	Recipe        string              `json:"recipe"`
	CraftedOnlyOn Surface             `json:"crafted_only_on,omitempty"`
	CraftCount    float64             `json:"craft_count"`
	Ingredients   []PayloadIngredient `json:"ingredients"`
}

// PayloadIngredient is one ingredient's share of a payload plan.
type PayloadIngredient struct {
	Name           string  `json:"name"`
	Amount         float64 `json:"amount"`
	WeightRatio    float64 `json:"weight_ratio"`
	RocketCapacity float64 `json:"rocket_capacity"`
}

// IngredientUsesRequest is the input for the ingredient_uses tool.
type IngredientUsesRequest struct {
	Ingredient string  `json:"ingredient"`
	Surface    Surface `json:"surface,omitempty"`
	Limit      int     `json:"limit,omitempty"`
}

// IngredientUsesResponse is the output for the ingredient_uses tool.
type IngredientUsesResponse struct {
	Ingredient string              `json:"ingredient"`
	UsedIn     []IngredientUseInfo `json:"used_in"`
	TotalUses  int                 `json:"total_uses"`
}

// IngredientUseInfo describes how an ingredient is used by one alternative.
type IngredientUseInfo struct {
	Item          string  `json:"item"`
	Recipe        string  `json:"recipe"`
	Amount        float64 `json:"amount"`
	WeightRatio   float64 `json:"weight_ratio"`
	CraftedOnlyOn Surface `json:"crafted_only_on,omitempty"`
}

// BillOfMaterialsRequest is the input for the bill_of_materials tool.
type BillOfMaterialsRequest struct {
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
}

// BillOfMaterialsResponse is the output for the bill_of_materials tool.
type BillOfMaterialsResponse struct {
	Item          string            `json:"item"`
	Quantity      float64           `json:"quantity"`
	RawMaterials  []BOMItem         `json:"raw_materials"`
	Intermediates []BOMIntermediate `json:"intermediates"`
	CraftSteps    []BOMCraftStep    `json:"craft_steps"`
}

// BOMItem represents a raw material requirement.
type BOMItem struct {
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
}

// BOMIntermediate represents an intermediate crafted item in the dependency tree.
type BOMIntermediate struct {
	Item          string  `json:"item"`
	Recipe        string  `json:"recipe"`
	CraftRuns     float64 `json:"craft_runs"`
	TotalProduced float64 `json:"total_produced"`
	TotalNeeded   float64 `json:"total_needed"`
}

// BOMCraftStep represents a single crafting operation in the build order.
type BOMCraftStep struct {
	StepNumber   int     `json:"step_number"`
	Recipe       string  `json:"recipe"`
	CraftRuns    float64 `json:"craft_runs"`
	Item         string  `json:"item"`
	OutputPerRun float64 `json:"output_per_run"`
}
