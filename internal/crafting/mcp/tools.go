package mcp

import (
	"context"
	"encoding/json"

	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// JSONSchema is a simplified JSON Schema representation.
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a schema property.
type Property struct {
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Default     any      `json:"default,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
}

// GetToolDefinitions returns all tool definitions.
func GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		itemLookupTool(),
		rocketPayloadTool(),
		ingredientUsesTool(),
		billOfMaterialsTool(),
	}
}

func surfaceNames() []string {
	var names []string
	for _, s := range crafting.ValidSurfaces() {
		names = append(names, string(s))
	}
	return names
}

func itemLookupTool() ToolDefinition {
	minLimit := 1.0
	maxLimit := 100.0

	return ToolDefinition{
		Name:        "item_lookup",
		Description: "Look up an item by name or search term. Returns its rocket capacity, the recipes that produce it with per-ingredient weight ratios, and the items that use it. Unknown names return close matches.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"name": {
					Type:        "string",
					Description: "Exact item name, e.g. electronic-circuit",
				},
				"search": {
					Type:        "string",
					Description: "Search term for item name (alternative to name)",
				},
				"surface": {
					Type:        "string",
					Description: "Only items that can be crafted only on this surface; without name or search, lists them",
					Enum:        surfaceNames(),
				},
				"limit": {
					Type:        "integer",
					Description: "Max search results",
					Default:     10,
					Minimum:     &minLimit,
					Maximum:     &maxLimit,
				},
			},
		},
	}
}

func rocketPayloadTool() ToolDefinition {
	minRockets := 0.0

	return ToolDefinition{
		Name:        "rocket_payload",
		Description: "Split a rocket payload of an item between the ingredients of each of its recipes. Returns how much of every ingredient fits in the payload share and how many items that crafts.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"item": {
					Type:        "string",
					Description: "Item to launch",
				},
				"rockets": {
					Type:        "number",
					Description: "Number of rockets",
					Default:     1,
					Minimum:     &minRockets,
				},
			},
			Required: []string{"item"},
		},
	}
}

func ingredientUsesTool() ToolDefinition {
	minLimit := 1.0

	return ToolDefinition{
		Name:        "ingredient_uses",
		Description: "Find all items whose recipes consume an ingredient, sorted by the share of the recipe weight the ingredient carries.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"ingredient": {
					Type:        "string",
					Description: "Ingredient to look up uses for",
				},
				"surface": {
					Type:        "string",
					Description: "Only recipes that can be crafted only on this surface",
					Enum:        surfaceNames(),
				},
				"limit": {
					Type:        "integer",
					Description: "Max uses to return",
					Default:     25,
					Minimum:     &minLimit,
				},
			},
			Required: []string{"ingredient"},
		},
	}
}

func billOfMaterialsTool() ToolDefinition {
	minQty := 0.0

	return ToolDefinition{
		Name:        "bill_of_materials",
		Description: "Calculate the complete recursive bill of materials for an item along the first recipe of every intermediate. Returns all raw materials, intermediate items, and crafting steps needed in dependency order.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"item": {
					Type:        "string",
					Description: "Item to calculate BOM for",
				},
				"quantity": {
					Type:        "number",
					Description: "How many to craft",
					Default:     1,
					Minimum:     &minQty,
				},
			},
			Required: []string{"item"},
		},
	}
}

// Tool handlers

func (s *Server) toolItemLookup(ctx context.Context, args json.RawMessage) (any, error) {
	var req crafting.ItemLookupRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.ItemLookup(ctx, req)
}

func (s *Server) toolRocketPayload(ctx context.Context, args json.RawMessage) (any, error) {
	var req crafting.RocketPayloadRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.RocketPayload(ctx, req)
}

func (s *Server) toolIngredientUses(ctx context.Context, args json.RawMessage) (any, error) {
	var req crafting.IngredientUsesRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.IngredientUses(ctx, req)
}

func (s *Server) toolBillOfMaterials(ctx context.Context, args json.RawMessage) (any, error) {
	var req crafting.BillOfMaterialsRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.engine.BillOfMaterials(ctx, req)
}
