package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/rocket-capacity-server/internal/crafting/db"
	"github.com/rsned/rocket-capacity-server/internal/crafting/engine"
	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	d, err := db.OpenAndInit(ctx, filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, db.NewCatalogStore(d).BulkInsertCatalog(ctx, []crafting.EnrichedItem{
		{
			Type: "item", Name: "copper-plate", Subgroup: "raw-material", StackSize: 100, RocketCapacity: 1000,
		},
		{
			Type: "item", Name: "copper-cable", Subgroup: "intermediate-product", StackSize: 200, RocketCapacity: 4000,
			Alternatives: []crafting.Alternative{{
				Name:        "copper-cable",
				Yield:       2,
				Ingredients: []crafting.EnrichedIngredient{{Name: "copper-plate", Amount: 1, WeightRatio: 1}},
			}},
		},
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(engine.New(d), logger)
}

// exchange sends each request line to the server and returns the decoded
// responses.
func exchange(t *testing.T, s *Server, requests ...string) []Response {
	t.Helper()
	var out strings.Builder
	require.NoError(t, s.Serve(context.Background(), strings.NewReader(strings.Join(requests, "\n")), &out))

	var responses []Response
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	for scanner.Scan() {
		var resp Response
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}
	return responses
}

func toolText(t *testing.T, resp Response) string {
	t.Helper()
	require.Nil(t, resp.Error)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var result ToolCallResult
	require.NoError(t, json.Unmarshal(raw, &result))
	require.Len(t, result.Content, 1)
	return result.Content[0].Text
}

func TestInitializeAndList(t *testing.T) {
	s := newTestServer(t)

	responses := exchange(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	)
	require.Len(t, responses, 2)

	initResult, ok := responses[0].Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2024-11-05", initResult["protocolVersion"])

	raw, err := json.Marshal(responses[1].Result)
	require.NoError(t, err)
	var list ToolsListResult
	require.NoError(t, json.Unmarshal(raw, &list))

	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"item_lookup", "rocket_payload", "ingredient_uses", "bill_of_materials"}, names)
}

func TestToolsCall(t *testing.T) {
	s := newTestServer(t)

	responses := exchange(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"item_lookup","arguments":{"name":"copper-cable"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"bill_of_materials","arguments":{"item":"copper-cable","quantity":3}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"ingredient_uses","arguments":{"ingredient":"copper-plate"}}}`,
	)
	require.Len(t, responses, 3)

	var lookup crafting.ItemLookupResponse
	require.NoError(t, json.Unmarshal([]byte(toolText(t, responses[0])), &lookup))
	require.NotNil(t, lookup.Item)
	assert.Equal(t, 4000.0, lookup.Item.RocketCapacity)

	var bom crafting.BillOfMaterialsResponse
	require.NoError(t, json.Unmarshal([]byte(toolText(t, responses[1])), &bom))
	assert.Equal(t, []crafting.BOMItem{{Item: "copper-plate", Quantity: 2}}, bom.RawMaterials)

	var uses crafting.IngredientUsesResponse
	require.NoError(t, json.Unmarshal([]byte(toolText(t, responses[2])), &uses))
	assert.Equal(t, 1, uses.TotalUses)
}

func TestErrors(t *testing.T) {
	s := newTestServer(t)

	responses := exchange(t, s,
		`{not json`,
		`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"craft_query","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"rocket_payload","arguments":{"item":5}}}`,
		`{"jsonrpc":"1.0","id":4,"method":"ping"}`,
	)
	require.Len(t, responses, 5)

	wantCodes := []int{ErrCodeParse, ErrCodeMethodNotFound, ErrCodeInvalidParams, ErrCodeInvalidParams, ErrCodeInvalidReq}
	for i, code := range wantCodes {
		require.NotNil(t, responses[i].Error, "response %d", i)
		assert.Equal(t, code, responses[i].Error.Code, "response %d", i)
	}
	assert.Contains(t, responses[2].Error.Message, "unknown tool")
}

func TestToolFailureIsReportedInResult(t *testing.T) {
	s := newTestServer(t)

	responses := exchange(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"rocket_payload","arguments":{"item":"nope"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)
	require.Len(t, responses, 2)

	require.Nil(t, responses[0].Error)
	raw, err := json.Marshal(responses[0].Result)
	require.NoError(t, err)
	var result ToolCallResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "item not found")

	assert.Nil(t, responses[1].Error)
	assert.Equal(t, map[string]any{}, responses[1].Result)
}
