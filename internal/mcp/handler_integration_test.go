package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"backoffice-mcp/cmd/mockgen/engine"
	"backoffice-mcp/internal/cache"
	"backoffice-mcp/internal/format"
	"backoffice-mcp/internal/impact"
	"backoffice-mcp/internal/ledger"
)

func TestMCPIntegration_MockLedger(t *testing.T) {
	scenarios := []string{"mild", "chaos", "drift"}
	distributions := []string{"uniform", "weibull"}

	for _, scen := range scenarios {
		for _, dist := range distributions {
			t.Run(scen+"_"+dist, func(t *testing.T) {
				sales, events := engine.Generate(engine.GeneratorConfig{
					Scenario:       scen,
					Distribution:   dist,
					Branches:       2,
					Months:         3,
					EventsPerMonth: 2,
					Now:            time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC),
					Seed:           7,
				})
				dir := t.TempDir()
				if _, err := engine.Save(dir, sales, events); err != nil {
					t.Fatalf("Save() error = %v", err)
				}

				files := ledger.NewFileStore(dir)
				if err := files.Load(); err != nil {
					t.Fatalf("Load() error = %v", err)
				}
				store := ledger.NewCachedSource(files, cache.NewMemory(), time.Minute)
				srv := NewServer(store, impact.NewAnalyzer(store, impact.DefaultThresholds()), format.New("es-AR"), Options{Version: "test"})

				ctx := context.Background()
				session := connect(t, ctx, srv)

				for _, e := range events {
					res, err := session.CallTool(ctx, &sdk.CallToolParams{
						Name:      "analyze_event",
						Arguments: map[string]any{"event_id": e.ID},
					})
					if err != nil {
						t.Fatalf("CallTool(analyze_event, %s) error = %v", e.ID, err)
					}
					if res.IsError {
						t.Fatalf("analyze_event %s returned a tool error: %s", e.ID, textOf(t, res))
					}

					var env struct {
						Data struct {
							Analysis struct {
								Observed struct {
									Recorded bool `json:"recorded"`
								} `json:"observed"`
								BaselineMonth struct {
									SampleSize int `json:"sample_size"`
								} `json:"baseline_month"`
								ROI struct {
									Defined bool `json:"defined"`
								} `json:"roi"`
								Recommendation struct {
									Verdict string `json:"verdict"`
								} `json:"recommendation"`
							} `json:"analysis"`
						} `json:"data"`
					}
					if err := json.Unmarshal([]byte(textOf(t, res)), &env); err != nil {
						t.Fatalf("analyze_event %s returned invalid JSON: %v", e.ID, err)
					}

					a := env.Data.Analysis
					if !a.Observed.Recorded {
						t.Errorf("%s: event day has no sales recorded", e.ID)
					}
					if a.BaselineMonth.SampleSize < 15 {
						t.Errorf("%s: month baseline sample = %d, want at least 15", e.ID, a.BaselineMonth.SampleSize)
					}
					if !a.ROI.Defined {
						t.Errorf("%s: ROI undefined for a paid event", e.ID)
					}
					if scen == "mild" && dist == "uniform" {
						if v := a.Recommendation.Verdict; v == string(impact.VerdictDiscontinue) || v == string(impact.VerdictInconclusive) {
							t.Errorf("%s: verdict = %s for a mild lift", e.ID, v)
						}
					}
				}
			})
		}
	}
}

func TestMCPIntegration_ToolSurface(t *testing.T) {
	s, _ := newTestServer(t, false)
	ctx := context.Background()
	session := connect(t, ctx, s)

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}
	want := map[string]bool{
		"analyze_event": false, "list_events": false, "get_event": false,
		"register_event": false, "get_trading_days": false, "locate_comparable_day": false,
	}
	for _, tool := range tools.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("tool %s is not registered", name)
		}
	}

	res, err := session.CallTool(ctx, &sdk.CallToolParams{
		Name:      "get_event",
		Arguments: map[string]any{"event_id": "missing"},
	})
	if err != nil {
		t.Fatalf("CallTool(get_event) error = %v", err)
	}
	if !res.IsError {
		t.Errorf("get_event for an unknown id should be a tool error")
	}
}

func connect(t *testing.T, ctx context.Context, s *Server) *sdk.ClientSession {
	t.Helper()
	serverTransport, clientTransport := sdk.NewInMemoryTransports()

	serverSession, err := s.Build().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func textOf(t *testing.T, res *sdk.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatalf("tool result has no content")
	}
	text, ok := res.Content[0].(*sdk.TextContent)
	if !ok {
		t.Fatalf("content is %T, want *TextContent", res.Content[0])
	}
	return text.Text
}
