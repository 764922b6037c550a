package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/lastword/game/engine"
	"github.com/wricardo/lastword/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAuthToken sends token as a bearer token, which the operator
// endpoints (list_sessions, delete_session) require.
func WithAuthToken(token string) ClientOption {
	return func(c *Client) { c.authToken = token }
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Last Word",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Last Word - MCP Interface

This is a thin client that proxies all requests to the REST API server.
It manages game sessions for a multiplayer word game played on a square
board. Moves themselves are made by the players over the WebSocket.

AVAILABLE TOOLS:
- create_session: Create a session (optional id, rule set and player count)
- session_exists: Check whether a session can be joined
- get_session: Public summary of a session (players, scores, turn)
- list_sessions: List active sessions (needs the operator token)
- delete_session: Remove a session (needs the operator token)
- check_word: Look a word up in a rule set's dictionary
- list_rule_sets: List available rule sets
- get_rule_set: Board size, rack size, bonuses and tile distribution of a rule set
- game_rules: How the game is played and scored`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	sessionIDSchema := map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}

	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session. Share the returned session ID with the players.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Custom session ID, up to 32 letters, digits, '-' or '_' (optional)",
				},
				"rule_set": map[string]interface{}{
					"type":        "string",
					"description": "Rule set to play with (optional, see list_rule_sets)",
				},
				"players": map[string]interface{}{
					"type":        "integer",
					"minimum":     engine.MinPlayers,
					"maximum":     engine.MaxPlayers,
					"description": "Number of players needed to start (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "session_exists",
		Description: "Check whether a session exists",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDSchema},
			Required:   []string{"session_id"},
		},
	}, c.handleSessionExists)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get the public state of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDSchema},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List active game sessions, most recently active first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of sessions to return (optional)",
				},
			},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_session",
		Description: "Delete a session. Connected players lose their game.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDSchema},
			Required:   []string{"session_id"},
		},
	}, c.handleDeleteSession)

	// Dictionary and rules
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "check_word",
		Description: "Check whether a word is accepted by a rule set's dictionary",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"word": map[string]interface{}{
					"type":        "string",
					"description": "Word to look up",
				},
				"rule_set": map[string]interface{}{
					"type":        "string",
					"description": "Rule set whose dictionary to use (optional, defaults to the server default)",
				},
			},
			Required: []string{"word"},
		},
	}, c.handleCheckWord)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rule_sets",
		Description: "List the available rule sets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRuleSets)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_rule_set",
		Description: "Describe a rule set: board, rack, bonuses and tile distribution",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Rule set ID",
				},
			},
			Required: []string{"name"},
		},
	}, c.handleGetRuleSet)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Get the rules of the game and how moves are scored",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP request to the REST API
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	return args
}

func sessionPath(sessionID string) string {
	return "/api/sessions/" + url.PathEscape(sessionID)
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	var opts service.CreateSessionOptions
	opts.ID, _ = args["session_id"].(string)
	opts.RuleSet, _ = args["rule_set"].(string)
	if players, ok := args["players"].(float64); ok {
		opts.Players = int(players)
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", opts, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Session created.\n\n%s\nPlayers join with session ID %q.", formatSessionInfo(&session), session.ID)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSessionExists(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	var resp struct {
		Exists bool `json:"exists"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID)+"/exists", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if resp.Exists {
		return mcp.NewToolResultText(fmt.Sprintf("Session %s exists.", sessionID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session %s does not exist.", sessionID)), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/sessions"
	if limit, ok := arguments(request)["limit"].(float64); ok && limit > 0 {
		path += fmt.Sprintf("?limit=%d", int(limit))
	}

	var resp struct {
		Total    int                    `json:"total"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d of %d):\n\n", len(resp.Sessions), resp.Total)
	for _, session := range resp.Sessions {
		fmt.Fprintf(&b, "• %s - %s, %d/%d players, %s\n",
			session.ID, session.RuleSet, len(session.Players), session.RequiredPlayers, phaseLabel(session))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleDeleteSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	if err := c.apiCall(ctx, "DELETE", sessionPath(sessionID), nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session %s deleted.", sessionID)), nil
}

func (c *Client) handleCheckWord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	word, _ := args["word"].(string)
	ruleSet, _ := args["rule_set"].(string)
	if strings.TrimSpace(word) == "" {
		return mcp.NewToolResultError("word is required"), nil
	}

	var check service.WordCheck
	body := map[string]string{"word": word, "rule_set": ruleSet}
	if err := c.apiCall(ctx, "POST", "/api/words/check", body, &check); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	verdict := "is NOT a valid word"
	if check.Valid {
		verdict = "is a valid word"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%q %s in rule set %s.", check.Word, verdict, check.RuleSet)), nil
}

func (c *Client) handleListRuleSets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var ruleSets []service.RuleSetInfo
	if err := c.apiCall(ctx, "GET", "/api/rulesets", nil, &ruleSets); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Rule Sets:\n\n")
	for _, rs := range ruleSets {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Board: %dx%d, Rack: %d, Tiles: %d\n\n",
			rs.ID, rs.Language, rs.Description, rs.BoardSize, rs.BoardSize, rs.RackSize, rs.TileCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetRuleSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, _ := arguments(request)["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	var rules engine.RuleSet
	if err := c.apiCall(ctx, "GET", "/api/rulesets/"+url.PathEscape(name), nil, &rules); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRuleSet(&rules)), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Last Word - Rules

OBJECTIVE:
Score the most points by forming words on a shared square board.

SETUP:
• Each session needs a fixed number of players (2 to 4) before it starts
• Every player draws a rack of tiles from the shared pool
• Players take turns in the order they joined

A TURN IS ONE OF:
• Place tiles in a single row or column, without gaps
• Swap tiles from the rack with the pool
• Pass (submit a move with no tiles)

PLACEMENT RULES:
• The first word must cover the center square and use at least two tiles
• Later words must touch a tile already on the board
• Every word formed, main and cross words alike, must be in the dictionary

SCORING:
• Letter and word multipliers only count for newly placed tiles
• Each word formed scores separately
• Using a full rack in one move earns the rule set's bingo bonus

GAME END:
• A player empties their rack while the pool is empty
• Or the table passes or swaps too many times in a row
• The highest score wins; equal top scores are a tie`

	return mcp.NewToolResultText(instructions), nil
}

// Helper functions

func phaseLabel(session *service.SessionInfo) string {
	switch {
	case session.GameOver:
		return "game over"
	case len(session.Players) < session.RequiredPlayers:
		return "waiting for players"
	default:
		return fmt.Sprintf("player %d to move", session.CurrentPlayerIndex+1)
	}
}

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", session.ID)
	fmt.Fprintf(&b, "Rule set: %s (%s)\n", session.RuleSet, session.Language)
	fmt.Fprintf(&b, "Players: %d/%d\n", len(session.Players), session.RequiredPlayers)
	for _, p := range session.Players {
		fmt.Fprintf(&b, "  %d. %s - %d points\n", p.Index+1, p.Name, session.Scores[p.Index])
	}
	fmt.Fprintf(&b, "Status: %s\n", phaseLabel(session))
	fmt.Fprintf(&b, "Tiles in pool: %d\n", session.TilesRemaining)
	if session.GameOver {
		if session.WinnerIndex != nil {
			fmt.Fprintf(&b, "Winner: player %d\n", *session.WinnerIndex+1)
		} else {
			b.WriteString("Result: tie\n")
		}
	}
	fmt.Fprintf(&b, "Created: %s\n", session.CreatedAt.Format(time.RFC3339))
	return b.String()
}

func formatRuleSet(rules *engine.RuleSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", rules.Name, rules.Description)
	fmt.Fprintf(&b, "Language: %s\n", rules.Language)
	fmt.Fprintf(&b, "Board: %dx%d, center (%d,%d)\n", rules.BoardSize, rules.BoardSize, rules.Center.Row, rules.Center.Col)
	fmt.Fprintf(&b, "Rack: %d tiles, bingo bonus %d\n", rules.RackSize, rules.BingoBonus)
	fmt.Fprintf(&b, "Game ends after %d consecutive passes or swaps\n", rules.MaxConsecutivePasses)
	types := make([]string, 0, len(rules.Multipliers))
	for typ := range rules.Multipliers {
		types = append(types, string(typ))
	}
	sort.Strings(types)
	b.WriteString("Premium squares:\n")
	for _, typ := range types {
		m := rules.Multipliers[engine.MultiplierType(typ)]
		fmt.Fprintf(&b, "  %s: %d cells (word x%d, letter x%d)\n", typ, len(m.Coordinates), m.Word, m.Letter)
	}
	b.WriteString("\n")

	tiles := append([]engine.TileCount(nil), rules.Tiles...)
	sort.Slice(tiles, func(i, j int) bool { return tiles[i].Letter < tiles[j].Letter })
	fmt.Fprintf(&b, "Tiles (%d):\n", rules.TileTotal())
	for _, tc := range tiles {
		fmt.Fprintf(&b, "  %s x%d (%d pts)\n", tc.Letter, tc.Count, tc.Points)
	}
	return b.String()
}
