// Package api provides the HTTP surface for observing and steering the
// world. GET endpoints are public (read-only observation). POST endpoints
// act as the player polity and require a bearer token.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/hegemon/internal/coalition"
	"github.com/talgya/hegemon/internal/engine"
	"github.com/talgya/hegemon/internal/nation"
	"github.com/talgya/hegemon/internal/persistence"
	"github.com/talgya/hegemon/internal/war"
)

const maxStreamConns = 8

// Server serves the world state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
	RelayKey string // Bearer token for the websocket stream. Empty = streaming disabled.

	// Active websocket connection count (atomic).
	streamConns int32
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	commandLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only — anyone can check in on the world).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/nations", s.handleNations)
	mux.HandleFunc("/api/v1/nation/", s.handleNationDetail)
	mux.HandleFunc("/api/v1/wars", s.handleWars)
	mux.HandleFunc("/api/v1/coalitions", s.handleCoalitions)
	mux.HandleFunc("/api/v1/coalition/", s.handleCoalitionDetail)
	mux.HandleFunc("/api/v1/resolutions", s.handleResolutions)
	mux.HandleFunc("/api/v1/crises", s.handleCrises)
	mux.HandleFunc("/api/v1/summits", s.handleSummits)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats", s.handleStats)

	// Websocket streaming endpoint (GET, requires bearer token).
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("/api/v1/command", s.adminOnly(RateLimitMiddleware(commandLimiter, s.handleCommand)))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "relay_auth", s.RelayKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no HEGEMON_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	player := s.Sim.Reg.Player()

	status := map[string]any{
		"name":           "Hegemon",
		"tick":           s.Sim.CurrentTick(),
		"sim_time":       engine.SimTime(s.Sim.CurrentTick()),
		"speed":          s.Eng.Speed,
		"running":        s.Eng.Running,
		"nations":        s.Sim.Stats.Nations,
		"annexed":        s.Sim.Stats.Annexed,
		"active_wars":    s.Sim.Stats.ActiveWars,
		"coalitions":     s.Sim.Stats.Coalitions,
		"total_soldiers": s.Sim.Stats.TotalSoldiers,
		"avg_relations":  s.Sim.Stats.AvgRelations,
	}
	if player != nil {
		status["player"] = map[string]any{
			"name":      player.Name,
			"power":     player.Power,
			"soldiers":  player.Soldiers,
			"economy":   player.Economy,
			"authority": player.Authority,
			"influence": player.Influence,
			"at_war":    player.IsAtWar(),
		}
	}
	writeJSON(w, status)
}

func (s *Server) handleNations(w http.ResponseWriter, r *http.Request) {
	dispFilter := r.URL.Query().Get("disposition")
	includeAnnexed := r.URL.Query().Get("annexed") == "true"

	type nationSummary struct {
		Code        nation.Code `json:"code"`
		Name        string      `json:"name"`
		Relations   int         `json:"relations"`
		Disposition string      `json:"disposition"`
		Soldiers    int         `json:"soldiers"`
		Power       int         `json:"power"`
		Economy     float64     `json:"economy"`
		Modifiers   []string    `json:"modifiers,omitempty"`
		AtWar       bool        `json:"at_war"`
		Annexed     bool        `json:"annexed"`
	}

	var result []nationSummary
	for _, n := range s.Sim.Reg.All() {
		if n.Annexed && !includeAnnexed {
			continue
		}
		disp := n.Disposition.String()
		if dispFilter != "" && !strings.EqualFold(disp, dispFilter) {
			continue
		}
		result = append(result, nationSummary{
			Code:        n.Code,
			Name:        n.Name,
			Relations:   n.Relations,
			Disposition: disp,
			Soldiers:    n.Soldiers,
			Power:       n.Power,
			Economy:     n.Economy,
			Modifiers:   n.Modifiers.Names(),
			AtWar:       len(s.Sim.Wars.ActiveFor(n.Code)) > 0,
			Annexed:     n.Annexed,
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleNationDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	// /api/v1/nation/:code → parts[0]="" [1]="api" [2]="v1" [3]="nation" [4]=code
	if len(parts) < 5 || parts[4] == "" {
		http.Error(w, "missing nation code", http.StatusBadRequest)
		return
	}
	code := nation.Code(strings.ToUpper(parts[4]))

	n := s.Sim.Reg.Get(code)
	if n == nil {
		http.Error(w, "nation not found", http.StatusNotFound)
		return
	}

	// Active wars involving this nation.
	type warBrief struct {
		ID        string      `json:"id"`
		Opponent  nation.Code `json:"opponent"`
		Attacking bool        `json:"attacking"`
		Gain      float64     `json:"gain"`
		Intensity string      `json:"intensity"`
	}
	var wars []warBrief
	for _, wr := range s.Sim.Wars.ActiveFor(code) {
		gain := wr.DefenderGain
		if wr.Attacker == code {
			gain = wr.AttackerGain
		}
		wars = append(wars, warBrief{
			ID:        wr.ID,
			Opponent:  wr.Opponent(code),
			Attacking: wr.Attacker == code,
			Gain:      gain,
			Intensity: wr.Intensity.String(),
		})
	}

	// Coalition memberships.
	var memberships []map[string]any
	for _, c := range s.Sim.Coalitions.All() {
		if c.HasMember(code) {
			memberships = append(memberships, map[string]any{
				"id":     c.ID,
				"name":   c.Name,
				"type":   c.Type.String(),
				"leader": c.Leader,
			})
		}
	}

	result := map[string]any{
		"nation":     n,
		"wars":       wars,
		"coalitions": memberships,
	}
	if crisis := s.crisisFor(code); crisis != nil {
		result["crisis"] = crisis
	}
	writeJSON(w, result)
}

func (s *Server) crisisFor(code nation.Code) any {
	for _, c := range s.Sim.Diplomacy.Crises() {
		if !c.Resolved && (c.Initiator == code || c.Target == code) {
			return c
		}
	}
	return nil
}

func (s *Server) handleWars(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("all") == "true"

	type warSummary struct {
		ID                 string      `json:"id"`
		Attacker           nation.Code `json:"attacker"`
		Defender           nation.Code `json:"defender"`
		Status             string      `json:"status"`
		Intensity          string      `json:"intensity"`
		AttackerGain       float64     `json:"attacker_gain"`
		DefenderGain       float64     `json:"defender_gain"`
		AttackerCasualties int         `json:"attacker_casualties"`
		DefenderCasualties int         `json:"defender_casualties"`
		StartedTick        uint64      `json:"started_tick"`
		Started            string      `json:"started"`
	}

	var wars []*war.War
	if all {
		wars = s.Sim.Wars.All()
	} else {
		wars = s.Sim.Wars.Active()
	}

	result := make([]warSummary, 0, len(wars))
	for _, wr := range wars {
		result = append(result, warSummary{
			ID:                 wr.ID,
			Attacker:           wr.Attacker,
			Defender:           wr.Defender,
			Status:             wr.Status.String(),
			Intensity:          wr.Intensity.String(),
			AttackerGain:       wr.AttackerGain,
			DefenderGain:       wr.DefenderGain,
			AttackerCasualties: wr.AttackerCasualties,
			DefenderCasualties: wr.DefenderCasualties,
			StartedTick:        wr.StartedTick,
			Started:            engine.SimTime(wr.StartedTick),
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleCoalitions(w http.ResponseWriter, r *http.Request) {
	type coalitionSummary struct {
		ID       string        `json:"id"`
		Name     string        `json:"name"`
		Type     string        `json:"type"`
		Leader   nation.Code   `json:"leader"`
		Members  []nation.Code `json:"members"`
		Soldiers int           `json:"combined_soldiers"`
		Founded  string        `json:"founded"`
	}

	result := []coalitionSummary{}
	for _, c := range s.Sim.Coalitions.All() {
		result = append(result, coalitionSummary{
			ID:       c.ID,
			Name:     c.Name,
			Type:     c.Type.String(),
			Leader:   c.Leader,
			Members:  c.Members,
			Soldiers: s.Sim.Coalitions.CombinedSoldiers(c, ""),
			Founded:  engine.SimTime(c.FoundedTick),
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleCoalitionDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 || parts[4] == "" {
		http.Error(w, "missing coalition id", http.StatusBadRequest)
		return
	}

	c := s.Sim.Coalitions.Get(parts[4])
	if c == nil {
		http.Error(w, "coalition not found", http.StatusNotFound)
		return
	}

	type memberInfo struct {
		Code     nation.Code `json:"code"`
		Name     string      `json:"name"`
		Soldiers int         `json:"soldiers"`
		Power    int         `json:"power"`
	}
	var members []memberInfo
	for _, code := range c.Members {
		if n := s.Sim.Reg.Get(code); n != nil {
			members = append(members, memberInfo{
				Code:     code,
				Name:     n.Name,
				Soldiers: n.Soldiers,
				Power:    n.Power,
			})
		}
	}

	writeJSON(w, map[string]any{
		"id":                c.ID,
		"name":              c.Name,
		"type":              c.Type.String(),
		"leader":            c.Leader,
		"members":           members,
		"requirements":      c.Reqs,
		"combined_soldiers": s.Sim.Coalitions.CombinedSoldiers(c, ""),
		"founded_tick":      c.FoundedTick,
		"founded":           engine.SimTime(c.FoundedTick),
	})
}

func (s *Server) handleResolutions(w http.ResponseWriter, r *http.Request) {
	openOnly := r.URL.Query().Get("open") == "true"

	result := []any{}
	for _, res := range s.Sim.Diplomacy.Resolutions() {
		if openOnly && res.Status.String() != "open" {
			continue
		}
		yes, no, abstain := 0, 0, 0
		for _, v := range res.Votes {
			switch v.String() {
			case "yes":
				yes++
			case "no":
				no++
			default:
				abstain++
			}
		}
		result = append(result, map[string]any{
			"id":       res.ID,
			"kind":     res.Kind,
			"title":    res.Title,
			"proposer": res.Proposer,
			"target":   res.Target,
			"status":   res.Status.String(),
			"veto":     res.Veto,
			"opened":   engine.SimTime(res.OpenedTick),
			"tally":    map[string]int{"yes": yes, "no": no, "abstain": abstain},
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleCrises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Diplomacy.Crises())
}

func (s *Server) handleSummits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Diplomacy.Summits())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Sim.Events.Recent(limit)

	// Optional nation filter — returns only events naming this code.
	if code := r.URL.Query().Get("nation"); code != "" {
		code = strings.ToUpper(code)
		filtered := events[:0]
		for _, e := range events {
			for _, a := range e.Affected {
				if a == code {
					filtered = append(filtered, e)
					break
				}
			}
		}
		events = filtered
	}

	writeJSON(w, events)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"tick":  s.Sim.CurrentTick(),
		"world": s.Sim.Stats,
	}

	// Top five powers for the rankings panel.
	type powerEntry struct {
		Code  nation.Code `json:"code"`
		Name  string      `json:"name"`
		Power int         `json:"power"`
	}
	var powers []powerEntry
	for _, n := range s.Sim.Reg.All() {
		if n.Annexed {
			continue
		}
		powers = append(powers, powerEntry{Code: n.Code, Name: n.Name, Power: n.Power})
	}
	sort.Slice(powers, func(i, j int) bool { return powers[i].Power > powers[j].Power })
	if len(powers) > 5 {
		powers = powers[:5]
	}
	stats["top_powers"] = powers

	writeJSON(w, stats)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.Speed = req.Speed
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	tick := s.Sim.CurrentTick()
	err := s.DB.SaveWorldState(s.Sim.Reg.All(), s.Sim.Wars.All(),
		s.Sim.Coalitions.All(), s.Sim.Events.Recent(500), tick)
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"tick":    tick,
		"message": "snapshot saved",
	})
}

// handleCommand executes a player action. Every command runs against the
// simulation's command surface, so it waits for the current tick to commit.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Type string `json:"type"`

		Target    string `json:"target,omitempty"`
		Intensity string `json:"intensity,omitempty"`
		Agreement string `json:"agreement,omitempty"`
		Tariff    string `json:"tariff,omitempty"`
		Action    string `json:"action,omitempty"`
		ID        string `json:"id,omitempty"`
		Position  string `json:"position,omitempty"`
		Topic     string `json:"topic,omitempty"`
		Kind      string `json:"kind,omitempty"`
		Veto      bool   `json:"veto,omitempty"`

		Name         string                  `json:"name,omitempty"`
		Charter      string                  `json:"charter,omitempty"`
		Members      []string                `json:"members,omitempty"`
		Op           string                  `json:"op,omitempty"`
		Requirements *coalition.Requirements `json:"requirements,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	target := nation.Code(strings.ToUpper(req.Target))

	var details string
	var err error

	switch req.Type {
	case "declare_war":
		details, err = s.Sim.DeclareWar(target, req.Intensity)
	case "make_peace":
		details, err = s.Sim.MakePeace(target)
	case "propose_agreement":
		details, err = s.Sim.ProposeAgreement(target, req.Agreement)
	case "break_agreement":
		details, err = s.Sim.BreakAgreement(target, req.ID)
	case "set_tariff":
		details, err = s.Sim.SetTariff(target, req.Tariff)
	case "covert":
		details, err = s.Sim.CovertAction(target, req.Action)
	case "influence":
		details, err = s.Sim.Influence(target, req.Action)
	case "create_coalition":
		codes := make([]nation.Code, 0, len(req.Members))
		for _, m := range req.Members {
			codes = append(codes, nation.Code(strings.ToUpper(m)))
		}
		details, err = s.Sim.CreateCoalition(req.Name, req.Charter, codes, req.Requirements)
	case "coalition":
		details, err = s.Sim.CoalitionMembership(req.ID, req.Op, target)
	case "propose_resolution":
		details, err = s.Sim.ProposeResolution(req.Kind, target, req.Veto)
	case "vote":
		details, err = s.Sim.Vote(req.ID, req.Position)
	case "start_crisis":
		details, err = s.Sim.StartCrisis(target)
	case "crisis_response":
		details, err = s.Sim.RespondToCrisis(req.ID, req.Action)
	case "propose_summit":
		details, err = s.Sim.ProposeSummit(target, req.Topic)
	default:
		http.Error(w, "unknown command type (use: declare_war, make_peace, propose_agreement, "+
			"break_agreement, set_tariff, covert, influence, create_coalition, coalition, "+
			"propose_resolution, vote, start_crisis, crisis_response, propose_summit)",
			http.StatusBadRequest)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slog.Info("player command", "type", req.Type, "target", req.Target)
	writeJSON(w, map[string]any{"success": true, "details": details})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Cross-origin checks happen in corsMiddleware; the stream carries
	// no state mutations.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream upgrades to a websocket and pushes world events as they
// are emitted. Requires the relay bearer token.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.RelayKey == "" {
		http.Error(w, "streaming disabled (no relay key)", http.StatusForbidden)
		return
	}
	auth := r.Header.Get("Authorization")
	token := r.URL.Query().Get("token") // browser clients cannot set headers on websockets
	if token == "" {
		token = strings.TrimPrefix(auth, "Bearer ")
	}
	if token != s.RelayKey {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	current := atomic.AddInt32(&s.streamConns, 1)
	if current > maxStreamConns {
		atomic.AddInt32(&s.streamConns, -1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		atomic.AddInt32(&s.streamConns, -1)
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	ch, cancel := s.Sim.Events.Subscribe()

	go func() {
		defer func() {
			cancel()
			conn.Close()
			atomic.AddInt32(&s.streamConns, -1)
		}()

		// Catch-up: recent events first, then the live feed.
		for _, e := range s.Sim.Events.Recent(50) {
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		}

		slog.Info("stream client connected", "remote", conn.RemoteAddr().String())

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case e, ok := <-ch:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(e); err != nil {
					return
				}
			case <-ping.C:
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-r.Context().Done():
				return
			}
		}
	}()

	// Reader loop keeps pong handling alive and notices client closes.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
