package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const (
	scenarioTypeName = "scenario"
	arcChainTypeName = "arc_chain"
)

// Scenario is a named sequence of orchestration steps loaded from Lua.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is a single orchestration operation with raw Lua arguments.
type Step struct {
	Kind string
	Args map[string]any
}

// arcChain lets a script append beats to the arc it just declared.
type arcChain struct {
	scenario *Scenario
	arcTitle string
}

// LoadScenarioFromFile runs a Lua script and returns the scenario it builds.
// The script must return the value produced by Scenario.new.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerLuaTypes(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

func registerLuaTypes(state *lua.State) {
	registerScenarioType(state)
	registerArcChainType(state)
	registerScenarioConstructor(state)
}

func registerScenarioType(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerArcChainType(state *lua.State) {
	lua.NewMetaTable(state, arcChainTypeName)
	state.NewTable()
	lua.SetFunctions(state, arcChainMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerScenarioConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	scenario := &Scenario{Name: name}
	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "director", Function: scenarioDirector},
	{Name: "arc", Function: scenarioArc},
	{Name: "beat", Function: scenarioBeat},
	{Name: "publish", Function: scenarioPublish},
	{Name: "complete_arc", Function: scenarioCompleteArc},
	{Name: "advance_phase", Function: scenarioAdvancePhase},
	{Name: "override_phase", Function: scenarioOverridePhase},
	{Name: "tension", Function: scenarioTension},
	{Name: "advance_clock", Function: scenarioAdvanceClock},
	{Name: "stall", Function: scenarioStall},
	{Name: "sweep", Function: scenarioSweep},
	{Name: "resolve_stall", Function: scenarioResolveStall},
	{Name: "action", Function: scenarioAction},
	{Name: "complete_action", Function: scenarioCompleteAction},
	{Name: "pause", Function: scenarioPause},
	{Name: "resume", Function: scenarioResume},
	{Name: "expect", Function: scenarioExpect},
}

var arcChainMethods = []lua.RegistryFunction{
	{Name: "beat", Function: arcChainBeat},
}

func scenarioDirector(state *lua.State) int {
	scenario := checkScenario(state)
	data := optionalTable(state, 2)
	if stringField(data, "league") == "" {
		lua.Errorf(state, "director league is required")
		return 0
	}
	appendStep(scenario, "director", data)
	return 0
}

func scenarioArc(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	title := stringField(data, "title")
	if title == "" {
		lua.Errorf(state, "arc title is required")
		return 0
	}
	appendStep(scenario, "arc", data)
	state.PushUserData(&arcChain{scenario: scenario, arcTitle: title})
	lua.SetMetaTableNamed(state, arcChainTypeName)
	return 1
}

func scenarioBeat(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if stringField(data, "title") == "" {
		lua.Errorf(state, "beat title is required")
		return 0
	}
	appendStep(scenario, "beat", data)
	return 0
}

func arcChainBeat(state *lua.State) int {
	ud := lua.CheckUserData(state, 1, arcChainTypeName)
	chain, ok := ud.(*arcChain)
	if !ok || chain == nil {
		lua.Errorf(state, "invalid arc chain")
		return 0
	}
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if stringField(data, "title") == "" {
		lua.Errorf(state, "beat title is required")
		return 0
	}
	if stringField(data, "arc") == "" {
		data["arc"] = chain.arcTitle
	}
	appendStep(chain.scenario, "beat", data)
	state.PushValue(1)
	return 1
}

func scenarioPublish(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "publish", optionalTable(state, 2))
	return 0
}

func scenarioCompleteArc(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "complete_arc", optionalTable(state, 2))
	return 0
}

func scenarioAdvancePhase(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "advance_phase", optionalTable(state, 2))
	return 0
}

func scenarioOverridePhase(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if stringField(data, "phase") == "" {
		lua.Errorf(state, "override phase is required")
		return 0
	}
	appendStep(scenario, "override_phase", data)
	return 0
}

func scenarioTension(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if _, ok := data["impact"]; !ok {
		lua.Errorf(state, "tension impact is required")
		return 0
	}
	appendStep(scenario, "tension", data)
	return 0
}

func scenarioAdvanceClock(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if _, ok := data["hours"]; !ok {
		lua.Errorf(state, "advance_clock hours is required")
		return 0
	}
	appendStep(scenario, "advance_clock", data)
	return 0
}

func scenarioStall(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if stringField(data, "type") == "" {
		lua.Errorf(state, "stall type is required")
		return 0
	}
	appendStep(scenario, "stall", data)
	return 0
}

func scenarioSweep(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "sweep", nil)
	return 0
}

func scenarioResolveStall(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if stringField(data, "action") == "" {
		lua.Errorf(state, "resolve_stall action is required")
		return 0
	}
	appendStep(scenario, "resolve_stall", data)
	return 0
}

func scenarioAction(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if stringField(data, "type") == "" {
		lua.Errorf(state, "action type is required")
		return 0
	}
	appendStep(scenario, "action", data)
	return 0
}

func scenarioCompleteAction(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "complete_action", optionalTable(state, 2))
	return 0
}

func scenarioPause(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "pause", nil)
	return 0
}

func scenarioResume(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "resume", nil)
	return 0
}

func scenarioExpect(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "expect", tableToMap(state, 2))
	return 0
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) int {
	if scenario == nil {
		return -1
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
	return len(scenario.Steps) - 1
}

func stringField(data map[string]any, key string) string {
	value, ok := data[key]
	if !ok {
		return ""
	}
	text, _ := value.(string)
	return strings.TrimSpace(text)
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
