package scripting

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/dorfsim/server/internal/geom"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Script directories loaded in order. Missing directories are skipped.
var scriptDirs = []string{"core", "goal"}

// Engine wraps a single gopher-lua VM for goal policy scripts.
// Single-goroutine access only (game loop). Reload swaps in a fresh VM.
type Engine struct {
	dir     string
	vm      *lua.LState
	blocked func(x, y int32) bool
	rng     *rand.Rand // behind math.random; survives reloads
	log     *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. math.random in scripts draws from a generator seeded with seed.
func NewEngine(scriptsDir string, seed int64, log *zap.Logger) (*Engine, error) {
	e := &Engine{dir: scriptsDir, rng: rand.New(rand.NewSource(seed)), log: log}
	vm, err := e.newVM()
	if err != nil {
		return nil, err
	}
	e.vm = vm
	return e, nil
}

func (e *Engine) newVM() (*lua.LState, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("is_blocked", vm.NewFunction(e.luaIsBlocked))
	if mathLib, ok := vm.GetGlobal("math").(*lua.LTable); ok {
		// The stock math.random shares Go's global source.
		mathLib.RawSetString("random", vm.NewFunction(e.luaRandom))
		mathLib.RawSetString("randomseed", vm.NewFunction(e.luaRandomSeed))
	}

	for _, sub := range scriptDirs {
		p := filepath.Join(e.dir, sub)
		if err := e.loadDir(vm, p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return vm, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(vm *lua.LState, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Reload rebuilds the VM from disk. On failure the running VM is kept.
func (e *Engine) Reload() error {
	vm, err := e.newVM()
	if err != nil {
		return err
	}
	e.vm.Close()
	e.vm = vm
	return nil
}

// SetBlockedFunc installs the lookup behind the Lua is_blocked(x, y) helper.
func (e *Engine) SetBlockedFunc(fn func(x, y int32) bool) {
	e.blocked = fn
}

func (e *Engine) luaIsBlocked(L *lua.LState) int {
	x := int32(L.CheckNumber(1))
	y := int32(L.CheckNumber(2))
	if e.blocked == nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(e.blocked(x, y)))
	return 1
}

// luaRandom follows Lua's math.random: no args gives [0,1), (m) gives
// [1,m], (m, n) gives [m,n].
func (e *Engine) luaRandom(L *lua.LState) int {
	switch L.GetTop() {
	case 0:
		L.Push(lua.LNumber(e.rng.Float64()))
	case 1:
		m := L.CheckInt64(1)
		if m < 1 {
			L.ArgError(1, "interval is empty")
		}
		L.Push(lua.LNumber(1 + e.rng.Int63n(m)))
	default:
		m, n := L.CheckInt64(1), L.CheckInt64(2)
		if m > n {
			L.ArgError(2, "interval is empty")
		}
		L.Push(lua.LNumber(m + e.rng.Int63n(n-m+1)))
	}
	return 1
}

func (e *Engine) luaRandomSeed(L *lua.LState) int {
	e.rng.Seed(L.CheckInt64(1))
	return 0
}

// GoalContext is what choose_goal sees about the mover asking for a goal.
type GoalContext struct {
	ID       uint64
	Pos      geom.Vec2
	Scale    geom.IVec2
	Bounds   geom.Rect // map bounds, max exclusive
	Tick     uint64
	Failures int // consecutive failed searches
}

// HasGoalPolicy reports whether a choose_goal function is loaded.
func (e *Engine) HasGoalPolicy() bool {
	return e.vm.GetGlobal("choose_goal") != lua.LNil
}

// ChooseGoal calls the Lua choose_goal function. ok is false when the
// script is missing, fails, or returns nil.
func (e *Engine) ChooseGoal(ctx GoalContext) (geom.Vec2, bool) {
	fn := e.vm.GetGlobal("choose_goal")
	if fn == lua.LNil {
		return geom.Vec2{}, false
	}

	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(ctx.ID))
	t.RawSetString("x", lua.LNumber(ctx.Pos.X))
	t.RawSetString("y", lua.LNumber(ctx.Pos.Y))
	t.RawSetString("w", lua.LNumber(ctx.Scale.X))
	t.RawSetString("h", lua.LNumber(ctx.Scale.Y))
	t.RawSetString("min_x", lua.LNumber(ctx.Bounds.Min.X))
	t.RawSetString("min_y", lua.LNumber(ctx.Bounds.Min.Y))
	t.RawSetString("max_x", lua.LNumber(ctx.Bounds.Max.X))
	t.RawSetString("max_y", lua.LNumber(ctx.Bounds.Max.Y))
	t.RawSetString("tick", lua.LNumber(ctx.Tick))
	t.RawSetString("failures", lua.LNumber(ctx.Failures))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua choose_goal error", zap.Error(err))
		return geom.Vec2{}, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return geom.Vec2{}, false
	}
	x, xok := rt.RawGetString("x").(lua.LNumber)
	y, yok := rt.RawGetString("y").(lua.LNumber)
	if !xok || !yok {
		e.log.Error("lua choose_goal returned table without x/y")
		return geom.Vec2{}, false
	}
	return geom.V(float64(x), float64(y)), true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
