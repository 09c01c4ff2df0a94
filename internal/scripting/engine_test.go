package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dorfsim/server/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	sub := filepath.Join(dir, "goal")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, name), []byte(body), 0o644))
}

func ctxAt(x, y float64) GoalContext {
	return GoalContext{
		ID:     1,
		Pos:    geom.V(x, y),
		Scale:  geom.IV(1, 1),
		Bounds: geom.NewRect(0, 0, 10, 50),
	}
}

func TestChooseGoal(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "policy.lua", `
function choose_goal(ctx)
  if ctx.failures > 2 then return nil end
  return { x = ctx.x + 1, y = ctx.max_y - 1 }
end
`)
	e, err := NewEngine(dir, 1, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.True(t, e.HasGoalPolicy())
	g, ok := e.ChooseGoal(ctxAt(2, 3))
	require.True(t, ok)
	assert.Equal(t, geom.V(3, 49), g)

	c := ctxAt(2, 3)
	c.Failures = 3
	_, ok = e.ChooseGoal(c)
	assert.False(t, ok, "nil falls back")
}

func TestChooseGoalBadResults(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "policy.lua", `
function choose_goal(ctx)
  if ctx.id == 1 then return { x = 1 } end
  if ctx.id == 2 then error("boom") end
  return 5
end
`)
	e, err := NewEngine(dir, 1, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	for id := uint64(1); id <= 3; id++ {
		c := ctxAt(0, 0)
		c.ID = id
		_, ok := e.ChooseGoal(c)
		assert.False(t, ok, "id %d", id)
	}
}

func TestMissingDirsAndPolicy(t *testing.T) {
	e, err := NewEngine(t.TempDir(), 1, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()
	assert.False(t, e.HasGoalPolicy())
	_, ok := e.ChooseGoal(ctxAt(0, 0))
	assert.False(t, ok)
}

func TestReloadKeepsOldVMOnError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "policy.lua", `function choose_goal(ctx) return { x = 1, y = 1 } end`)
	e, err := NewEngine(dir, 1, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	writeScript(t, dir, "policy.lua", `function choose_goal(ctx) return { x = 2, y = 2 end`)
	assert.Error(t, e.Reload())
	g, ok := e.ChooseGoal(ctxAt(0, 0))
	require.True(t, ok)
	assert.Equal(t, geom.V(1, 1), g)

	writeScript(t, dir, "policy.lua", `function choose_goal(ctx) return { x = 2, y = 2 } end`)
	require.NoError(t, e.Reload())
	g, _ = e.ChooseGoal(ctxAt(0, 0))
	assert.Equal(t, geom.V(2, 2), g)
}

func TestDefaultPolicyAvoidsBlockedTiles(t *testing.T) {
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), 1, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()
	require.True(t, e.HasGoalPolicy())

	e.SetBlockedFunc(func(x, y int32) bool { return x != 7 })
	for i := 0; i < 20; i++ {
		g, ok := e.ChooseGoal(ctxAt(0, 0))
		if !ok {
			continue // every try hit a wall
		}
		assert.Equal(t, 7.0, g.X)
		assert.GreaterOrEqual(t, g.Y, 0.0)
		assert.Less(t, g.Y, 50.0)
	}

	e.SetBlockedFunc(func(int32, int32) bool { return true })
	_, ok := e.ChooseGoal(ctxAt(0, 0))
	assert.False(t, ok)
}

func goalSequence(t *testing.T, seed int64, n int) []geom.Vec2 {
	t.Helper()
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), seed, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()
	e.SetBlockedFunc(func(int32, int32) bool { return false })

	out := make([]geom.Vec2, 0, n)
	for i := 0; i < n; i++ {
		g, ok := e.ChooseGoal(ctxAt(0, 0))
		require.True(t, ok)
		out = append(out, g)
	}
	return out
}

func TestSameSeedSameGoals(t *testing.T) {
	a := goalSequence(t, 42, 16)
	assert.Equal(t, a, goalSequence(t, 42, 16))
	assert.NotEqual(t, a, goalSequence(t, 43, 16))
}

func TestMathRandomRanges(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "policy.lua", `
function choose_goal(ctx)
  local f = math.random()
  if f < 0 or f >= 1 then return nil end
  local a = math.random(3)
  if a < 1 or a > 3 then return nil end
  return { x = math.random(4, 4), y = a }
end
`)
	e, err := NewEngine(dir, 7, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()
	for i := 0; i < 50; i++ {
		g, ok := e.ChooseGoal(ctxAt(0, 0))
		require.True(t, ok)
		assert.Equal(t, 4.0, g.X)
	}

	writeScript(t, dir, "policy.lua", `function choose_goal(ctx) return { x = math.random(5, 1), y = 0 } end`)
	require.NoError(t, e.Reload())
	_, ok := e.ChooseGoal(ctxAt(0, 0))
	assert.False(t, ok, "empty interval raises")
}

func TestWatcherReportsScriptChanges(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "policy.lua", `-- empty`)
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "goal", "notes.txt"), []byte("x"), 0o644))
	writeScript(t, dir, "policy.lua", `-- changed`)

	select {
	case p := <-w.Events:
		assert.Equal(t, "policy.lua", filepath.Base(p))
	case <-time.After(2 * time.Second):
		t.Fatal("no change event")
	}
}

func TestWatcherReportsBurstAfterLastWrite(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "policy.lua", `-- v0`)
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	for i := 1; i <= 5; i++ {
		writeScript(t, dir, "policy.lua", fmt.Sprintf("-- v%d", i))
		time.Sleep(10 * time.Millisecond)
		assert.Empty(t, w.Drain(), "no event while writes keep coming")
	}

	select {
	case p := <-w.Events:
		assert.Equal(t, "policy.lua", filepath.Base(p))
		body, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, "-- v5", string(body))
	case <-time.After(2 * time.Second):
		t.Fatal("no change event")
	}

	time.Sleep(3 * debounce)
	assert.Empty(t, w.Drain(), "one event per burst")
}
