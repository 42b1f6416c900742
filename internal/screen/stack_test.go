package screen

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/log2"
)

type fakeScreen struct {
	Base
	name  string
	calls *[]string
}

func newFake(name string, calls *[]string) *fakeScreen {
	return &fakeScreen{name: name, calls: calls}
}

func (self *fakeScreen) rec(s string) { *self.calls = append(*self.calls, self.name+"."+s) }
func (self *fakeScreen) Reset()       { self.rec("reset") }
func (self *fakeScreen) Pop()         { self.rec("pop") }
func (self *fakeScreen) Update(_ Surface, force bool) {
	self.rec(fmt.Sprintf("update(%t)", force))
}
func (self *fakeScreen) NotifyButtonPressed(b button.Button) { self.rec("press " + b.String()) }

type nullSurface struct{}

func (nullSurface) Begin(uint8, uint8)     {}
func (nullSurface) Clear()                 {}
func (nullSurface) Home()                  {}
func (nullSurface) SetCursor(uint8, uint8) {}
func (nullSurface) WriteString(string)     {}

type tenv struct {
	calls []string
	stack *Stack
	root  *fakeScreen
}

func newEnv(t testing.TB, limit int) *tenv {
	env := &tenv{}
	env.stack = NewStack(limit, nullSurface{}, log2.NewTest(t, log2.LDebug))
	env.root = newFake("root", &env.calls)
	env.stack.Seed(env.root)
	env.calls = env.calls[:0]
	return env
}

func (env *tenv) names() string {
	ss := make([]string, 0, env.stack.Depth())
	for i := 0; i < env.stack.Depth(); i++ {
		ss = append(ss, env.stack.At(i).(*fakeScreen).name)
	}
	return strings.Join(ss, ",")
}

func TestNewStackLimit(t *testing.T) {
	t.Parallel()

	log := log2.NewTest(t, log2.LDebug)
	assert.Equal(t, DefaultDepth, NewStack(0, nullSurface{}, log).Limit())
	assert.Equal(t, MaxDepth, NewStack(MaxDepth+5, nullSurface{}, log).Limit())
	s := NewStack(3, nullSurface{}, log)
	assert.Equal(t, 3, s.Limit())
	assert.Nil(t, s.Current())
	s.Pop()
	s.PopN(2)
	assert.Equal(t, 0, s.Depth())
}

func TestPush(t *testing.T) {
	t.Parallel()

	env := newEnv(t, 3)
	a := newFake("a", &env.calls)
	b := newFake("b", &env.calls)
	c := newFake("c", &env.calls)

	assert.True(t, env.stack.Push(a))
	assert.Equal(t, []string{"a.reset", "a.update(true)"}, env.calls)
	assert.True(t, env.stack.PushNoUpdate(b))
	assert.Equal(t, []string{"a.reset", "a.update(true)", "b.reset"}, env.calls)
	assert.Equal(t, "root,a,b", env.names())

	env.calls = env.calls[:0]
	assert.False(t, env.stack.Push(c), "overflow must be refused")
	assert.Equal(t, "root,a,b", env.names())
	assert.Equal(t, []string{"b.reset", "b.update(true)"}, env.calls)
}

func TestPopRoundTrip(t *testing.T) {
	t.Parallel()

	env := newEnv(t, 4)
	a := newFake("a", &env.calls)
	b := newFake("b", &env.calls)
	env.stack.Push(a)
	env.calls = env.calls[:0]

	env.stack.Push(b)
	env.stack.Pop()
	assert.Equal(t, a, env.stack.Current())
	assert.Equal(t, []string{"b.reset", "b.update(true)", "b.pop", "a.update(true)"}, env.calls)
}

func TestPopRootSticky(t *testing.T) {
	t.Parallel()

	env := newEnv(t, 4)
	env.stack.Pop()
	env.stack.Pop()
	assert.Equal(t, "root", env.names())
	assert.Equal(t, []string{"root.pop", "root.update(true)", "root.pop", "root.update(true)"}, env.calls)
}

func TestPopN(t *testing.T) {
	t.Parallel()

	env := newEnv(t, 6)
	for _, name := range []string{"a", "b", "c", "d"} {
		env.stack.Push(newFake(name, &env.calls))
	}
	assert.Equal(t, 4, env.stack.Index())

	env.calls = env.calls[:0]
	env.stack.PopN(0)
	assert.Equal(t, "root,a,b,c,d", env.names())
	env.stack.PopN(2)
	assert.Equal(t, "root,a,b", env.names())
	assert.Equal(t, []string{"d.update(true)", "b.update(true)"}, env.calls, "no pop notifications")
	env.stack.PopN(100)
	assert.Equal(t, "root", env.names())
	env.stack.PopN(1)
	assert.Equal(t, "root", env.names())
}

func TestPop2(t *testing.T) {
	t.Parallel()

	env := newEnv(t, 6)
	env.stack.Push(newFake("a", &env.calls))
	env.stack.Pop2()
	assert.Equal(t, "root,a", env.names(), "pop2 must not touch root")
	env.stack.Push(newFake("b", &env.calls))
	env.stack.Push(newFake("c", &env.calls))
	env.stack.Pop2()
	assert.Equal(t, "root,a", env.names())
}

func TestPopTo(t *testing.T) {
	t.Parallel()

	env := newEnv(t, 6)
	env.stack.Push(newFake("a", &env.calls))
	env.stack.Push(newFake("b", &env.calls))
	env.calls = env.calls[:0]
	env.stack.PopTo(1)
	assert.Equal(t, "root,a", env.names())
	env.stack.PopTo(1)
	assert.Equal(t, []string{"a.update(true)"}, env.calls)
}

func TestPushBehindCurrent(t *testing.T) {
	t.Parallel()

	t.Run("regular", func(t *testing.T) {
		env := newEnv(t, 4)
		msg := newFake("msg", &env.calls)
		build := newFake("build", &env.calls)
		env.stack.Push(msg)
		env.calls = env.calls[:0]

		require.True(t, env.stack.PushBehindCurrent(build))
		assert.Equal(t, "root,build,msg", env.names())
		assert.Equal(t, msg, env.stack.Current())
		assert.Equal(t, []string{"build.reset"}, env.calls, "hidden screen must not update")

		env.stack.Pop()
		assert.Equal(t, build, env.stack.Current())
	})

	t.Run("full", func(t *testing.T) {
		env := newEnv(t, 2)
		msg := newFake("msg", &env.calls)
		env.stack.Push(msg)
		env.calls = env.calls[:0]
		assert.False(t, env.stack.PushBehindCurrent(newFake("build", &env.calls)))
		assert.Equal(t, "root,msg", env.names())
		assert.Empty(t, env.calls)
	})

	t.Run("root-only", func(t *testing.T) {
		env := newEnv(t, 4)
		build := newFake("build", &env.calls)
		assert.True(t, env.stack.PushBehindCurrent(build))
		assert.Equal(t, "root,build", env.names())
		assert.Equal(t, []string{"build.reset", "build.update(true)"}, env.calls)
	})
}

func TestStackInvariantRandom(t *testing.T) {
	t.Parallel()

	for _, limit := range []int{1, 2, 5, MaxDepth} {
		limit := limit
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			env := newEnv(t, limit)
			rnd := rand.New(rand.NewSource(int64(limit)))
			for i := 0; i < 2000; i++ {
				s := newFake(fmt.Sprintf("s%d", i), &env.calls)
				switch rnd.Intn(6) {
				case 0:
					env.stack.Push(s)
				case 1:
					env.stack.PushNoUpdate(s)
				case 2:
					env.stack.PushBehindCurrent(s)
				case 3:
					env.stack.Pop()
				case 4:
					env.stack.PopN(rnd.Intn(4))
				case 5:
					env.stack.Pop2()
				}
				env.calls = env.calls[:0]
				require.True(t, env.stack.Depth() >= 1 && env.stack.Depth() <= limit, "depth=%d", env.stack.Depth())
				require.Equal(t, env.root, env.stack.At(0))
				require.NotNil(t, env.stack.Current())
			}
		})
	}
}
