package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/necyberteam/qabot/internal/runtime"
	"github.com/necyberteam/qabot/pkg/domain"
)

func twoNodeFlow() map[string]*domain.Node {
	return map[string]*domain.Node{
		"start": {
			Name:    "start",
			Message: domain.StaticMessage("hello"),
			Next:    domain.AdvanceTo("done"),
		},
		"done": {
			Name:    "done",
			Message: domain.StaticMessage("goodbye"),
		},
	}
}

func TestEngine_StartAndRender(t *testing.T) {
	engine := runtime.NewEngine(twoNodeFlow())
	state := engine.Start("s1")

	assert.Equal(t, "start", state.CurrentNode)
	assert.Equal(t, []string{"start"}, state.History)

	view, err := engine.Render(context.Background(), state, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", view.Message)
}

func TestEngine_Navigate_Advances(t *testing.T) {
	engine := runtime.NewEngine(twoNodeFlow())
	state := engine.Start("s1")

	newState, view, err := engine.Navigate(context.Background(), state, domain.TextInput("hi"), nil)
	require.NoError(t, err)
	assert.Equal(t, "done", newState.CurrentNode)
	assert.Equal(t, "start", newState.PreviousNode)
	assert.Equal(t, []string{"start", "done"}, newState.History)
	assert.Equal(t, "goodbye", view.Message)

	// The input state is never mutated.
	assert.Equal(t, "start", state.CurrentNode)
	assert.Equal(t, []string{"start"}, state.History)
}

func TestEngine_Navigate_NilNextRetries(t *testing.T) {
	nodes := map[string]*domain.Node{
		"start": {Name: "start", Message: domain.StaticMessage("stay")},
	}
	engine := runtime.NewEngine(nodes)
	state := engine.Start("s1")

	newState, view, err := engine.Navigate(context.Background(), state, domain.TextInput("anything"), nil)
	require.NoError(t, err)
	assert.Same(t, state, newState)
	assert.Equal(t, "stay", view.Message)
}

func TestEngine_Navigate_ValidationReprompts(t *testing.T) {
	committed := false
	nodes := map[string]*domain.Node{
		"start": {
			Name:    "start",
			Message: domain.StaticMessage("your email?"),
			ValidateInput: func(_ context.Context, input domain.Input) domain.Verdict {
				if input.Text == "" {
					return domain.Reject("need a value")
				}
				return domain.Accept()
			},
			OnCommit: func(context.Context, *domain.ChatState) error {
				committed = true
				return nil
			},
			Next: domain.AdvanceTo("done"),
		},
		"done": {Name: "done", Message: domain.StaticMessage("ok")},
	}

	var rejects int
	engine := runtime.NewEngine(nodes, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnValidateReject: func(context.Context, *domain.NodeEvent) { rejects++ },
	}))
	state := engine.Start("s1")

	newState, view, err := engine.Navigate(context.Background(), state, domain.TextInput(""), nil)
	require.NoError(t, err)
	assert.Same(t, state, newState)
	assert.Equal(t, "need a value", view.Rejection)
	assert.False(t, committed)
	assert.Equal(t, 1, rejects)

	newState, view, err = engine.Navigate(context.Background(), state, domain.TextInput("kai@example.org"), nil)
	require.NoError(t, err)
	assert.Equal(t, "done", newState.CurrentNode)
	assert.Empty(t, view.Rejection)
	assert.True(t, committed)
}

func TestEngine_Navigate_OptionsOnlyRejectsFreeText(t *testing.T) {
	nodes := map[string]*domain.Node{
		"start": {
			Name:          "start",
			Message:       domain.StaticMessage("pick one"),
			Options:       domain.StaticOptions("Yes", "No"),
			InputDisabled: domain.OptionsOnly,
			Next:          domain.AdvanceTo("done"),
		},
		"done": {Name: "done", Message: domain.StaticMessage("ok")},
	}
	engine := runtime.NewEngine(nodes)
	state := engine.Start("s1")

	_, view, err := engine.Navigate(context.Background(), state, domain.TextInput("maybe"), nil)
	require.NoError(t, err)
	assert.Contains(t, view.Rejection, "choose one of the options")

	newState, _, err := engine.Navigate(context.Background(), state, domain.TextInput("Yes"), nil)
	require.NoError(t, err)
	assert.Equal(t, "done", newState.CurrentNode)
}

func TestEngine_Navigate_UnknownTarget(t *testing.T) {
	nodes := map[string]*domain.Node{
		"start": {
			Name: "start",
			Next: domain.AdvanceTo("missing"),
		},
	}
	engine := runtime.NewEngine(nodes)
	state := engine.Start("s1")

	_, _, err := engine.Navigate(context.Background(), state, domain.TextInput("go"), nil)
	require.Error(t, err)
	var unknown *domain.UnknownNodeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Node)
}

func TestEngine_Navigate_HooksAndEntryNode(t *testing.T) {
	var entered []string
	engine := runtime.NewEngine(twoNodeFlow(),
		runtime.WithEntryNode("start"),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
				entered = append(entered, e.NodeName)
			},
		}),
	)
	state := engine.Start("s1")

	_, _, err := engine.Navigate(context.Background(), state, domain.TextInput(""), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"done"}, entered)
}

func TestEngine_Nodes_Sorted(t *testing.T) {
	engine := runtime.NewEngine(twoNodeFlow())
	assert.Equal(t, []string{"done", "start"}, engine.Nodes())
}

func TestEngine_Render_PostReachesNode(t *testing.T) {
	nodes := map[string]*domain.Node{
		"start": {
			Name: "start",
			Message: func(_ context.Context, state *domain.ChatState) (string, error) {
				state.Notify("working on it")
				return "done thinking", nil
			},
		},
	}
	engine := runtime.NewEngine(nodes)
	state := engine.Start("s1")

	var posted []string
	view, err := engine.Render(context.Background(), state, func(msg string) { posted = append(posted, msg) })
	require.NoError(t, err)
	assert.Equal(t, "done thinking", view.Message)
	assert.Equal(t, []string{"working on it"}, posted)
}
