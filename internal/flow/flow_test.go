package flow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cvKind Kind = "cv"

func newCVEngine(complete CompleteFunc) *Engine {
	e := NewEngine()
	e.Register(Flow{
		Kind: cvKind,
		Steps: []Step{
			{Field: "name", Prompt: "Ism?"},
			{Field: "email", Prompt: "Email?", Parse: Email("bad email")},
		},
		Complete: complete,
	})
	return e
}

func TestEngine_FullFlowCompletesOnce(t *testing.T) {
	var (
		calls int
		got   Data
	)
	e := newCVEngine(func(ctx context.Context, userID int64, data Data) (string, error) {
		calls++
		got = data
		return "saved", nil
	})
	ctx := context.Background()

	prompt, err := e.Start(1, cvKind)
	require.NoError(t, err)
	assert.Equal(t, "Ism?", prompt)

	reply, err := e.Submit(ctx, 1, Input{Text: "Ali"})
	require.NoError(t, err)
	assert.Equal(t, Reply{Text: "Email?"}, reply)

	reply, err = e.Submit(ctx, 1, Input{Text: "ali@example.com"})
	require.NoError(t, err)
	assert.Equal(t, Reply{Text: "saved", Done: true}, reply)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "Ali", got.String("name"))
	assert.Equal(t, "ali@example.com", got.String("email"))

	_, active := e.Active(1)
	assert.False(t, active)

	_, err = e.Submit(ctx, 1, Input{Text: "again"})
	assert.ErrorIs(t, err, ErrNoActiveFlow)
	assert.Equal(t, 1, calls)
}

func TestEngine_InvalidInputKeepsStep(t *testing.T) {
	e := newCVEngine(func(ctx context.Context, userID int64, data Data) (string, error) {
		t.Fatal("must not complete")
		return "", nil
	})
	ctx := context.Background()

	_, err := e.Start(1, cvKind)
	require.NoError(t, err)
	_, err = e.Submit(ctx, 1, Input{Text: "Ali"})
	require.NoError(t, err)

	before, ok := e.Active(1)
	require.True(t, ok)

	reply, err := e.Submit(ctx, 1, Input{Text: "not-an-email"})
	require.NoError(t, err)
	assert.True(t, reply.Invalid)
	assert.Equal(t, "bad email", reply.Text)

	after, ok := e.Active(1)
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, after.Step)
	_, hasEmail := after.Data["email"]
	assert.False(t, hasEmail)
}

func TestEngine_EmptyTextRepromptsWithStepPrompt(t *testing.T) {
	e := newCVEngine(nil)

	_, err := e.Start(1, cvKind)
	require.NoError(t, err)

	reply, err := e.Submit(context.Background(), 1, Input{FileID: "photo"})
	require.NoError(t, err)
	assert.Equal(t, Reply{Text: "Ism?", Invalid: true}, reply)
}

func TestEngine_Cancel(t *testing.T) {
	e := newCVEngine(nil)

	assert.False(t, e.Cancel(1))

	_, err := e.Start(1, cvKind)
	require.NoError(t, err)
	assert.True(t, e.Cancel(1))

	_, active := e.Active(1)
	assert.False(t, active)
}

func TestEngine_StartResetsState(t *testing.T) {
	e := newCVEngine(nil)
	ctx := context.Background()

	_, err := e.Start(1, cvKind)
	require.NoError(t, err)
	_, err = e.Submit(ctx, 1, Input{Text: "Ali"})
	require.NoError(t, err)

	_, err = e.Start(1, cvKind)
	require.NoError(t, err)

	state, ok := e.Active(1)
	require.True(t, ok)
	assert.Equal(t, 0, state.Step)
	assert.Empty(t, state.Data)
}

func TestEngine_UnknownKind(t *testing.T) {
	e := NewEngine()

	_, err := e.Start(1, "nope")
	assert.ErrorIs(t, err, ErrUnknownFlow)
}

func TestEngine_CompletionErrorClearsState(t *testing.T) {
	boom := errors.New("db down")
	e := NewEngine()
	e.Register(Flow{
		Kind:  "one",
		Steps: []Step{{Field: "x", Prompt: "x?"}},
		Complete: func(ctx context.Context, userID int64, data Data) (string, error) {
			return "", boom
		},
	})

	_, err := e.Start(7, "one")
	require.NoError(t, err)

	reply, err := e.Submit(context.Background(), 7, Input{Text: "value"})
	assert.ErrorIs(t, err, boom)
	assert.True(t, reply.Done)

	_, active := e.Active(7)
	assert.False(t, active)
}

func TestEngine_CompletionRunsOutsideLock(t *testing.T) {
	e := NewEngine()
	e.Register(Flow{
		Kind:  "one",
		Steps: []Step{{Field: "x", Prompt: "x?"}},
		Complete: func(ctx context.Context, userID int64, data Data) (string, error) {
			// re-entering the engine must not deadlock
			_, err := e.Start(userID, "one")
			return "restarted", err
		},
	})

	_, err := e.Start(1, "one")
	require.NoError(t, err)

	reply, err := e.Submit(context.Background(), 1, Input{Text: "v"})
	require.NoError(t, err)
	assert.Equal(t, "restarted", reply.Text)

	_, active := e.Active(1)
	assert.True(t, active)
}

func TestEngine_UsersAreIndependent(t *testing.T) {
	e := newCVEngine(func(ctx context.Context, userID int64, data Data) (string, error) {
		return data.String("name"), nil
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	for id := int64(1); id <= 20; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := e.Start(id, cvKind)
			assert.NoError(t, err)
			_, err = e.Submit(ctx, id, Input{Text: "user"})
			assert.NoError(t, err)
			reply, err := e.Submit(ctx, id, Input{Text: "u@example.com"})
			assert.NoError(t, err)
			assert.True(t, reply.Done)
		}(id)
	}
	wg.Wait()

	for id := int64(1); id <= 20; id++ {
		_, active := e.Active(id)
		assert.False(t, active)
	}
}
