package command_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-memes/api"
	"github.com/reglet-dev/reglet-memes/command"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) command.Middleware {
		return func(next command.Action) command.Action {
			return func(ctx context.Context, inv *command.Invocation) (*command.Reply, error) {
				order = append(order, name)
				return next(ctx, inv)
			}
		}
	}

	a := command.Chain(func(context.Context, *command.Invocation) (*command.Reply, error) {
		order = append(order, "action")
		return &command.Reply{Text: "ok"}, nil
	}, mark("outer"), mark("inner"))

	reply, err := a(context.Background(), &command.Invocation{})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Text)
	assert.Equal(t, []string{"outer", "inner", "action"}, order)
}

func TestRecoverMiddleware(t *testing.T) {
	a := command.Chain(func(context.Context, *command.Invocation) (*command.Reply, error) {
		panic("boom")
	}, command.RecoverMiddleware())

	reply, err := a(context.Background(), &command.Invocation{})
	assert.Nil(t, reply)
	var pe *command.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
}

type panickingGenerator struct{}

func (panickingGenerator) Generate(context.Context, string, api.GenerateRequest) ([]byte, error) {
	panic("renderer crashed")
}

func TestMemeBuilder_RecoversGeneratorPanic(t *testing.T) {
	var seen []string
	audit := func(next command.Action) command.Action {
		return func(ctx context.Context, inv *command.Invocation) (*command.Reply, error) {
			seen = append(seen, "audit")
			return next(ctx, inv)
		}
	}
	b, err := command.NewMemeBuilder(panickingGenerator{},
		command.WithBuilderLogger(slog.New(slog.DiscardHandler)),
		command.WithMiddleware(audit))
	require.NoError(t, err)

	cmd, err := b.Build(slapInfo())
	require.NoError(t, err)

	_, err = cmd.Action(context.Background(), &command.Invocation{Images: []api.Image{{ID: "1"}}})
	var pe *command.PanicError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, []string{"audit"}, seen)
}
