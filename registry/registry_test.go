package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-memes/registry"
)

type greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

func TestServices_PublishLookupWithdraw(t *testing.T) {
	t.Parallel()

	var events []string
	s := registry.NewServices(registry.WithOnChange(func(name string, published bool) {
		if published {
			events = append(events, "+"+name)
		} else {
			events = append(events, "-"+name)
		}
	}))

	withdraw, err := s.Publish("greeter", english{})
	require.NoError(t, err)
	_, err = s.Publish("other", 42)
	require.NoError(t, err)

	assert.Equal(t, []string{"greeter", "other"}, s.List())

	g, ok := registry.LookupAs[greeter](s, "greeter")
	require.True(t, ok)
	assert.Equal(t, "hello", g.Greet())

	_, ok = registry.LookupAs[greeter](s, "other")
	assert.False(t, ok)

	withdraw()
	withdraw()
	_, ok = s.Lookup("greeter")
	assert.False(t, ok)
	assert.Equal(t, []string{"+greeter", "+other", "-greeter"}, events)
}

func TestServices_PublishRejects(t *testing.T) {
	t.Parallel()

	s := registry.NewServices()
	_, err := s.Publish("x", 1)
	require.NoError(t, err)

	tests := []struct {
		name    string
		key     string
		value   any
		wantErr error
	}{
		{name: "duplicate", key: "x", value: 2, wantErr: registry.ErrAlreadyPublished},
		{name: "empty name", key: "", value: 1},
		{name: "nil value", key: "y", value: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Publish(tt.key, tt.value)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestServices_StaleWithdrawKeepsNewOwner(t *testing.T) {
	s := registry.NewServices()
	first, err := s.Publish("memes", "a")
	require.NoError(t, err)
	first()

	_, err = s.Publish("memes", "b")
	require.NoError(t, err)
	first()

	v, ok := s.Lookup("memes")
	require.True(t, ok)
	assert.Equal(t, "b", v)
}
