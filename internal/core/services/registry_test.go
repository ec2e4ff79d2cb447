package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

func TestSourceRegistry(t *testing.T) {
	registry := NewSourceRegistry()
	source := &mockSource{}
	registry.Register("mock", func(domain.Connection, driven.TokenProvider) (driven.Source, error) {
		return source, nil
	})

	built, err := registry.Build(domain.Connection{ShortName: "mock"}, nil)
	require.NoError(t, err)
	assert.Same(t, source, built)

	_, err = registry.Build(domain.Connection{ShortName: "unknown"}, nil)
	require.ErrorIs(t, err, domain.ErrUnsupportedType)

	assert.Equal(t, []string{"mock"}, registry.ShortNames())
}

func TestDestinationRegistry(t *testing.T) {
	registry := NewDestinationRegistry()
	registry.Register("mockdest", func() (driven.Destination, error) {
		return newMockDestination(), nil
	})

	built, err := registry.Build("mockdest")
	require.NoError(t, err)
	assert.NotNil(t, built)

	_, err = registry.Build("qdrant")
	require.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestTransformerRegistry(t *testing.T) {
	registry := NewTransformerRegistry()
	upper := &mockTransformer{
		def: domain.TransformerDefinition{Name: "upper", Consumes: "file", Produces: "document"},
	}
	registry.Register(upper)

	got, err := registry.Get("upper")
	require.NoError(t, err)
	assert.Same(t, driven.Transformer(upper), got)

	_, err = registry.Get("lower")
	require.ErrorIs(t, err, domain.ErrUnsupportedType)

	defs := registry.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "document", defs["upper"].Produces)
}
