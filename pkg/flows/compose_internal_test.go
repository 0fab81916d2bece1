package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/necyberteam/qabot/pkg/domain"
)

func TestMergeRegistries_RejectsDuplicateNames(t *testing.T) {
	a := Registry{
		"greet": &domain.Node{Name: "greet"},
		"ask":   &domain.Node{Name: "ask"},
	}
	b := Registry{
		"ask": &domain.Node{Name: "ask"},
	}

	_, err := mergeRegistries([]Registry{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate node name "ask"`)
}

func TestMergeRegistries_CombinesDisjointRegistries(t *testing.T) {
	a := Registry{"greet": &domain.Node{Name: "greet"}}
	b := Registry{"ask": &domain.Node{Name: "ask"}, "bye": &domain.Node{Name: "bye"}}

	merged, err := mergeRegistries([]Registry{a, b})
	require.NoError(t, err)
	assert.Len(t, merged, 3)
	assert.Same(t, a["greet"], merged["greet"])
	assert.Same(t, b["ask"], merged["ask"])
}

func TestMergeRegistries_EmptyInput(t *testing.T) {
	merged, err := mergeRegistries(nil)
	require.NoError(t, err)
	assert.Empty(t, merged)
}
