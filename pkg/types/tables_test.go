package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studyhall-ai/studyhall/pkg/types"
)

func TestVectorPartitionTablePerTenant(t *testing.T) {
	a := types.VectorPartitionTable("tenant-a")
	b := types.VectorPartitionTable("tenant-b")

	assert.Equal(t, "studyhall_vectors_p_tenant-a", a)
	assert.NotEqual(t, a, b)
}
