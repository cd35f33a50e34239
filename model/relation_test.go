package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDependencyType(t *testing.T) {
	for _, k := range AllDependencyTypes {
		got, err := ParseDependencyType(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseDependencyType("INHERIT")
	assert.Error(t, err)
}

func TestParamType_DistinctFromParameterEntity(t *testing.T) {
	// 参数类型依赖指向类型，参数实体本身只作为读写目标
	assert.Equal(t, DependencyType("PARAMETER"), ParamType)
	assert.Equal(t, ElementKind("PARAMETER"), Parameter)
	assert.Equal(t, []ElementKind{Type}, ParamType.TargetKinds())
	assert.Contains(t, Use.TargetKinds(), Parameter)
	assert.Contains(t, AllDependencyTypes, ParamType)
}
