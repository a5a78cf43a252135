package ast_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vela-lang/vela/ast"
	"github.com/vela-lang/vela/errors"
)

func TestNodesImplementStatementOrExpressionMarkers(t *testing.T) {
	var _ ast.Expression = &ast.NumberLiteral{}
	var _ ast.Expression = &ast.Identifier{}
	var _ ast.Expression = &ast.BinaryExpression{}
	var _ ast.Statement = &ast.IfStatement{}
	var _ ast.Statement = &ast.ForOfStatement{}
	require.True(t, true)
}

func TestBreakStatementCarriesOptionalLabel(t *testing.T) {
	b := &ast.BreakStatement{Label: "outer"}
	require.Equal(t, "outer", b.Label)
	require.Equal(t, errors.Position{}, b.Pos())
}
