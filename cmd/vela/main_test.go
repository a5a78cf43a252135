package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatErrorMessage(t *testing.T) {
	got := formatErrorMessage(errors.New("unexpected token"))
	require.Equal(t, "Error: unexpected token", got)
}

func TestExitCodeForUsageError(t *testing.T) {
	require.Equal(t, 2, exitCodeFor(&exitStatus{code: 2, err: errors.New("missing <file>")}))
}

func TestExitCodeForRuntimeError(t *testing.T) {
	require.Equal(t, 1, exitCodeFor(&exitStatus{code: 1, err: errors.New("boom")}))
}

func TestExitCodeForPlainError(t *testing.T) {
	require.Equal(t, 1, exitCodeFor(errors.New("boom")))
}

func TestNeedsMoreInputUnclosedBrace(t *testing.T) {
	require.True(t, needsMoreInput("function f() {\n"))
	require.False(t, needsMoreInput("function f() {}\n"))
}

func TestNeedsMoreInputUnclosedParen(t *testing.T) {
	require.True(t, needsMoreInput("console.log(1,\n"))
	require.False(t, needsMoreInput("console.log(1, 2)\n"))
}

func TestNeedsMoreInputIgnoresBracketsInsideStrings(t *testing.T) {
	require.False(t, needsMoreInput(`"{[(not actually open"` + "\n"))
}

func TestCompileSourceReportsLexErrors(t *testing.T) {
	_, err := compileSource("const x = @;\n", "<test>")
	require.Error(t, err)
}

func TestCompileSourceAccepts(t *testing.T) {
	fn, err := compileSource("1 + 1;\n", "<test>")
	require.NoError(t, err)
	require.NotNil(t, fn)
}

func TestRuntimeErrorMessageFallsBackToGoError(t *testing.T) {
	re := runtimeError{err: errors.New("division by zero")}
	require.Equal(t, "division by zero", re.Error())
}

func TestJitThresholdForOptLevels(t *testing.T) {
	require.Equal(t, 0, jitThresholdFor("none"))
	require.Equal(t, 2, jitThresholdFor("aggressive"))
	require.Greater(t, jitThresholdFor("basic"), 2)
}
