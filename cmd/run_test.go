package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/staywright/internal/config"
	"github.com/xkilldash9x/staywright/internal/runner"
)

func forTarget(name string) any {
	return mock.MatchedBy(func(inv runner.Invocation) bool { return inv.Target == name })
}

func TestRunCmd_RunsConfiguredTargetsInOrder(t *testing.T) {
	resetForTest(t)
	path := writeConfig(t, baseConfig)
	invoker := new(MockInvoker)
	var order []string
	record := func(args mock.Arguments) { order = append(order, args.Get(1).(runner.Invocation).Target) }
	invoker.On("Invoke", mock.Anything, forTarget("TestGetHighestRatingPage")).Return(0, nil).Run(record).Once()
	invoker.On("Invoke", mock.Anything, forTarget("TestConfirmBookingDetails")).Return(0, nil).Run(record).Once()

	out, _, err := executeCommand(context.Background(), testDependencies(invoker, nil, nil), "run", "-c", path)

	require.NoError(t, err)
	invoker.AssertExpectations(t)
	assert.Equal(t, []string{"TestGetHighestRatingPage", "TestConfirmBookingDetails"}, order)
	assert.Contains(t, out, "[Runner Arguments]")
	assert.Contains(t, out, "******")
}

func TestRunCmd_ArgumentsReplaceConfiguredTargets(t *testing.T) {
	resetForTest(t)
	path := writeConfig(t, baseConfig)
	invoker := new(MockInvoker)
	invoker.On("Invoke", mock.Anything, mock.MatchedBy(func(inv runner.Invocation) bool {
		return inv.Target == "TestBookingReservation" && assert.ObjectsAreEqual(
			[]string{"./e2e", "-run", "TestBookingReservation"}, inv.Args[4:7])
	})).Return(0, nil).Once()

	_, _, err := executeCommand(context.Background(), testDependencies(invoker, nil, nil), "run", "-c", path, "TestBookingReservation")

	require.NoError(t, err)
	invoker.AssertExpectations(t)
	invoker.AssertNumberOfCalls(t, "Invoke", 1)
}

func TestRunCmd_FailingTargetDoesNotStopTheRun(t *testing.T) {
	resetForTest(t)
	path := writeConfig(t, baseConfig)
	invoker := new(MockInvoker)
	invoker.On("Invoke", mock.Anything, forTarget("TestGetHighestRatingPage")).Return(1, nil).Once()
	invoker.On("Invoke", mock.Anything, forTarget("TestConfirmBookingDetails")).Return(0, nil).Once()

	_, _, err := executeCommand(context.Background(), testDependencies(invoker, nil, nil), "run", "-c", path)

	require.Error(t, err)
	assert.ErrorIs(t, err, runner.ErrTestsFailed)
	assert.Contains(t, err.Error(), "TestGetHighestRatingPage")
	invoker.AssertExpectations(t)
}

func TestRunCmd_RunnerThatCannotStartAborts(t *testing.T) {
	resetForTest(t)
	path := writeConfig(t, baseConfig)
	invoker := new(MockInvoker)
	invoker.On("Invoke", mock.Anything, mock.Anything).Return(-1, errors.New("executable file not found")).Once()

	_, _, err := executeCommand(context.Background(), testDependencies(invoker, nil, nil), "run", "-c", path)

	require.Error(t, err)
	assert.NotErrorIs(t, err, runner.ErrTestsFailed)
	invoker.AssertNumberOfCalls(t, "Invoke", 1)
}

func TestRunCmd_InvalidSelection(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown strategy", args: []string{"--by", "tag"}},
		{name: "file that is not a test file", args: []string{"--by", "file", "e2e/flows.go"}},
		{name: "blank target", args: []string{" "}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resetForTest(t)
			path := writeConfig(t, baseConfig)
			invoker := new(MockInvoker)

			args := append([]string{"run", "-c", path}, tc.args...)
			out, _, err := executeCommand(context.Background(), testDependencies(invoker, nil, nil), args...)

			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalid)
			assert.Empty(t, out)
			invoker.AssertNotCalled(t, "Invoke")
		})
	}
}

func TestRunCmd_ExampleNamesExistingFlows(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "e2e", "flows_test.go"))
	require.NoError(t, err)

	names := regexp.MustCompile(`\bTest\w+`).FindAllString(newRunCmd(dependencies{}).Example, -1)
	require.NotEmpty(t, names)
	for _, name := range names {
		assert.Contains(t, string(src), "func "+name+"(t *testing.T)", "example target %s", name)
	}
}
