// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendCommand appends its suffix to the string input.
type appendCommand struct {
	cor.BaseCommand
	suffix string
	fail   bool
	runs   int
}

func newAppendCommand(name string, suffix string) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix}
}

func (a *appendCommand) Execute(context cor.Context) {
	a.runs++
	if a.fail {
		a.Fail(context, errors.New("boom"))
		return
	}
	in := context.Get(a.GetInputParam()).(string)
	a.Succeed(context)
	context.Add(a.GetOutputParam(), in+a.suffix)
}

func newContext(input string) cor.Context {
	c := cor.NewBaseContext()
	c.SetContext(context.Background())
	c.Add(cor.CtxIn, input)
	return c
}

func TestChainPipesOutputToInput(t *testing.T) {
	chain := cor.NewBaseChain("pipe")
	chain.AddCommand(newAppendCommand("a", "-a")).AddCommand(newAppendCommand("b", "-b"))

	c := newContext("x")
	chain.Execute(c)

	assert.False(t, c.HasErrors())
	assert.Equal(t, "x-a-b", c.Get(cor.CtxIn))
	assert.Nil(t, c.Get(cor.CtxOut))
}

func TestChainStopsOnFailure(t *testing.T) {
	failing := newAppendCommand("failing", "-f")
	failing.fail = true
	after := newAppendCommand("after", "-z")

	chain := cor.NewBaseChain("stop")
	chain.AddCommand(failing).AddCommand(after)

	c := newContext("x")
	chain.Execute(c)

	assert.True(t, c.HasErrors())
	assert.Equal(t, 0, after.runs)
	assert.Contains(t, c.Err().Error(), "failing: boom")
}

func TestChainContinueOnFailure(t *testing.T) {
	failing := newAppendCommand("failing", "-f")
	failing.fail = true
	after := newAppendCommand("after", "-z")

	chain := cor.NewBaseChain("continue")
	chain.ContinueOnFailure(true)
	chain.AddCommand(failing).AddCommand(after)

	c := newContext("x")
	chain.Execute(c)

	// The failing command left no output, so "after" has no input and is skipped.
	assert.Equal(t, 0, after.runs)
	assert.Len(t, c.GetErrors(), 1)
}

type ctxKey struct{}

func TestChainRestoresParentContext(t *testing.T) {
	parent := context.WithValue(context.Background(), ctxKey{}, "parent")
	c := cor.NewBaseContext()
	c.SetContext(parent)
	c.Add(cor.CtxIn, "x")

	cor.NewBaseChain("restore").AddCommand(newAppendCommand("a", "-a")).Execute(c)

	assert.Equal(t, parent, c.GetContext())
}

func TestContextErrJoinsInKeyOrder(t *testing.T) {
	c := cor.NewBaseContext()
	assert.NoError(t, c.Err())

	c.AddError("b", errors.New("second"))
	c.AddError("a", errors.New("first"))
	c.AddError("a", errors.New("again"))

	msg := c.Err().Error()
	assert.Less(t, strings.Index(msg, "a: first"), strings.Index(msg, "b: second"))
	assert.Contains(t, msg, "again")
}

func TestContextConcurrentAdds(t *testing.T) {
	c := cor.NewBaseContext()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Add("k", i)
			c.AddError("worker", errors.New("e"))
			c.AddTempFile("f")
		}(i)
	}
	wg.Wait()
	assert.True(t, c.HasErrors())
	assert.Len(t, c.GetTempFiles(), 50)
}

func TestContextCloseRemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "upload.mp4")
	require.NoError(t, os.WriteFile(file, []byte("data"), 0o600))
	nested := filepath.Join(dir, "frames")
	require.NoError(t, os.MkdirAll(nested, 0o700))

	c := cor.NewBaseContext()
	c.AddTempFile(file)
	c.AddTempFile(nested)
	c.AddTempFile(filepath.Join(dir, "already-gone"))
	c.Close()

	_, err := os.Stat(file)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(nested)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, c.GetTempFiles())
}
